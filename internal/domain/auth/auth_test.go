package auth

import (
	"testing"
	"time"
)

func TestRoleIsAdmin(t *testing.T) {
	if !RoleAdmin.IsAdmin() {
		t.Fatalf("expected admin role to be admin-equivalent")
	}
	for _, r := range []Role{RoleManager, RoleDesigner, Role("")} {
		if r.IsAdmin() {
			t.Fatalf("role %q must not be admin-equivalent", r)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("manager"); !ok || r != RoleManager {
		t.Fatalf("unexpected parse result: %v %v", r, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatalf("unknown role must not parse")
	}
}

func TestRoleMeets(t *testing.T) {
	cases := []struct {
		user     Role
		required Role
		want     bool
	}{
		{RoleDesigner, RoleDesigner, true},
		{RoleDesigner, RoleManager, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleAdmin, false},
		{RoleAdmin, RoleDesigner, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("root"), RoleDesigner, false},
		{RoleAdmin, Role(""), false},
	}
	for _, tc := range cases {
		if got := tc.user.Meets(tc.required); got != tc.want {
			t.Fatalf("%q meets %q = %v, want %v", tc.user, tc.required, got, tc.want)
		}
	}
}

func TestDecisionStates(t *testing.T) {
	if DecisionUnauthenticated.Authenticated() {
		t.Fatalf("unauthenticated decision must not authenticate")
	}
	if !DecisionAuthenticated.Authenticated() || DecisionAuthenticated.Admin() {
		t.Fatalf("authenticated decision misbehaves")
	}
	if !DecisionAuthenticatedAdmin.Admin() {
		t.Fatalf("admin decision must be admin")
	}
}

func TestSessionIsAdmin(t *testing.T) {
	s := Session{Role: RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
	if !s.IsAdmin() {
		t.Fatalf("expected admin")
	}
	if (Session{Role: RoleDesigner}).IsAdmin() {
		t.Fatalf("did not expect admin")
	}
}
