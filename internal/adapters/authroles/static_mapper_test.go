package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "cad-admins", ManagerGroup: "cad-managers"}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{"admin group", []string{"cad-admins"}, domainauth.RoleAdmin},
		{"manager group", []string{"cad-managers"}, domainauth.RoleManager},
		{"admin wins over manager", []string{"cad-managers", "cad-admins"}, domainauth.RoleAdmin},
		{"unknown groups fall back to designer", []string{"engineering"}, domainauth.RoleDesigner},
		{"no groups", nil, domainauth.RoleDesigner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyConfigNeverElevates(t *testing.T) {
	m := StaticRoleMapper{}
	assert.Equal(t, domainauth.RoleDesigner, m.Map([]string{"", "cad-admins"}))
}
