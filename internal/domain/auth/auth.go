package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDesigner Role = "designer"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDesigner:
		return true
	}
	return false
}

// IsAdmin reports whether the role belongs to the admin-equivalent set.
// Authorization checks go through this method rather than comparing
// against RoleAdmin directly so the set can grow without touching guards.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// rank orders roles for permission checks: designer < manager < admin.
// Invalid roles rank below every defined role.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleDesigner:
		return 1
	}
	return 0
}

// Meets reports whether r satisfies a requirement of at least required.
// Both roles must be valid; anything unrecognized fails the check.
func (r Role) Meets(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.rank() >= required.rank()
}

// ParseRole normalizes a stored role string into a Role, reporting validity.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Identity represents the authenticated principal returned by an identity
// provider. Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (uuid for local auth, sub for OIDC)
	Username  string
	Email     string
	FullName  string
	Groups    []string
	ExpiresAt time.Time // absolute session expiry granted by the provider
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session carries an admin-equivalent role.
func (s Session) IsAdmin() bool { return s.Role.IsAdmin() }

// Decision is the tri-state authorization outcome derived from a session
// lookup plus profile resolution. It is computed fresh per request and never
// persisted.
type Decision int

const (
	// DecisionUnauthenticated covers no session, expired session, transport
	// errors, and sessions whose profile row no longer exists. Every ambiguous
	// outcome collapses here so guards fail closed.
	DecisionUnauthenticated Decision = iota
	DecisionAuthenticated
	DecisionAuthenticatedAdmin
)

// Authenticated reports whether the decision grants access to signed-in pages.
func (d Decision) Authenticated() bool { return d != DecisionUnauthenticated }

// Admin reports whether the decision grants access to admin-only pages.
func (d Decision) Admin() bool { return d == DecisionAuthenticatedAdmin }

func (d Decision) String() string {
	switch d {
	case DecisionAuthenticated:
		return "authenticated"
	case DecisionAuthenticatedAdmin:
		return "authenticated_admin"
	default:
		return "unauthenticated"
	}
}
