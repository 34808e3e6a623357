package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLocal verifies passwords against the credentials table.
	AuthModeLocal AuthMode = "local"
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "local", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: local, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"partkeep"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"partkeep"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/userauth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID   string   `env:"USER_ID"   envDefault:"dev-user"`
	Username string   `env:"USERNAME"  envDefault:"dev"`
	Email    string   `env:"EMAIL"     envDefault:"dev@example.com"`
	FullName string   `env:"FULL_NAME" envDefault:"Dev User"`
	Groups   []string `env:"GROUPS"    envDefault:"partkeep-admins" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"local"`

	// SessionTTL bounds password-login sessions.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	// AdminGroup and ManagerGroup map identity-provider group claims to roles
	// in OIDC mode. Members of neither group become designers.
	AdminGroup   string `env:"AUTH_ADMIN_GROUP"   envDefault:"partkeep-admins"`
	ManagerGroup string `env:"AUTH_MANAGER_GROUP" envDefault:"partkeep-managers"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
}
