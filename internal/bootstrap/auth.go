package bootstrap

import (
	"log/slog"

	"github.com/partkeep/partkeep/config"
	"github.com/partkeep/partkeep/internal/adapters/authroles"
	"github.com/partkeep/partkeep/internal/adapters/devauth"
	"github.com/partkeep/partkeep/internal/adapters/localauth"
	"github.com/partkeep/partkeep/internal/adapters/oidc"
	redisadapter "github.com/partkeep/partkeep/internal/adapters/redis"
	"github.com/partkeep/partkeep/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       service.UserStore
	Credentials localauth.CredentialStore
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}
	if cfg.Users == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: user store not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store shared by every mode
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	// Role mapper is shared by the identity-provider modes
	roleMapper := authroles.StaticRoleMapper{
		AdminGroup:   cfg.Auth.AdminGroup,
		ManagerGroup: cfg.Auth.ManagerGroup,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		return buildLocalAuthService(cfg, sessionStore)

	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore, roleMapper)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore, roleMapper)

	default:
		return nil
	}
}

func buildLocalAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
) *service.AuthService {
	if cfg.Credentials == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeLocal selected but credential store missing; auth disabled")
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Sessions:   sessionStore,
		Users:      cfg.Users,
		Verifier:   localauth.NewVerifier(cfg.Credentials),
		SessionTTL: cfg.Auth.SessionTTL,
	})
}

func buildDevAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:   cfg.Auth.DevAuth.UserID,
		Username: cfg.Auth.DevAuth.Username,
		Email:    cfg.Auth.DevAuth.Email,
		FullName: cfg.Auth.DevAuth.FullName,
		Groups:   cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      roleMapper,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
	})
}

func buildOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   prov,
		Sessions:   sessionStore,
		Roles:      roleMapper,
		Users:      cfg.Users,
		SessionTTL: cfg.Auth.SessionTTL,
	})
}
