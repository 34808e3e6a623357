package ports

// Package ports defines interfaces (hexagonal ports) for auth and storage
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

// ErrInvalidCredentials is returned by CredentialVerifier implementations for
// any verification failure. Missing and mismatched credentials are
// deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// BeginInput carries inputs for initiating a redirect-based auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes a redirect-based authentication flow
// against an IdP (OIDC in production).
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// CredentialVerifier owns password credentials end to end. Profiles never see
// raw or hashed passwords; every verification goes through this port.
type CredentialVerifier interface {
	// Create stores a new credential for the user, hashing the password.
	Create(ctx context.Context, userID, password string) error

	// Verify checks a password against the stored credential.
	Verify(ctx context.Context, userID, password string) error

	// Update replaces the stored credential with a hash of newPassword.
	Update(ctx context.Context, userID, newPassword string) error

	// Delete removes the credential for the user. Deleting a missing
	// credential is not an error.
	Delete(ctx context.Context, userID string) error
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
