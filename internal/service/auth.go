package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/partkeep/partkeep/internal/data"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/ports"
)

// UserStore is the profile persistence surface the services need.
// *data.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, params data.CreateUserParams) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Count(ctx context.Context, opts model.UsersListOptions) (int, error)
	Update(ctx context.Context, username string, req model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, username string) (bool, error)
}

// ErrInvalidLogin is the uniform sign-in failure. Unknown username and wrong
// password both map here so the login form cannot be used to probe accounts.
var ErrInvalidLogin = errors.New("invalid username or password")

var errSessionExpired = errors.New("session expired")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider // optional; OIDC flow only
	Sessions ports.SessionStore
	Roles    ports.RoleMapper // optional; OIDC flow only
	Users    UserStore
	Verifier ports.CredentialVerifier // optional; password flow only

	// SessionTTL bounds password-login sessions. Zero means 8h.
	SessionTTL time.Duration
}

// AuthService orchestrates authentication: password and OIDC sign-in, session
// persistence, and per-request authorization decisions.
type AuthService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	roles      ports.RoleMapper
	users      UserStore
	verifier   ports.CredentialVerifier
	sessionTTL time.Duration
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		users:      opts.Users,
		verifier:   opts.Verifier,
		sessionTTL: ttl,
	}
}

// SignInWithPassword verifies a username/password pair and creates a session.
// Every failure mode short of a transport error returns ErrInvalidLogin.
func (s *AuthService) SignInWithPassword(
	ctx context.Context,
	username, password string,
) (*domainauth.Session, error) {
	if s.verifier == nil {
		return nil, errors.New("password sign-in is not configured")
	}
	if username == "" || password == "" {
		return nil, ErrInvalidLogin
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("look up profile: %w", err)
	}

	if verifyErr := s.verifier.Verify(ctx, user.ID, password); verifyErr != nil {
		// The verifier collapses missing/mismatched into one error already;
		// anything else is a transport failure worth surfacing.
		if isCredentialMismatch(verifyErr) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("verify credentials: %w", verifyErr)
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}
	return &session, nil
}

// SignUpInput carries a validated self-registration request.
type SignUpInput struct {
	Request model.CreateUserRequest
}

// SignUp creates a profile plus credential and signs the new user in.
// New accounts always start as designers; elevation is an admin operation.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domainauth.Session, error) {
	if s.verifier == nil {
		return nil, errors.New("password sign-up is not configured")
	}

	req := in.Request
	req.Role = domainauth.RoleDesigner
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, data.CreateUserParams{
		ID:       uuid.New().String(),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		return nil, err
	}

	if credErr := s.verifier.Create(ctx, user.ID, req.Password); credErr != nil {
		// Roll back the half-created account so the username is not burned.
		if _, delErr := s.users.Delete(ctx, user.Username); delErr != nil {
			return nil, errors.Join(
				fmt.Errorf("store credential: %w", credErr),
				fmt.Errorf("roll back profile: %w", delErr),
			)
		}
		return nil, fmt.Errorf("store credential: %w", credErr)
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}
	return &session, nil
}

// ChangePassword verifies the current password and stores a new one for the
// signed-in user.
func (s *AuthService) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	if s.verifier == nil {
		return errors.New("password change is not configured")
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := s.verifier.Verify(ctx, userID, currentPassword); err != nil {
		if isCredentialMismatch(err) {
			return ErrInvalidLogin
		}
		return fmt.Errorf("verify current password: %w", err)
	}
	if err := s.verifier.Update(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// BeginLoginResult contains the result of beginning an OIDC login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an OIDC flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("redirect-based sign-in is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing an OIDC login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the authorization code for an identity, provisions
// the profile row on first sign-in, maps groups to a role, and persists a
// session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if s.provider == nil || s.roles == nil {
		return nil, errors.New("redirect-based sign-in is not configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := s.roles.Map(identity.Groups)

	user, err := s.ensureProfile(ctx, identity, role)
	if err != nil {
		return nil, err
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: identity.ExpiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{Session: session}, nil
}

// ensureProfile loads the profile for an SSO identity, creating it on first
// sign-in and refreshing the role when the directory groups changed.
func (s *AuthService) ensureProfile(
	ctx context.Context,
	identity domainauth.Identity,
	role domainauth.Role,
) (*model.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err == nil {
		if user.Role != role {
			updated, updateErr := s.users.Update(ctx, user.Username, model.UpdateUserRequest{Role: &role})
			if updateErr != nil {
				return nil, fmt.Errorf("refresh role: %w", updateErr)
			}
			return updated, nil
		}
		return user, nil
	}
	if !errors.Is(err, data.ErrUserNotFound) {
		return nil, fmt.Errorf("look up profile: %w", err)
	}

	created, createErr := s.users.Create(ctx, data.CreateUserParams{
		ID:       identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
		FullName: identity.FullName,
		Role:     role,
	})
	if createErr != nil {
		return nil, fmt.Errorf("provision profile: %w", createErr)
	}
	return created, nil
}

// GetSession retrieves a session by ID, deleting it when expired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Resolve derives the authorization decision for a request. It is fail-closed:
// every error path, including context cancellation and a session whose profile
// row no longer exists, yields DecisionUnauthenticated. Orphaned sessions are
// destroyed on sight so they cannot be replayed.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) domainauth.Decision {
	if sessionID == "" {
		return domainauth.DecisionUnauthenticated
	}
	if ctx.Err() != nil {
		return domainauth.DecisionUnauthenticated
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domainauth.DecisionUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			// Profile deleted out-of-band: the session is an orphan.
			// Cleanup is best-effort; the decision stands either way.
			_ = s.sessions.Delete(ctx, sessionID)
		}
		return domainauth.DecisionUnauthenticated
	}

	if user.Role.IsAdmin() {
		return domainauth.DecisionAuthenticatedAdmin
	}
	return domainauth.DecisionAuthenticated
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// isCredentialMismatch distinguishes "wrong or missing credential" from
// transport failures.
func isCredentialMismatch(err error) bool {
	return errors.Is(err, ports.ErrInvalidCredentials)
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	id := uuid.New()
	return id.String()
}
