package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users    UserStore                // Required: profile store
	Verifier ports.CredentialVerifier // Required: identity provider credential surface
	Logger   *slog.Logger             // Optional: structured logger
}

// UserService provides admin-facing account management: the user table, add
// user, edit user, delete user. Self-service signup lives in AuthService.
type UserService struct {
	users    UserStore
	verifier ports.CredentialVerifier
	logger   *slog.Logger
}

// NewUserService constructs a new UserService with validation.
func NewUserService(opts UserServiceOptions) (*UserService, error) {
	if opts.Users == nil {
		return nil, errors.New("UserStore is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("CredentialVerifier is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "user_service")
	}

	return &UserService{
		users:    opts.Users,
		verifier: opts.Verifier,
		logger:   logger,
	}, nil
}

// MustNewUserService constructs a new UserService and panics on error.
func MustNewUserService(opts UserServiceOptions) *UserService {
	svc, err := NewUserService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Create provisions an identity and profile in one flow. The admin picks the
// role; the password is handed straight to the credential verifier.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
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
		if _, delErr := s.users.Delete(ctx, user.Username); delErr != nil {
			return nil, errors.Join(
				fmt.Errorf("store credential: %w", credErr),
				fmt.Errorf("roll back profile: %w", delErr),
			)
		}
		return nil, fmt.Errorf("store credential: %w", credErr)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user created", "username", user.Username, "role", user.Role)
	}

	return user, nil
}

// GetByUsername retrieves a profile by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List retrieves profiles with filtering and pagination.
func (s *UserService) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the number of profiles matching the filters in opts.
func (s *UserService) Count(ctx context.Context, opts model.UsersListOptions) (int, error) {
	count, err := s.users.Count(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Update edits the mutable profile fields (full name and role). Username and
// email never change. When newPassword is non-empty the credential is reset
// through the identity provider.
func (s *UserService) Update(
	ctx context.Context,
	username string,
	req model.UpdateUserRequest,
	newPassword string,
) (*model.User, error) {
	user, err := s.users.Update(ctx, username, req)
	if err != nil {
		return nil, err
	}

	if newPassword != "" {
		if pwErr := model.ValidatePassword(newPassword); pwErr != nil {
			return nil, pwErr
		}
		if credErr := s.verifier.Update(ctx, user.ID, newPassword); credErr != nil {
			return nil, fmt.Errorf("reset credential: %w", credErr)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user updated", "username", user.Username)
	}

	return user, nil
}

// Delete removes a profile and its credential. Credentials cascade in the
// database; the explicit verifier call covers providers with external
// credential storage. Live sessions die on the next guard check.
func (s *UserService) Delete(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("get user: %w", err)
	}

	deleted, err := s.users.Delete(ctx, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return data.ErrUserNotFound
	}

	if credErr := s.verifier.Delete(ctx, user.ID); credErr != nil {
		return fmt.Errorf("delete credential: %w", credErr)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user deleted", "username", username)
	}

	return nil
}
