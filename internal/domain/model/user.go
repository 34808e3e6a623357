//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

const (
	maxUsernameLen = 64
	maxFullNameLen = 255
	minPasswordLen = 8
)

// User represents an application user profile. Exactly one row exists per
// signed-up identity; Role is the sole authorization signal consulted by
// route guards.
type User struct {
	ID        string          `json:"id"         db:"id"`
	Username  string          `json:"username"   db:"username"`
	Email     string          `json:"email"      db:"email"`
	FullName  string          `json:"full_name"  db:"full_name"`
	Role      domainauth.Role `json:"role"       db:"role"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// UsersListOptions controls paging and filtering for listing users.
// Notes:
// - Sort supports: "username", "created_at" (case-insensitive).
// - Dir supports: "asc", "desc" (case-insensitive); values are normalized internally.
// - Q matches username, email, or full_name via ILIKE substring.
// - Role matches exactly.
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string
	Role   *domainauth.Role
	Sort   string
	Dir    string
}

// CreateUserRequest represents parameters to create a user profile paired
// with a new identity. Password material is handed to the identity provider
// and never stored alongside the profile.
type CreateUserRequest struct {
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	Role            domainauth.Role `json:"role"`
	Password        string          `json:"-"`
	ConfirmPassword string          `json:"-"`
}

// UpdateUserRequest represents parameters to update a user profile.
// Username and email are immutable once created.
type UpdateUserRequest struct {
	FullName *string          `json:"full_name,omitempty"`
	Role     *domainauth.Role `json:"role,omitempty"`
}

// Validate validates CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)

	if r.Username == "" {
		return errors.New("username is required")
	}
	if utf8.RuneCountInString(r.Username) > maxUsernameLen {
		return errors.New("username cannot exceed 64 characters")
	}
	if strings.ContainsAny(r.Username, " \t\n") {
		return errors.New("username cannot contain whitespace")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.FullName) > maxFullNameLen {
		return errors.New("full name cannot exceed 255 characters")
	}
	if !r.Role.Valid() {
		return errors.New("role must be one of admin, manager, designer")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return errors.New("passwords do not match")
	}
	return nil
}

// Validate validates UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if r.FullName != nil {
		trimmed := strings.TrimSpace(*r.FullName)
		if utf8.RuneCountInString(trimmed) > maxFullNameLen {
			return errors.New("full name cannot exceed 255 characters")
		}
		r.FullName = &trimmed
	}
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be one of admin, manager, designer")
	}
	return nil
}

// ValidatePassword enforces the minimum credential policy shared by signup
// and password-change flows.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is not a valid address")
	}
	return nil
}
