package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

func validCreateUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Username:        "jdoe",
		Email:           "jdoe@example.com",
		FullName:        "Jane Doe",
		Role:            domainauth.RoleDesigner,
		Password:        "changeme123",
		ConfirmPassword: "changeme123",
	}
}

func TestCreateUserRequestValidate(t *testing.T) {
	req := validCreateUserRequest()
	require.NoError(t, req.Validate())

	tests := []struct {
		name   string
		mutate func(*CreateUserRequest)
		errMsg string
	}{
		{"missing username", func(r *CreateUserRequest) { r.Username = "  " }, "username is required"},
		{"username too long", func(r *CreateUserRequest) { r.Username = strings.Repeat("a", 65) }, "username cannot exceed"},
		{"username whitespace", func(r *CreateUserRequest) { r.Username = "j doe" }, "whitespace"},
		{"missing email", func(r *CreateUserRequest) { r.Email = "" }, "email is required"},
		{"bad email", func(r *CreateUserRequest) { r.Email = "not-an-email" }, "not a valid address"},
		{"bad role", func(r *CreateUserRequest) { r.Role = "superuser" }, "role must be one of"},
		{"short password", func(r *CreateUserRequest) { r.Password = "short"; r.ConfirmPassword = "short" }, "at least 8"},
		{"password mismatch", func(r *CreateUserRequest) { r.ConfirmPassword = "different123" }, "do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validCreateUserRequest()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCreateUserRequestValidateTrims(t *testing.T) {
	req := validCreateUserRequest()
	req.Username = "  jdoe  "
	req.Email = " jdoe@example.com "
	require.NoError(t, req.Validate())
	assert.Equal(t, "jdoe", req.Username)
	assert.Equal(t, "jdoe@example.com", req.Email)
}

func TestUpdateUserRequestValidate(t *testing.T) {
	name := "  New Name  "
	role := domainauth.RoleManager
	req := UpdateUserRequest{FullName: &name, Role: &role}
	require.NoError(t, req.Validate())
	assert.Equal(t, "New Name", *req.FullName)

	bad := domainauth.Role("root")
	req = UpdateUserRequest{Role: &bad}
	assert.Error(t, req.Validate())

	// Empty update is allowed; the repo treats it as a read-back.
	assert.NoError(t, (&UpdateUserRequest{}).Validate())
}
