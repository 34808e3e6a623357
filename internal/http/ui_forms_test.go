package httpx

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

func validUserCreateValues() url.Values {
	return url.Values{
		"username":         {"jdoe"},
		"email":            {"jdoe@example.com"},
		"full_name":        {"Jane Doe"},
		"role":             {"designer"},
		"password":         {"hunter2hunter2"},
		"confirm_password": {"hunter2hunter2"},
	}
}

func TestParseUserCreateForm_Valid(t *testing.T) {
	req, fieldErrors := parseUserCreateForm(formPost(validUserCreateValues()))

	require.Empty(t, fieldErrors)
	assert.Equal(t, "jdoe", req.Username)
	assert.Equal(t, domainauth.RoleDesigner, req.Role)
}

func TestParseUserCreateForm_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		field   string
		message string
	}{
		{
			name:    "missing username",
			mutate:  func(v url.Values) { v.Set("username", "  ") },
			field:   "username",
			message: "Username is required.",
		},
		{
			name:    "username too long",
			mutate:  func(v url.Values) { v.Set("username", strings.Repeat("a", 65)) },
			field:   "username",
			message: "Username cannot exceed 64 characters.",
		},
		{
			name:    "missing email",
			mutate:  func(v url.Values) { v.Set("email", "") },
			field:   "email",
			message: "Email is required.",
		},
		{
			name:    "full name too long",
			mutate:  func(v url.Values) { v.Set("full_name", strings.Repeat("x", 256)) },
			field:   "full_name",
			message: "Full name cannot exceed 255 characters.",
		},
		{
			name: "password too short",
			mutate: func(v url.Values) {
				v.Set("password", "short")
				v.Set("confirm_password", "short")
			},
			field:   "password",
			message: "Password must be between 8 and 255 characters.",
		},
		{
			name:    "unknown role",
			mutate:  func(v url.Values) { v.Set("role", "superuser") },
			field:   "role",
			message: "Choose a valid role.",
		},
		{
			name:    "password mismatch",
			mutate:  func(v url.Values) { v.Set("confirm_password", "different1") },
			field:   "confirm_password",
			message: "Passwords do not match.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validUserCreateValues()
			tt.mutate(values)

			_, fieldErrors := parseUserCreateForm(formPost(values))

			require.NotEmpty(t, fieldErrors)
			assert.Equal(t, tt.message, fieldErrors[tt.field])
		})
	}
}

func TestParseUserEditForm_PasswordOptional(t *testing.T) {
	values := url.Values{
		"full_name": {"Jane Doe"},
		"role":      {"manager"},
	}
	form, fieldErrors := parseUserEditForm(formPost(values))

	require.Empty(t, fieldErrors)
	assert.Equal(t, domainauth.RoleManager, form.Role)
	assert.Empty(t, form.Password)
}

func TestParseUserEditForm_ShortPasswordRejected(t *testing.T) {
	values := url.Values{
		"full_name":        {"Jane Doe"},
		"role":             {"manager"},
		"password":         {"short"},
		"confirm_password": {"short"},
	}
	_, fieldErrors := parseUserEditForm(formPost(values))

	assert.Equal(t, "Password must be between 8 and 255 characters.", fieldErrors["password"])
}

func validComponentValues() url.Values {
	return url.Values{
		"part_number":    {"PK-1001"},
		"part_name":      {"Mounting Bracket"},
		"version_number": {"A.1"},
		"status":         {"draft"},
	}
}

func TestParseComponentForm_Valid(t *testing.T) {
	req, fieldErrors := parseComponentForm(formPost(validComponentValues()))

	require.Empty(t, fieldErrors)
	assert.Equal(t, "PK-1001", req.PartNumber)
	assert.Equal(t, "A.1", req.VersionNumber)
}

func TestParseComponentForm_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		field   string
		message string
	}{
		{
			name:    "missing part number",
			mutate:  func(v url.Values) { v.Set("part_number", "") },
			field:   "part_number",
			message: "Part number is required.",
		},
		{
			name:    "part number bad format",
			mutate:  func(v url.Values) { v.Set("part_number", "-PK 1001") },
			field:   "part_number",
			message: "Part number has an invalid format.",
		},
		{
			name:    "missing part name",
			mutate:  func(v url.Values) { v.Set("part_name", "") },
			field:   "part_name",
			message: "Part name is required.",
		},
		{
			name:    "missing version",
			mutate:  func(v url.Values) { v.Set("version_number", "") },
			field:   "version_number",
			message: "Version is required.",
		},
		{
			name:    "description too long",
			mutate:  func(v url.Values) { v.Set("description", strings.Repeat("d", 2001)) },
			field:   "description",
			message: "Description cannot exceed 2000 characters.",
		},
		{
			name:    "unknown status",
			mutate:  func(v url.Values) { v.Set("status", "archived") },
			field:   "status",
			message: "Choose a valid status.",
		},
		{
			name:    "non-numeric cost",
			mutate:  func(v url.Values) { v.Set("cost", "abc") },
			field:   "cost",
			message: "Cost must be a number.",
		},
		{
			name:    "negative cost",
			mutate:  func(v url.Values) { v.Set("cost", "-4.50") },
			field:   "cost",
			message: "Cost cannot be negative.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validComponentValues()
			tt.mutate(values)

			_, fieldErrors := parseComponentForm(formPost(values))

			require.NotEmpty(t, fieldErrors)
			assert.Equal(t, tt.message, fieldErrors[tt.field])
		})
	}
}
