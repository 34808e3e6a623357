package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "component not found",
			},
			want: "component not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to save profile",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to save profile: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("driver failure")
	appErr := &AppError{Code: ErrCodeInternal, Message: "save failed", Cause: cause}

	if !errors.Is(appErr, cause) {
		t.Errorf("errors.Is should find the wrapped cause")
	}
	if (&AppError{Code: ErrCodeNotFound, Message: "x"}).Unwrap() != nil {
		t.Errorf("Unwrap without cause should return nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
	}{
		{"not found", NotFound("no such part"), ErrCodeNotFound},
		{"conflict", Conflict("part number taken"), ErrCodeConflict},
		{"validation", Validation("bad input"), ErrCodeValidation},
		{"internal", Internal("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("username", "Username is required.")
	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeValidation)
	}
	if err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(error) bool
		err  error
		want bool
	}{
		{"IsNotFound match", IsNotFound, NotFound("x"), true},
		{"IsNotFound mismatch", IsNotFound, Conflict("x"), false},
		{"IsConflict match", IsConflict, Conflict("x"), true},
		{"IsValidation match", IsValidation, Validation("x"), true},
		{"IsForeignKey match", IsForeignKey, &AppError{Code: ErrCodeForeignKey, Message: "x"}, true},
		{"IsTimeout match", IsTimeout, &AppError{Code: ErrCodeTimeout, Message: "x"}, true},
		{"IsCanceled match", IsCanceled, &AppError{Code: ErrCodeCanceled, Message: "x"}, true},
		{"plain error", IsNotFound, errors.New("plain"), false},
		{"nil error", IsConflict, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicates_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("create user: %w", Conflict("username taken"))
	if !IsConflict(wrapped) {
		t.Errorf("IsConflict should see through fmt.Errorf wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(NotFound("x")); got != ErrCodeNotFound {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeNotFound)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("email", "bad")); got != "email" {
		t.Errorf("GetField = %q, want %q", got, "email")
	}
	if got := GetField(Validation("bad")); got != "" {
		t.Errorf("GetField without field = %q, want empty", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField on plain error = %q, want empty", got)
	}
}
