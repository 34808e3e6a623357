package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Profile repository sentinels.
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrCredentialNotFound = errors.New("credential not found")

	// Component repository sentinels.
	ErrComponentNotFound = errors.New("component not found")
	ErrVersionExists     = errors.New("component version already exists")
)
