package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider       = (*MockAuthProvider)(nil)
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.RoleMapper         = (*StaticRoleMapper)(nil)
	_ ports.CredentialVerifier = (*MockCredentialVerifier)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			Username:  "mockuser",
			Email:     "mock.user@example.com",
			FullName:  "Mock User",
			Groups:    []string{"designers"},
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	// Generate deterministic state and nonce based on call count
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with a fresh expiration time
	user := m.DefaultUser
	if user.UserID == "" {
		user = domainauth.Identity{
			UserID:   "mock-user-1",
			Username: "mockuser",
			Email:    "mock.user@example.com",
			FullName: "Mock User",
			Groups:   []string{"designers"},
		}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)

	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	sessions map[string]domainauth.Session

	// Optional error injection
	SaveErr   error
	GetErr    error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if id == "" {
		return nil
	}
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are currently stored.
func (m *MemorySessionStore) Len() int { return len(m.sessions) }

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// StaticRoleMapper maps groups by simple string membership rules.
type StaticRoleMapper struct {
	AdminGroup   string
	ManagerGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.ManagerGroup != "" && g == m.ManagerGroup {
			return domainauth.RoleManager
		}
	}
	return domainauth.RoleDesigner
}

// MockCredentialVerifier is an in-memory CredentialVerifier that stores
// passwords directly. For tests only; production hashing lives in localauth.
type MockCredentialVerifier struct {
	passwords map[string]string

	CreateErr error
	VerifyErr error
}

// ErrBadPassword is returned by the mock when verification fails.
var ErrBadPassword = ports.ErrInvalidCredentials

// NewMockCredentialVerifier creates an empty in-memory verifier.
func NewMockCredentialVerifier() *MockCredentialVerifier {
	return &MockCredentialVerifier{passwords: make(map[string]string)}
}

func (m *MockCredentialVerifier) Create(_ context.Context, userID, password string) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.passwords[userID] = password
	return nil
}

func (m *MockCredentialVerifier) Verify(_ context.Context, userID, password string) error {
	if m.VerifyErr != nil {
		return m.VerifyErr
	}
	stored, ok := m.passwords[userID]
	if !ok || stored != password {
		return ErrBadPassword
	}
	return nil
}

func (m *MockCredentialVerifier) Update(_ context.Context, userID, newPassword string) error {
	m.passwords[userID] = newPassword
	return nil
}

func (m *MockCredentialVerifier) Delete(_ context.Context, userID string) error {
	delete(m.passwords, userID)
	return nil
}
