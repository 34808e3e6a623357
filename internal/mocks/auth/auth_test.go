package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	// Second call should increment counters
	authURL2, state2, nonce2, err2 := provider.Begin(ctx, input)
	require.NoError(t, err2)
	assert.Equal(t, "https://mock-idp/auth", authURL2)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Begin_CustomValues(t *testing.T) {
	provider := &MockAuthProvider{
		AuthURL:     "https://custom-idp/login",
		StatePrefix: "custom-state",
		NoncePrefix: "custom-nonce",
	}
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://custom-idp/login", authURL)
	assert.Equal(t, "custom-state-1", state)
	assert.Equal(t, "custom-nonce-1", nonce)
}

func TestMockAuthProvider_Begin_CustomFunc(t *testing.T) {
	provider := &MockAuthProvider{
		BeginFunc: func(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
			return "custom-url", "custom-state", "custom-nonce", nil
		},
	}
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "custom-url", authURL)
	assert.Equal(t, "custom-state", state)
	assert.Equal(t, "custom-nonce", nonce)
}

func TestMockAuthProvider_Exchange_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.ExchangeInput{
		Code:  "auth-code",
		State: "state-1",
		Nonce: "nonce-1",
	}
	identity, err := provider.Exchange(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", identity.UserID)
	assert.Equal(t, "mockuser", identity.Username)
	assert.Equal(t, "Mock User", identity.FullName)
	assert.Equal(t, "mock.user@example.com", identity.Email)
	assert.Equal(t, []string{"designers"}, identity.Groups)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockAuthProvider_Exchange_CustomUser(t *testing.T) {
	customUser := domainauth.Identity{
		UserID:   "custom-user",
		Username: "custom",
		FullName: "Custom Person",
		Email:    "custom@example.com",
		Groups:   []string{"cad-admins", "designers"},
	}
	provider := &MockAuthProvider{DefaultUser: customUser}
	ctx := context.Background()

	input := ports.ExchangeInput{
		Code:  "auth-code",
		State: "state-1",
		Nonce: "nonce-1",
	}
	identity, err := provider.Exchange(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "custom-user", identity.UserID)
	assert.Equal(t, "custom", identity.Username)
	assert.Equal(t, "Custom Person", identity.FullName)
	assert.Equal(t, "custom@example.com", identity.Email)
	assert.Equal(t, []string{"cad-admins", "designers"}, identity.Groups)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockAuthProvider_Exchange_CustomFunc(t *testing.T) {
	provider := &MockAuthProvider{
		ExchangeFunc: func(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{
				UserID: "func-user",
				Email:  "func@example.com",
			}, nil
		},
	}
	ctx := context.Background()

	input := ports.ExchangeInput{
		Code:  "auth-code",
		State: "state-1",
		Nonce: "nonce-1",
	}
	identity, err := provider.Exchange(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "func-user", identity.UserID)
	assert.Equal(t, "func@example.com", identity.Email)
}

func TestStaticRoleMapper_AdminRole(t *testing.T) {
	mapper := StaticRoleMapper{
		AdminGroup:   "cad-admins",
		ManagerGroup: "cad-managers",
	}

	role := mapper.Map([]string{"cad-admins", "cad-managers"})
	assert.Equal(t, domainauth.RoleAdmin, role)

	role = mapper.Map([]string{"cad-admins"})
	assert.Equal(t, domainauth.RoleAdmin, role)
}

func TestStaticRoleMapper_ManagerRole(t *testing.T) {
	mapper := StaticRoleMapper{
		AdminGroup:   "cad-admins",
		ManagerGroup: "cad-managers",
	}

	role := mapper.Map([]string{"cad-managers"})
	assert.Equal(t, domainauth.RoleManager, role)

	role = mapper.Map([]string{"cad-managers", "other"})
	assert.Equal(t, domainauth.RoleManager, role)
}

func TestStaticRoleMapper_DesignerFallback(t *testing.T) {
	mapper := StaticRoleMapper{
		AdminGroup:   "cad-admins",
		ManagerGroup: "cad-managers",
	}

	role := mapper.Map([]string{"other", "groups"})
	assert.Equal(t, domainauth.RoleDesigner, role)

	role = mapper.Map([]string{})
	assert.Equal(t, domainauth.RoleDesigner, role)

	role = mapper.Map(nil)
	assert.Equal(t, domainauth.RoleDesigner, role)
}

func TestStaticRoleMapper_EmptyConfig(t *testing.T) {
	mapper := StaticRoleMapper{}

	role := mapper.Map([]string{"cad-admins", "cad-managers"})
	assert.Equal(t, domainauth.RoleDesigner, role)
}

func TestMemorySessionStore_SaveAndGet(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "test-session-1",
		UserID:    "user-123",
		Username:  "jdoe",
		Email:     "user@example.com",
		Role:      domainauth.RoleDesigner,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.NoError(t, err)

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.Username, retrieved.Username)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.Role, retrieved.Role)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestMemorySessionStore_GetNonExistent(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_GetEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_SaveEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "",
		UserID:    "user-123",
		Email:     "user@example.com",
		Role:      domainauth.RoleDesigner,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestMemorySessionStore_Delete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "test-session-1",
		UserID:    "user-123",
		Email:     "user@example.com",
		Role:      domainauth.RoleDesigner,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.NoError(t, err)

	err = store.Delete(ctx, "test-session-1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "test-session-1")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_DeleteEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	err := store.Delete(ctx, "")
	assert.NoError(t, err)
}

func TestMockCredentialVerifier_RoundTrip(t *testing.T) {
	v := NewMockCredentialVerifier()
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "user-1", "pw"))
	assert.NoError(t, v.Verify(ctx, "user-1", "pw"))
	assert.ErrorIs(t, v.Verify(ctx, "user-1", "wrong"), ErrBadPassword)
	assert.ErrorIs(t, v.Verify(ctx, "missing", "pw"), ErrBadPassword)

	require.NoError(t, v.Update(ctx, "user-1", "pw2"))
	assert.NoError(t, v.Verify(ctx, "user-1", "pw2"))

	require.NoError(t, v.Delete(ctx, "user-1"))
	assert.ErrorIs(t, v.Verify(ctx, "user-1", "pw2"), ErrBadPassword)
}
