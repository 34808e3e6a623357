package localauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/partkeep/partkeep/internal/data"
)

type memoryCredentialStore struct {
	hashes map[string]string
	err    error
}

func newMemoryCredentialStore() *memoryCredentialStore {
	return &memoryCredentialStore{hashes: make(map[string]string)}
}

func (s *memoryCredentialStore) Upsert(_ context.Context, userID, passwordHash string) error {
	if s.err != nil {
		return s.err
	}
	s.hashes[userID] = passwordHash
	return nil
}

func (s *memoryCredentialStore) GetHash(_ context.Context, userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	h, ok := s.hashes[userID]
	if !ok {
		return "", data.ErrCredentialNotFound
	}
	return h, nil
}

func (s *memoryCredentialStore) Delete(_ context.Context, userID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.hashes[userID]
	delete(s.hashes, userID)
	return ok, nil
}

func TestVerifier_CreateAndVerify(t *testing.T) {
	store := newMemoryCredentialStore()
	v := NewVerifierWithCost(store, bcrypt.MinCost)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "user-1", "correct horse battery"))

	// Stored value is a hash, never the raw password
	assert.NotEqual(t, "correct horse battery", store.hashes["user-1"])
	assert.NotEmpty(t, store.hashes["user-1"])

	assert.NoError(t, v.Verify(ctx, "user-1", "correct horse battery"))
	assert.ErrorIs(t, v.Verify(ctx, "user-1", "wrong password"), ErrInvalidCredentials)
}

func TestVerifier_VerifyMissingCredential(t *testing.T) {
	v := NewVerifierWithCost(newMemoryCredentialStore(), bcrypt.MinCost)

	err := v.Verify(context.Background(), "no-such-user", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifier_MissingAndWrongAreIndistinguishable(t *testing.T) {
	store := newMemoryCredentialStore()
	v := NewVerifierWithCost(store, bcrypt.MinCost)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "user-1", "pw"))

	wrongErr := v.Verify(ctx, "user-1", "nope")
	missingErr := v.Verify(ctx, "user-2", "nope")
	assert.Equal(t, wrongErr, missingErr)
}

func TestVerifier_Update(t *testing.T) {
	store := newMemoryCredentialStore()
	v := NewVerifierWithCost(store, bcrypt.MinCost)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "user-1", "old password"))
	require.NoError(t, v.Update(ctx, "user-1", "new password"))

	assert.ErrorIs(t, v.Verify(ctx, "user-1", "old password"), ErrInvalidCredentials)
	assert.NoError(t, v.Verify(ctx, "user-1", "new password"))
}

func TestVerifier_Delete(t *testing.T) {
	store := newMemoryCredentialStore()
	v := NewVerifierWithCost(store, bcrypt.MinCost)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "user-1", "pw"))
	require.NoError(t, v.Delete(ctx, "user-1"))
	assert.ErrorIs(t, v.Verify(ctx, "user-1", "pw"), ErrInvalidCredentials)

	// Deleting a missing credential is not an error
	require.NoError(t, v.Delete(ctx, "user-1"))
}

func TestVerifier_StoreErrorSurfaces(t *testing.T) {
	store := newMemoryCredentialStore()
	store.err = errors.New("connection refused")
	v := NewVerifierWithCost(store, bcrypt.MinCost)

	err := v.Verify(context.Background(), "user-1", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifier_CreateRequiresUserID(t *testing.T) {
	v := NewVerifierWithCost(newMemoryCredentialStore(), bcrypt.MinCost)
	assert.Error(t, v.Create(context.Background(), "", "pw"))
}
