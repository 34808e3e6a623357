package localauth

// Package localauth implements password credential handling for form-based
// sign-in. Raw passwords enter here, are hashed with bcrypt, and only opaque
// hashes reach storage.

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/ports"
)

// ErrInvalidCredentials is returned for any verification failure, whether the
// credential is missing or the password mismatches. Callers must not be able
// to distinguish the two.
var ErrInvalidCredentials = ports.ErrInvalidCredentials

// CredentialStore is the persistence surface the verifier needs.
type CredentialStore interface {
	Upsert(ctx context.Context, userID, passwordHash string) error
	GetHash(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// Verifier implements ports.CredentialVerifier backed by bcrypt hashes.
type Verifier struct {
	store CredentialStore
	cost  int
}

// NewVerifier creates a Verifier with the default bcrypt cost.
func NewVerifier(store CredentialStore) *Verifier {
	return &Verifier{store: store, cost: bcrypt.DefaultCost}
}

// NewVerifierWithCost creates a Verifier with an explicit bcrypt cost.
// Lower costs are useful in tests.
func NewVerifierWithCost(store CredentialStore, cost int) *Verifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{store: store, cost: cost}
}

func (v *Verifier) Create(ctx context.Context, userID, password string) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := v.store.Upsert(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (v *Verifier) Verify(ctx context.Context, userID, password string) error {
	hash, err := v.store.GetHash(ctx, userID)
	if err != nil {
		if errors.Is(err, data.ErrCredentialNotFound) {
			// Burn a comparison so missing and wrong credentials take
			// comparable time.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return ErrInvalidCredentials
		}
		return fmt.Errorf("load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (v *Verifier) Update(ctx context.Context, userID, newPassword string) error {
	return v.Create(ctx, userID, newPassword)
}

func (v *Verifier) Delete(ctx context.Context, userID string) error {
	if _, err := v.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// dummyHash is a valid bcrypt hash of an unguessable string, used to equalize
// timing when no credential exists.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("partkeep-timing-pad"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
