package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/partkeep/partkeep/internal/data/pgxutil"
)

// CredentialRepo stores password hashes for the local identity provider.
// Only opaque hashes cross this boundary; hashing and verification live in
// the provider adapter.
type CredentialRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCredentialRepo creates a new CredentialRepo with real time provider.
func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCredentialRepoWithTimeProvider creates a new CredentialRepo with a custom time provider.
func NewCredentialRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CredentialRepo {
	return &CredentialRepo{DB: db, timeProvider: tp}
}

// Upsert inserts or replaces the password hash for a user.
func (r *CredentialRepo) Upsert(ctx context.Context, userID, passwordHash string) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	if passwordHash == "" {
		return errors.New("password hash is required")
	}

	now := r.timeProvider.Now().UTC()
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO credentials (user_id, password_hash, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET
				password_hash = EXCLUDED.password_hash,
				updated_at = EXCLUDED.created_at`,
			userID, passwordHash, now)
		return err
	}); err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

// GetHash retrieves the stored password hash for a user.
func (r *CredentialRepo) GetHash(ctx context.Context, userID string) (string, error) {
	var hash string
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT password_hash FROM credentials WHERE user_id = $1`,
			userID).Scan(&hash)
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCredentialNotFound
		}
		return "", fmt.Errorf("failed to get credential: %w", err)
	}
	return hash, nil
}

// Delete removes the credential row for a user. Deleting a user cascades
// here, so a missing row is not an error.
func (r *CredentialRepo) Delete(ctx context.Context, userID string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to delete credential: %w", err)
	}
	return deleted, nil
}
