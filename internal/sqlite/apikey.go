package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/nowloop/internal/repository"
)

// APIKeyRepository maps bearer tokens to client ids. Tokens are never stored
// in clear.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// AddKey registers token for clientID. Re-adding a token rebinds it.
func (r *APIKeyRepository) AddKey(ctx context.Context, token, clientID, description string) error {
	if token == "" || clientID == "" {
		return fmt.Errorf("failed to add api key: empty token or client")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, client_id, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key_hash) DO UPDATE SET client_id = excluded.client_id, description = excluded.description
	`, hashToken(token), clientID, description, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolveClient returns the client a token belongs to and stamps its last use.
func (r *APIKeyRepository) ResolveClient(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var clientID string
	err := r.db.QueryRowContext(ctx, `SELECT client_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?`, time.Now(), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return clientID, nil
}

// RevokeKey deletes a token.
func (r *APIKeyRepository) RevokeKey(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE key_hash = ?`, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
