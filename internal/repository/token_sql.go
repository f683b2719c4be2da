package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinchanger-api/internal/model"
)

// SQLTokenRepository implements TokenRepository over the shared store.
type SQLTokenRepository struct {
	store *Store
}

// NewSQLTokenRepository creates a new API token repository.
func NewSQLTokenRepository(store *Store) *SQLTokenRepository {
	return &SQLTokenRepository{store: store}
}

// Create persists a freshly minted API token and returns its ID.
func (r *SQLTokenRepository) Create(ctx context.Context, t *model.APIToken) (int64, error) {
	query := `INSERT INTO api_tokens (account_id, token, expires_at) VALUES (?, ?, ?)`

	var expires sql.NullTime
	if t.ExpiresAt != nil {
		expires = sql.NullTime{Time: *t.ExpiresAt, Valid: true}
	}

	res, err := r.store.db.ExecContext(ctx, query, t.AccountID, t.Token, expires)
	if err != nil {
		return 0, fmt.Errorf("failed to create api token: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read api token id: %w", err)
	}
	return id, nil
}

// ListByAccount returns all API tokens owned by the account, newest first.
func (r *SQLTokenRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.APIToken, error) {
	query := `
		SELECT id, account_id, token, created_at, expires_at, last_used
		FROM api_tokens WHERE account_id = ? ORDER BY created_at DESC`

	rows, err := r.store.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	defer rows.Close()

	tokens := []model.APIToken{}
	for rows.Next() {
		var t model.APIToken
		var expires, lastUsed sql.NullTime

		if err := rows.Scan(&t.ID, &t.AccountID, &t.Token, &t.CreatedAt, &expires, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan api token: %w", err)
		}
		if expires.Valid {
			t.ExpiresAt = &expires.Time
		}
		if lastUsed.Valid {
			t.LastUsed = &lastUsed.Time
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// TouchLastUsed stamps the last-used time of the token row. A missing row
// is not an error; the token may predate persistence.
func (r *SQLTokenRepository) TouchLastUsed(ctx context.Context, token string) error {
	query := `UPDATE api_tokens SET last_used = CURRENT_TIMESTAMP WHERE token = ?`
	if _, err := r.store.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

// DeleteExpired removes token rows whose expiry has passed.
func (r *SQLTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}

// Ensure SQLTokenRepository implements TokenRepository
var _ TokenRepository = (*SQLTokenRepository)(nil)
