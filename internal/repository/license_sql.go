package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinchanger-api/internal/model"
)

// SQLLicenseRepository implements LicenseRepository over the shared store.
type SQLLicenseRepository struct {
	store *Store
}

// NewSQLLicenseRepository creates a new license key repository.
func NewSQLLicenseRepository(store *Store) *SQLLicenseRepository {
	return &SQLLicenseRepository{store: store}
}

// CreateBatch inserts the given keys in a single transaction.
func (r *SQLLicenseRepository) CreateBatch(ctx context.Context, keys []model.LicenseKey) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`INSERT INTO license_keys (%s, expires_at, notes) VALUES (?, ?, ?)`,
		r.store.keyColumn())

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		var expires sql.NullTime
		if k.ExpiresAt != nil {
			expires = sql.NullTime{Time: *k.ExpiresAt, Valid: true}
		}
		var notes sql.NullString
		if k.Notes != "" {
			notes = sql.NullString{String: k.Notes, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, k.Key, expires, notes); err != nil {
			return fmt.Errorf("failed to insert license key %s: %w", k.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByKey returns the license key row.
func (r *SQLLicenseRepository) GetByKey(ctx context.Context, key string) (*model.LicenseKey, error) {
	query := fmt.Sprintf(`
		SELECT id, %s, is_used, used_by, created_at, used_at, expires_at, notes
		FROM license_keys WHERE %s = ?`,
		r.store.keyColumn(), r.store.keyColumn())

	var k model.LicenseKey
	var usedBy sql.NullInt64
	var usedAt, expiresAt sql.NullTime
	var notes sql.NullString

	err := r.store.db.QueryRowContext(ctx, query, key).Scan(
		&k.ID, &k.Key, &k.IsUsed, &usedBy, &k.CreatedAt, &usedAt, &expiresAt, &notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get license key: %w", err)
	}

	if usedBy.Valid {
		k.UsedBy = &usedBy.Int64
	}
	if usedAt.Valid {
		k.UsedAt = &usedAt.Time
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	if notes.Valid {
		k.Notes = notes.String
	}
	return &k, nil
}

// List returns all license keys with consuming usernames, newest first.
func (r *SQLLicenseRepository) List(ctx context.Context) ([]model.LicenseKeyView, error) {
	query := fmt.Sprintf(`
		SELECT lk.id, lk.%s, lk.is_used, lk.used_by, lk.created_at, lk.used_at,
		       lk.expires_at, lk.notes, a.username
		FROM license_keys lk
		LEFT JOIN accounts a ON lk.used_by = a.id
		ORDER BY lk.created_at DESC`,
		r.store.keyColumn())

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list license keys: %w", err)
	}
	defer rows.Close()

	views := []model.LicenseKeyView{}
	for rows.Next() {
		var v model.LicenseKeyView
		var usedBy sql.NullInt64
		var usedAt, expiresAt sql.NullTime
		var notes, username sql.NullString

		err := rows.Scan(&v.ID, &v.Key, &v.IsUsed, &usedBy, &v.CreatedAt,
			&usedAt, &expiresAt, &notes, &username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license key: %w", err)
		}

		if usedBy.Valid {
			v.UsedBy = &usedBy.Int64
		}
		if usedAt.Valid {
			v.UsedAt = &usedAt.Time
		}
		if expiresAt.Valid {
			v.ExpiresAt = &expiresAt.Time
		}
		if notes.Valid {
			v.Notes = notes.String
		}
		if username.Valid {
			v.UsedByUsername = username.String
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Consume atomically marks an unused, unexpired key as used by the given
// account. The conditional update is the only write - two racing consumers
// resolve to exactly one winner.
func (r *SQLLicenseRepository) Consume(ctx context.Context, key string, accountID int64, now time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE license_keys
		SET is_used = 1, used_by = ?, used_at = CURRENT_TIMESTAMP
		WHERE %s = ? AND is_used = 0 AND (expires_at IS NULL OR expires_at > ?)`,
		r.store.keyColumn())

	res, err := r.store.db.ExecContext(ctx, query, accountID, key, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume license key: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Delete removes an unused key. The delete is conditional on is_used = 0 so
// it cannot race a concurrent consumption.
func (r *SQLLicenseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM license_keys WHERE id = ? AND is_used = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license key: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Distinguish a consumed key from a missing one.
	var used bool
	err = r.store.db.QueryRowContext(ctx,
		`SELECT is_used FROM license_keys WHERE id = ?`, id).Scan(&used)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check license key: %w", err)
	}
	if used {
		return ErrLicenseInUse
	}
	return ErrNotFound
}

// Ensure SQLLicenseRepository implements LicenseRepository
var _ LicenseRepository = (*SQLLicenseRepository)(nil)
