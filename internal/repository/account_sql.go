package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skinchanger-api/internal/model"
)

// SQLAccountRepository implements AccountRepository over the shared store.
type SQLAccountRepository struct {
	store *Store
}

// NewSQLAccountRepository creates a new account repository.
func NewSQLAccountRepository(store *Store) *SQLAccountRepository {
	return &SQLAccountRepository{store: store}
}

// Create inserts a new account and returns its ID.
func (r *SQLAccountRepository) Create(ctx context.Context, a *model.Account) (int64, error) {
	query := `
		INSERT INTO accounts (username, email, password, is_admin, is_active, license_key)
		VALUES (?, ?, ?, ?, ?, ?)`

	var licenseKey sql.NullString
	if a.LicenseKey != "" {
		licenseKey = sql.NullString{String: a.LicenseKey, Valid: true}
	}

	res, err := r.store.db.ExecContext(ctx, query,
		a.Username, a.Email, a.PasswordHash, a.IsAdmin, a.IsActive, licenseKey)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read account id: %w", err)
	}
	return id, nil
}

const accountColumns = `id, username, email, password, is_admin, is_active, license_key, created_at, last_login`

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	var licenseKey sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.IsAdmin, &a.IsActive, &licenseKey, &a.CreatedAt, &lastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	if licenseKey.Valid {
		a.LicenseKey = licenseKey.String
	}
	if lastLogin.Valid {
		a.LastLogin = &lastLogin.Time
	}
	return &a, nil
}

// GetByID returns the account with the given ID.
func (r *SQLAccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(r.store.db.QueryRowContext(ctx, query, id))
}

// GetByUsername returns the account with the given username.
func (r *SQLAccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = ?`
	return scanAccount(r.store.db.QueryRowContext(ctx, query, username))
}

const accountViewQuery = `
	SELECT a.id, a.username, a.email, a.is_admin, a.is_active, a.license_key,
	       lk.expires_at AS license_expires, a.created_at, a.last_login
	FROM accounts a
	LEFT JOIN license_keys lk ON a.license_key = lk.%s`

// List returns all accounts with license expiry, newest first.
func (r *SQLAccountRepository) List(ctx context.Context) ([]model.AccountView, error) {
	query := fmt.Sprintf(accountViewQuery, r.store.keyColumn()) + ` ORDER BY a.created_at DESC`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	views := []model.AccountView{}
	for rows.Next() {
		v, err := scanAccountView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// View returns the public projection of one account, including license expiry.
func (r *SQLAccountRepository) View(ctx context.Context, id int64) (*model.AccountView, error) {
	query := fmt.Sprintf(accountViewQuery, r.store.keyColumn()) + ` WHERE a.id = ?`

	rows, err := r.store.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanAccountView(rows)
}

func scanAccountView(rows *sql.Rows) (*model.AccountView, error) {
	var v model.AccountView
	var licenseKey sql.NullString
	var licenseExpires, lastLogin sql.NullTime

	err := rows.Scan(&v.ID, &v.Username, &v.Email, &v.IsAdmin, &v.IsActive,
		&licenseKey, &licenseExpires, &v.CreatedAt, &lastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account view: %w", err)
	}

	if licenseKey.Valid {
		v.LicenseKey = licenseKey.String
	}
	if licenseExpires.Valid {
		v.LicenseExpires = &licenseExpires.Time
	}
	if lastLogin.Valid {
		v.LastLogin = &lastLogin.Time
	}
	return &v, nil
}

// UpdateLastLogin stamps the last successful authentication time.
func (r *SQLAccountRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE accounts SET last_login = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.store.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// SetActive toggles the active flag.
func (r *SQLAccountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE accounts SET is_active = ? WHERE id = ?`
	res, err := r.store.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLicenseKey records the license key that activated the account.
func (r *SQLAccountRepository) SetLicenseKey(ctx context.Context, id int64, key string) error {
	query := `UPDATE accounts SET license_key = ? WHERE id = ?`
	res, err := r.store.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to assign license key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account. API tokens and skin configs cascade via
// foreign keys; used_by on license_keys is cleared via ON DELETE SET NULL.
func (r *SQLAccountRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdminExists reports whether any administrator account exists.
func (r *SQLAccountRepository) AdminExists(ctx context.Context) (bool, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE is_admin = 1`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check for admin account: %w", err)
	}
	return count > 0, nil
}

// Ensure SQLAccountRepository implements AccountRepository
var _ AccountRepository = (*SQLAccountRepository)(nil)
