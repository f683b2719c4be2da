package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skinchanger-api/internal/model"
)

// SQLSkinConfigRepository implements SkinConfigRepository over the shared store.
type SQLSkinConfigRepository struct {
	store *Store
}

// NewSQLSkinConfigRepository creates a new skin configuration repository.
func NewSQLSkinConfigRepository(store *Store) *SQLSkinConfigRepository {
	return &SQLSkinConfigRepository{store: store}
}

const skinConfigColumns = `id, account_id, weapon_category, weapon_name, weapon_id,
	skin_name, paint_kit, wear, created_at, updated_at`

func scanSkinConfig(scan func(dest ...any) error) (*model.SkinConfig, error) {
	var c model.SkinConfig
	var wear sql.NullFloat64

	err := scan(&c.ID, &c.AccountID, &c.WeaponCategory, &c.WeaponName, &c.WeaponID,
		&c.SkinName, &c.PaintKit, &wear, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if wear.Valid {
		c.Wear = &wear.Float64
	}
	return &c, nil
}

// ListByAccount returns the account's configs, most recently updated first.
func (r *SQLSkinConfigRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.SkinConfig, error) {
	query := `SELECT ` + skinConfigColumns + `
		FROM skin_configs WHERE account_id = ? ORDER BY updated_at DESC`

	rows, err := r.store.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skin configs: %w", err)
	}
	defer rows.Close()

	configs := []model.SkinConfig{}
	for rows.Next() {
		c, err := scanSkinConfig(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skin config: %w", err)
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

// GetByID returns the config only if it belongs to the account. An unowned
// row is indistinguishable from a missing one.
func (r *SQLSkinConfigRepository) GetByID(ctx context.Context, id, accountID int64) (*model.SkinConfig, error) {
	query := `SELECT ` + skinConfigColumns + `
		FROM skin_configs WHERE id = ? AND account_id = ?`

	c, err := scanSkinConfig(r.store.db.QueryRowContext(ctx, query, id, accountID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get skin config: %w", err)
	}
	return c, nil
}

// GetByWeapon returns the account's config for the weapon.
func (r *SQLSkinConfigRepository) GetByWeapon(ctx context.Context, accountID int64, weaponID int) (*model.SkinConfig, error) {
	query := `SELECT ` + skinConfigColumns + `
		FROM skin_configs WHERE account_id = ? AND weapon_id = ?`

	c, err := scanSkinConfig(r.store.db.QueryRowContext(ctx, query, accountID, weaponID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get skin config: %w", err)
	}
	return c, nil
}

// Insert creates a new config row and returns its ID.
func (r *SQLSkinConfigRepository) Insert(ctx context.Context, c *model.SkinConfig) (int64, error) {
	query := `
		INSERT INTO skin_configs (account_id, weapon_category, weapon_name, weapon_id, skin_name, paint_kit, wear)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var wear sql.NullFloat64
	if c.Wear != nil {
		wear = sql.NullFloat64{Float64: *c.Wear, Valid: true}
	}

	res, err := r.store.db.ExecContext(ctx, query,
		c.AccountID, c.WeaponCategory, c.WeaponName, c.WeaponID, c.SkinName, c.PaintKit, wear)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to create skin config: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read skin config id: %w", err)
	}
	return id, nil
}

// Update rewrites the mutable fields of an existing row, scoped to the owner.
func (r *SQLSkinConfigRepository) Update(ctx context.Context, c *model.SkinConfig) error {
	query := `
		UPDATE skin_configs
		SET weapon_category = ?, weapon_name = ?, skin_name = ?, paint_kit = ?, wear = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND account_id = ?`

	var wear sql.NullFloat64
	if c.Wear != nil {
		wear = sql.NullFloat64{Float64: *c.Wear, Valid: true}
	}

	res, err := r.store.db.ExecContext(ctx, query,
		c.WeaponCategory, c.WeaponName, c.SkinName, c.PaintKit, wear, c.ID, c.AccountID)
	if err != nil {
		return fmt.Errorf("failed to update skin config: %w", err)
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

// Delete removes the config only if it belongs to the account.
func (r *SQLSkinConfigRepository) Delete(ctx context.Context, id, accountID int64) error {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM skin_configs WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete skin config: %w", err)
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

// DeleteAll removes every config owned by the account and returns the count.
func (r *SQLSkinConfigRepository) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM skin_configs WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete skin configs: %w", err)
	}
	return res.RowsAffected()
}

// Ensure SQLSkinConfigRepository implements SkinConfigRepository
var _ SkinConfigRepository = (*SQLSkinConfigRepository)(nil)
