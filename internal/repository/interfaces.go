package repository

import (
	"context"
	"errors"
	"time"

	"skinchanger-api/internal/model"
)

// Common repository errors.
var (
	// ErrNotFound indicates the row does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate")

	// ErrLicenseInUse indicates a consumed license key cannot be deleted.
	ErrLicenseInUse = errors.New("license key in use")
)

// AccountRepository defines account data access methods.
type AccountRepository interface {
	// Create inserts a new account and returns its ID.
	// Returns ErrDuplicate if the username or email is already taken.
	Create(ctx context.Context, a *model.Account) (int64, error)

	// GetByID returns the account with the given ID or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Account, error)

	// GetByUsername returns the account with the given username or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*model.Account, error)

	// List returns all accounts with license expiry, newest first.
	List(ctx context.Context) ([]model.AccountView, error)

	// View returns the public projection of one account, including
	// license expiry, or ErrNotFound.
	View(ctx context.Context, id int64) (*model.AccountView, error)

	// UpdateLastLogin stamps the last successful authentication time.
	UpdateLastLogin(ctx context.Context, id int64) error

	// SetActive toggles the active flag. Returns ErrNotFound if no such account.
	SetActive(ctx context.Context, id int64, active bool) error

	// SetLicenseKey records the license key that activated the account.
	SetLicenseKey(ctx context.Context, id int64, key string) error

	// Delete removes the account. Owned API tokens and skin configs cascade;
	// the back-reference on any consumed license key is cleared.
	// Returns ErrNotFound if no such account.
	Delete(ctx context.Context, id int64) error

	// AdminExists reports whether any administrator account exists.
	AdminExists(ctx context.Context) (bool, error)
}

// LicenseRepository defines license key data access methods.
type LicenseRepository interface {
	// CreateBatch inserts the given keys in a single transaction.
	CreateBatch(ctx context.Context, keys []model.LicenseKey) error

	// GetByKey returns the license key row or ErrNotFound.
	GetByKey(ctx context.Context, key string) (*model.LicenseKey, error)

	// List returns all license keys with consuming usernames, newest first.
	List(ctx context.Context) ([]model.LicenseKeyView, error)

	// Consume atomically marks an unused, unexpired key as used by the given
	// account. Returns false when the key was missing, already used or
	// expired - first writer wins, no read-modify-write gap.
	Consume(ctx context.Context, key string, accountID int64, now time.Time) (bool, error)

	// Delete removes an unused key. Returns ErrLicenseInUse if the key has
	// been consumed, ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// TokenRepository defines API token data access methods.
type TokenRepository interface {
	// Create persists a freshly minted API token and returns its ID.
	Create(ctx context.Context, t *model.APIToken) (int64, error)

	// ListByAccount returns all API tokens owned by the account, newest first.
	ListByAccount(ctx context.Context, accountID int64) ([]model.APIToken, error)

	// TouchLastUsed stamps the last-used time of the token row, if present.
	TouchLastUsed(ctx context.Context, token string) error

	// DeleteExpired removes token rows whose expiry has passed and returns
	// the number removed. Expired tokens already fail signature-window
	// verification; the rows are audit residue.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SkinConfigRepository defines skin configuration data access methods.
type SkinConfigRepository interface {
	// ListByAccount returns the account's configs, most recently updated first.
	ListByAccount(ctx context.Context, accountID int64) ([]model.SkinConfig, error)

	// GetByID returns the config only if it belongs to the account,
	// otherwise ErrNotFound.
	GetByID(ctx context.Context, id, accountID int64) (*model.SkinConfig, error)

	// GetByWeapon returns the account's config for the weapon or ErrNotFound.
	GetByWeapon(ctx context.Context, accountID int64, weaponID int) (*model.SkinConfig, error)

	// Insert creates a new config row and returns its ID.
	Insert(ctx context.Context, c *model.SkinConfig) (int64, error)

	// Update rewrites the mutable fields of an existing row.
	Update(ctx context.Context, c *model.SkinConfig) error

	// Delete removes the config only if it belongs to the account,
	// otherwise ErrNotFound.
	Delete(ctx context.Context, id, accountID int64) error

	// DeleteAll removes every config owned by the account and returns the
	// number removed. Zero rows is not an error.
	DeleteAll(ctx context.Context, accountID int64) (int64, error)
}

// StatsRepository defines aggregate count queries for the admin dashboard.
type StatsRepository interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}
