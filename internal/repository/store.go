package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"skinchanger-api/internal/model"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Store owns the single process-wide database handle. It is opened once at
// startup, passed explicitly to each repository, and closed at shutdown.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// dialect captures the DDL differences between the supported backends.
// Both drivers use ? placeholders, so query code is shared.
type dialect struct {
	name   string
	schema []string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			license_key TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS license_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT UNIQUE NOT NULL,
			is_used INTEGER NOT NULL DEFAULT 0,
			used_by INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			used_at DATETIME,
			expires_at DATETIME,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS api_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			token TEXT UNIQUE NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME,
			last_used DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS skin_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			weapon_category TEXT NOT NULL,
			weapon_name TEXT NOT NULL,
			weapon_id INTEGER NOT NULL,
			skin_name TEXT NOT NULL,
			paint_kit INTEGER NOT NULL,
			wear REAL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(account_id, weapon_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_tokens_account ON api_tokens(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_skin_configs_account ON skin_configs(account_id)`,
	},
}

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(64) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			license_key VARCHAR(64),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME
		)`,
		"CREATE TABLE IF NOT EXISTS license_keys (" +
			"id BIGINT PRIMARY KEY AUTO_INCREMENT, " +
			"`key` VARCHAR(64) UNIQUE NOT NULL, " +
			"is_used TINYINT(1) NOT NULL DEFAULT 0, " +
			"used_by BIGINT, " +
			"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
			"used_at DATETIME, " +
			"expires_at DATETIME, " +
			"notes TEXT, " +
			"FOREIGN KEY (used_by) REFERENCES accounts(id) ON DELETE SET NULL)",
		`CREATE TABLE IF NOT EXISTS api_tokens (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			account_id BIGINT NOT NULL,
			token VARCHAR(512) UNIQUE NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME,
			last_used DATETIME,
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS skin_configs (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			account_id BIGINT NOT NULL,
			weapon_category VARCHAR(64) NOT NULL,
			weapon_name VARCHAR(128) NOT NULL,
			weapon_id INT NOT NULL,
			skin_name VARCHAR(128) NOT NULL,
			paint_kit INT NOT NULL,
			wear DOUBLE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_account_weapon (account_id, weapon_id),
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		)`,
	},
}

// OpenSQLite opens a SQLite-backed store with WAL mode.
// dbPath is the path to the database file (e.g., "./data/skinchanger.db").
func OpenSQLite(dbPath string) (*Store, error) {
	// Foreign keys are off by default in SQLite; cascades depend on them.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, dialect: sqliteDialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Store] SQLite initialized with database: %s", dbPath)
	return s, nil
}

// OpenMySQL opens a MySQL-backed store.
func OpenMySQL(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &Store{db: db, dialect: mysqlDialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[Store] MySQL initialized")
	return s, nil
}

func (s *Store) migrate() error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// keyColumn returns the quoted license key column name. "key" is reserved
// in MySQL.
func (s *Store) keyColumn() string {
	if s.dialect.name == "mysql" {
		return "`key`"
	}
	return "key"
}

// isUniqueViolation reports whether err is a uniqueness constraint failure
// from either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // modernc.org/sqlite
		strings.Contains(msg, "Error 1062") || // mysql duplicate entry
		strings.Contains(msg, "Duplicate entry")
}

// SQLStatsRepository implements StatsRepository over the shared store.
type SQLStatsRepository struct {
	store *Store
}

// NewSQLStatsRepository creates a new stats repository.
func NewSQLStatsRepository(store *Store) *SQLStatsRepository {
	return &SQLStatsRepository{store: store}
}

// GetStats returns the aggregate counts for the admin dashboard.
func (r *SQLStatsRepository) GetStats(ctx context.Context) (*model.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts) AS total_users,
			(SELECT COUNT(*) FROM accounts WHERE is_active = 1) AS active_users,
			(SELECT COUNT(*) FROM license_keys) AS total_licenses,
			(SELECT COUNT(*) FROM license_keys WHERE is_used = 0) AS unused_licenses,
			(SELECT COUNT(*) FROM skin_configs) AS total_configs`

	var stats model.Stats
	err := r.store.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalLicenses,
		&stats.UnusedLicenses,
		&stats.TotalConfigs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// Ensure SQLStatsRepository implements StatsRepository
var _ StatsRepository = (*SQLStatsRepository)(nil)
