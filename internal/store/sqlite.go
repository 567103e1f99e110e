package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// MemoryDSN opens a private in-memory database, used by tests.
const MemoryDSN = ":memory:"

//go:embed migrations_sqlite.sql
var sqliteMigrations string

var sqliteQueries = queries{
	driver:  "sqlite3",
	dialect: config.SourceModeSQLite,
	upsert: `INSERT INTO contacts (` + contactColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(contact_id) DO UPDATE SET
			name = excluded.name,
			birthday = excluded.birthday,
			keep_in_touch_frequency = excluded.keep_in_touch_frequency,
			last_interaction_at = excluded.last_interaction_at,
			christmas = excluded.christmas,
			easter = excluded.easter`,
	touch: `UPDATE contacts SET last_interaction_at = ? WHERE contact_id = ?`,
	list:  `SELECT ` + contactColumns + ` FROM contacts ORDER BY name, contact_id`,
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps contacts in a single SQLite file.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set", config.LogKeyComponent, config.CompStore)
		return nil, errors.New(config.ErrStoreDSN)
	}

	if !strings.HasPrefix(dsn, MemoryDSN) && !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, config.DirPermShared); err != nil {
			slog.Error("Failed to create database directory",
				config.LogKeyComponent, config.CompStore,
				config.LogKeyFile, dir,
				config.LogKeyError, err)
			return nil, fmt.Errorf("%s: %w", config.ErrStoreDir, err)
		}
	}

	// SQLite serializes writers; a single connection also keeps an in-memory
	// database alive across calls.
	db, err := open(sqliteQueries, dsn, sqliteMigrations, func(db *sql.DB) {
		db.SetMaxOpenConns(1)
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore{db: db, q: sqliteQueries}}, nil
}
