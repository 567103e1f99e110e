package store

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

var postgresQueries = queries{
	driver:  "postgres",
	dialect: config.SourceModePostgres,
	upsert: `INSERT INTO contacts (` + contactColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (contact_id) DO UPDATE SET
			name = EXCLUDED.name,
			birthday = EXCLUDED.birthday,
			keep_in_touch_frequency = EXCLUDED.keep_in_touch_frequency,
			last_interaction_at = EXCLUDED.last_interaction_at,
			christmas = EXCLUDED.christmas,
			easter = EXCLUDED.easter`,
	touch: `UPDATE contacts SET last_interaction_at = $1 WHERE contact_id = $2`,
	list:  `SELECT ` + contactColumns + ` FROM contacts ORDER BY name, contact_id`,
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps contacts in a PostgreSQL database.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set", config.LogKeyComponent, config.CompStore)
		return nil, errors.New(config.ErrStoreDSN)
	}

	db, err := open(postgresQueries, dsn, postgresMigrations, func(db *sql.DB) {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore{db: db, q: postgresQueries}}, nil
}
