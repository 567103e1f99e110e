// Package store persists contact engagement profiles in SQLite or PostgreSQL.
//
// Both backends share the same schema and queries and differ only in their
// driver, placeholder style and connection pool settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

// ErrNotFound is returned when a contact id does not exist.
var ErrNotFound = errors.New(config.ErrStoreNotFound)

// Store is the persistence surface used by the application.
type Store interface {
	engine.ContactSource
	UpsertContact(ctx context.Context, c engine.Contact) error
	RecordInteraction(ctx context.Context, id string, at time.Time) error
	Close() error
}

// Opts holds constructor settings.
type Opts struct {
	DSN string
}

// Option configures a store.
type Option func(*Opts)

// WithDSN sets the data source name (a file path for SQLite, a connection
// string for PostgreSQL).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Open returns the backend matching a config.SourceMode* value.
func Open(mode, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch mode {
	case config.SourceModeSQLite:
		s, err = NewSQLiteStore(WithDSN(dsn))
	case config.SourceModePostgres:
		s, err = NewPostgresStore(WithDSN(dsn))
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, mode)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// queries holds the dialect-specific statements.
type queries struct {
	upsert  string
	touch   string
	list    string
	driver  string
	dialect string
}

// sqlStore implements Store over database/sql.
type sqlStore struct {
	db *sql.DB
	q  queries
}

// ListContacts implements engine.ContactSource.
func (s *sqlStore) ListContacts(ctx context.Context) ([]engine.Contact, error) {
	rows, err := s.db.QueryContext(ctx, s.q.list)
	if err != nil {
		slog.Error("ListContacts query failed",
			config.LogKeyComponent, config.CompStore,
			config.LogKeyMode, s.q.dialect,
			config.LogKeyError, err)
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []engine.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			slog.Error("ListContacts scan failed",
				config.LogKeyComponent, config.CompStore,
				config.LogKeyError, err)
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}

	slog.Debug(config.MsgStoreListed,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCount, len(contacts))
	return contacts, nil
}

// UpsertContact inserts c or replaces the stored row with the same UID.
func (s *sqlStore) UpsertContact(ctx context.Context, c engine.Contact) error {
	p := c.Profile
	_, err := s.db.ExecContext(ctx, s.q.upsert,
		c.UID,
		c.Name,
		encodeBirthday(p.Birthday),
		p.TouchBaseFrequency.String(),
		nullTime(p.LastInteractionDate),
		p.ChristmasPlan,
		p.EasterPlan,
	)
	if err != nil {
		slog.Error("UpsertContact failed",
			config.LogKeyComponent, config.CompStore,
			config.LogKeyUID, c.UID,
			config.LogKeyError, err)
		return fmt.Errorf("%s %s: %w", config.ErrStoreWrite, c.UID, err)
	}
	slog.Debug(config.MsgStoreUpsert,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyUID, c.UID)
	return nil
}

// RecordInteraction sets the last interaction date of a contact. Only the
// calendar date of at is kept.
func (s *sqlStore) RecordInteraction(ctx context.Context, id string, at time.Time) error {
	day := engine.CalendarDate(at)
	res, err := s.db.ExecContext(ctx, s.q.touch, day, id)
	if err != nil {
		return fmt.Errorf("%s %s: %w", config.ErrStoreWrite, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", config.ErrStoreWrite, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	slog.Info(config.MsgInteraction,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyUID, id,
		config.LogKeyDate, day.Format(config.DateFormatFullDash))
	return nil
}

// Close releases the connection pool.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// open connects, pings and applies the embedded migrations.
func open(q queries, dsn, migrations string, tune func(*sql.DB)) (*sql.DB, error) {
	log := slog.With(config.LogKeyComponent, config.CompStore, config.LogKeyMode, q.dialect)

	db, err := sql.Open(q.driver, dsn)
	if err != nil {
		log.Error("Failed to open database connection", config.LogKeyError, err)
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	if tune != nil {
		tune(db)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.Error("Database ping failed", config.LogKeyError, err)
		return nil, fmt.Errorf("%s: %w", config.ErrStorePing, err)
	}
	log.Debug(config.MsgStoreOpened)

	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		log.Error("Failed to run migrations", config.LogKeyError, err)
		return nil, fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}
	log.Debug(config.MsgStoreMigrated)
	return db, nil
}
