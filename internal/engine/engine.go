package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode            string // config.SourceModeLocal, SourceModeWeb, SourceModeSQLite or SourceModePostgres
	LocalPath       string // Absolute path to the .vcf file
	WebURL          string // CardDAV or WebDAV URL
	WebUser         string // HTTP Basic Auth Username
	WebPass         string // HTTP Basic Auth Password
	ReminderTrigger string // ISO8601 duration string (e.g., "-P1D")
	Workers         int
}

// SyncResult is the output of one pipeline run.
type SyncResult struct {
	ICS     []byte
	Entries []ContactEntry
	// Due counts contacts whose next event is today or overdue.
	Due    int
	Events int
	// Today is the reference date every entry was resolved against.
	Today time.Time
}

// Generator runs the acquire -> resolve -> render pipeline.
type Generator struct {
	Clock    Clock   // Interface for time mocking.
	Fetcher  Fetcher // Used by config.SourceModeWeb.
	Source   ContactSource
	Resolver *Resolver

	// Summary allows the application layer to inject catalog-based titles.
	Summary SummaryFunc
}

// RunSync executes the fetching, resolution and feed generation pipeline.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (SyncResult, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	contacts, err := g.acquireContacts(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return SyncResult{}, ctx.Err()
		}
		return SyncResult{}, err
	}

	// "today" is read exactly once so every contact shares the same reference date.
	clock := g.Clock
	if clock == nil {
		clock = RealClock{}
	}
	now := clock.Now()
	today := CalendarDate(now)

	resolver := g.Resolver
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	entries, err := ResolveAll(ctx, resolver, contacts, today, cfg.Workers)
	if err != nil {
		return SyncResult{}, err
	}

	ics, events, err := BuildFeed(entries, FeedOptions{
		Now:             now,
		ReminderTrigger: cfg.ReminderTrigger,
		Summary:         g.Summary,
	})
	if err != nil {
		return SyncResult{}, err
	}

	res := SyncResult{ICS: ics, Entries: entries, Events: events, Today: today}
	overdue := 0
	for _, e := range entries {
		if e.Decision.Urgency() == UrgencyDue {
			res.Due++
		}
		if e.Decision.IsOverdue {
			overdue++
			slog.Debug(config.MsgOverdue,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, e.Name,
				config.LogKeyDays, -e.Decision.Selected.DaysOffset)
		}
	}

	log.Info(config.MsgGenSuccess,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, len(entries)),
			slog.Int(config.LogKeyEvents, events),
			slog.Int(config.LogKeyDue, res.Due),
			slog.Int(config.LogKeyOverdue, overdue),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// acquireContacts loads contacts from the configured source.
func (g *Generator) acquireContacts(ctx context.Context, cfg SyncConfig) ([]Contact, error) {
	switch cfg.Mode {
	case config.SourceModeSQLite, config.SourceModePostgres:
		if g.Source == nil {
			return nil, errors.New(config.ErrSourceMissing)
		}
		return g.Source.ListContacts(ctx)
	}

	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	// Best effort close. Errors in Close() for read-only streams are rarely actionable.
	defer func() { _ = reader.Close() }()

	return DecodeContacts(ctx, reader)
}

// acquireStream opens the vCard stream for the file and web modes.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}
