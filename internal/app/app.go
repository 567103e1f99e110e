// Package app wires the settings, the sync pipeline and the HTTP server into
// a long-running service.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/zalando/go-keyring"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
	"github.com/tartampluch/go-keepintouch/internal/server"
)

// KeepInTouchApp holds the service state and its background logic.
type KeepInTouchApp struct {
	Settings *config.Settings
	Server   *server.CalendarServer

	Fetcher  engine.Fetcher
	Source   engine.ContactSource // Database modes only.
	Resolver *engine.Resolver
	Clock    engine.Clock // Injected clock for testability (e.g. mocking time travel)

	I18nBundle         *i18n.Bundle
	Localizer          *i18n.Localizer
	SupportedLanguages []string

	syncChan chan struct{}
}

// NewKeepInTouchApp constructs the application and wires dependencies.
func NewKeepInTouchApp(settings *config.Settings, srv *server.CalendarServer, fetcher engine.Fetcher, source engine.ContactSource) *KeepInTouchApp {
	app := &KeepInTouchApp{
		Settings: settings,
		Server:   srv,
		Fetcher:  fetcher,
		Source:   source,
		Resolver: engine.NewResolver(nil),
		Clock:    engine.RealClock{}, // Default to real clock in production
		syncChan: make(chan struct{}, config.ChannelBufferSize),
	}
	if srv != nil {
		srv.OnInteraction = app.RequestSync
	}
	return app
}

// Run serves the feed and keeps it fresh until ctx is cancelled.
func (app *KeepInTouchApp) Run(ctx context.Context) error {
	if app.Localizer == nil {
		app.SetupI18n()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Server.Start(ctx)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.backgroundWorker(ctx)
	}()

	// Start returns nil after a graceful shutdown and an error if the port is busy.
	err := <-serverErr
	if err != nil {
		slog.Error(config.MsgServerFailed,
			config.LogKeyComponent, config.CompApp,
			config.LogKeyError, err)
	}
	cancel()
	<-done
	return err
}

// RequestSync asks the worker for an immediate sync. Requests arriving while
// one is already queued are merged.
func (app *KeepInTouchApp) RequestSync() {
	select {
	case app.syncChan <- struct{}{}:
	default:
		slog.Debug(config.MsgSyncSkipped, config.LogKeyComponent, config.CompApp)
	}
}

// SyncOnce runs the pipeline without publishing the result.
func (app *KeepInTouchApp) SyncOnce(ctx context.Context) (engine.SyncResult, error) {
	gen := &engine.Generator{
		Clock:    app.Clock,
		Fetcher:  app.Fetcher,
		Source:   app.Source,
		Resolver: app.Resolver,
		Summary:  app.SummaryFormatter(),
	}
	return gen.RunSync(ctx, app.loadSyncConfig())
}

// backgroundWorker manages the periodic synchronization schedule.
func (app *KeepInTouchApp) backgroundWorker(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	app.performSync(ctx, false)

	// A nil channel never fires, which disables the periodic refresh.
	var tick <-chan time.Time
	interval := app.Settings.RefreshInterval()
	if interval > config.DisabledInterval {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	log.Info(config.MsgWorkerStart,
		config.LogKeyInterval, interval,
		config.LogKeyWorkers, app.Settings.Workers)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-app.syncChan:
			app.performSync(ctx, true)

		case <-tick:
			app.performSync(ctx, false)
		}
	}
}

// performSync executes the pipeline and publishes the result to the server.
// On failure the previous feed keeps being served.
func (app *KeepInTouchApp) performSync(ctx context.Context, manual bool) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompApp,
		config.LogKeyManual, manual)

	res, err := app.SyncOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error(config.MsgSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompApp)
		return
	}

	app.Server.Update(res)
	slog.Info(config.MsgSyncSuccess,
		config.LogKeyComponent, config.CompApp,
		config.LogKeyEvents, res.Events,
		config.LogKeyDue, res.Due)
}

// loadSyncConfig assembles the engine configuration from the settings and the keyring.
func (app *KeepInTouchApp) loadSyncConfig() engine.SyncConfig {
	s := app.Settings
	cfg := engine.SyncConfig{
		Mode:            s.SourceMode,
		LocalPath:       s.LocalPath,
		WebURL:          s.WebURL,
		WebUser:         s.WebUser,
		WebPass:         s.WebPass,
		ReminderTrigger: s.ReminderTrigger,
		Workers:         s.Workers,
	}

	if cfg.WebUser != "" && cfg.WebPass == "" {
		if p, err := keyring.Get(config.KeyringService, cfg.WebUser); err == nil {
			cfg.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyUser, cfg.WebUser,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompApp)
		}
	}

	return cfg
}
