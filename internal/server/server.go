package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

// snapshot is the result of one sync: the rendered calendar, its metadata for
// HTTP caching and the resolved entries behind it.
type snapshot struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers

	today   time.Time
	entries []engine.ContactEntry
	byUID   map[string]int
}

// Recorder persists interactions. It is only available with a database source.
type Recorder interface {
	RecordInteraction(ctx context.Context, id string, at time.Time) error
}

// CalendarServer serves the feed and the JSON API.
type CalendarServer struct {
	// snap uses atomic.Pointer for lock-free reads.
	// Since the calendar is read frequently by clients but updated infrequently
	// (only on sync), this provides better performance than a RWMutex
	// by eliminating contention on the hot path (HTTP GET).
	snap atomic.Pointer[snapshot]

	BindAddr string
	Port     string

	// Resolver answers ad-hoc resolve requests. Nil uses the computed holidays.
	Resolver *engine.Resolver
	Clock    engine.Clock

	// Recorder and OnInteraction are optional. OnInteraction runs after an
	// interaction was stored, typically to trigger a new sync.
	Recorder      Recorder
	OnInteraction func()
}

// NewCalendarServer creates a new instance of the server.
func NewCalendarServer(bindAddr, port string) *CalendarServer {
	if bindAddr == "" {
		bindAddr = config.LocalhostBindAddr
	}
	return &CalendarServer{
		BindAddr: bindAddr,
		Port:     port,
		Resolver: engine.NewResolver(nil),
		Clock:    engine.RealClock{},
	}
}

// Router builds the HTTP handler with its middleware stack.
func (s *CalendarServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{config.HeaderAccept, config.HeaderContentType, config.HeaderIfNoneMatch, config.HeaderIfModifiedSince},
		ExposedHeaders: []string{config.HeaderETag, config.HeaderLastModified},
		MaxAge:         config.CORSMaxAge,
	}))

	r.Get(config.RouteHealth, s.handleHealth)
	r.Get(config.RouteCalendar, s.handleCalendarRequest)
	r.Head(config.RouteCalendar, s.handleCalendarRequest)

	r.Route(config.RouteAPI, func(r chi.Router) {
		r.Get(config.RouteContacts, s.handleListContacts)
		r.Get(config.RouteContact, s.handleGetContact)
		r.Post(config.RouteInteract, s.handleRecordInteraction)
		r.Post(config.RouteResolve, s.handleResolve)
	})
	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(s.BindAddr, s.Port),
		Handler:      s.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyURL, srv.Addr,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed and entries.
func (s *CalendarServer) Update(res engine.SyncResult) {
	hash := sha256.Sum256(res.ICS)
	// Use centralized format string for ETag consistency.
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	byUID := make(map[string]int, len(res.Entries))
	for i, e := range res.Entries {
		byUID[e.UID] = i
	}

	item := &snapshot{
		data:         res.ICS,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
		today:        res.Today,
		entries:      res.Entries,
		byUID:        byUID,
	}

	// Atomic store ensures that any concurrent reader sees either the old or the new complete item,
	// never a partial state.
	s.snap.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(res.ICS),
		config.LogKeyETag, etag,
		config.LogKeyTotal, len(res.Entries),
	)
}

// today reads the server clock once per request.
func (s *CalendarServer) today() time.Time {
	clock := s.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}
	return engine.Today(clock)
}
