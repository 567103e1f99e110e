package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"

	"github.com/tartampluch/go-keepintouch/internal/app"
	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
	"github.com/tartampluch/go-keepintouch/internal/server"
	"github.com/tartampluch/go-keepintouch/internal/store"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	debug         bool
	once          bool
	storePassword bool
	importPath    string
}

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
// os.Exit() does not run defers, so we must return an integer code first.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	var flags cliFlags
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	flag.BoolVar(&flags.debug, config.FlagDebug, false, config.FlagDescDebug)
	flag.BoolVar(&flags.once, config.FlagOnce, false, config.FlagDescOnce)
	flag.BoolVar(&flags.storePassword, config.FlagStorePassword, false, config.FlagDescStorePass)
	flag.StringVar(&flags.importPath, config.FlagImport, "", config.FlagDescImport)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Configuration & Logging Initialization
	// -------------------------------------------------------------------------
	settings, settingsErr := config.LoadSettings()
	format := config.DefaultLogFormat
	if settingsErr == nil {
		format = settings.LogFormat
	}

	logCloser := setupLogging(flags.debug, format)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	if settingsErr != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, settingsErr,
		)
		return config.ExitCodeError
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	// Create a root context that cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, settings, flags); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires dependencies and dispatches to the selected command.
func run(ctx context.Context, settings *config.Settings, flags cliFlags) error {
	if flags.storePassword {
		return storePassword(os.Stdin, os.Stderr, settings.WebUser)
	}

	st, err := openStore(settings)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	if flags.importPath != "" {
		return importContacts(ctx, st, flags.importPath, os.Stdout)
	}

	// Dependency Injection.
	resolver := newResolver(ctx, settings)
	srv := server.NewCalendarServer(settings.BindAddr, settings.Port)
	srv.Resolver = resolver

	var source engine.ContactSource
	if st != nil {
		source = st
		srv.Recorder = st
	}

	svc := app.NewKeepInTouchApp(settings, srv, engine.NewHTTPFetcher(), source)
	svc.Resolver = resolver

	if flags.once {
		return printOnce(ctx, svc, os.Stdout)
	}

	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	}()
	return svc.Run(ctx)
}

// openStore opens the contact database for the sqlite and postgres modes.
// It returns a nil store for the file based modes.
func openStore(settings *config.Settings) (store.Store, error) {
	switch settings.SourceMode {
	case config.SourceModeSQLite, config.SourceModePostgres:
		return store.Open(settings.SourceMode, settings.DatabaseDSN)
	default:
		return nil, nil
	}
}

// newResolver computes holidays locally, optionally overridden by a public
// holiday API. Lookups stop when ctx is cancelled.
func newResolver(ctx context.Context, settings *config.Settings) *engine.Resolver {
	var holidays engine.HolidayCalendar = engine.ComputedHolidays{}
	if settings.HolidayURL != "" {
		source := engine.NewHTTPHolidaySource(settings.HolidayURL, settings.HolidayName)
		holidays = engine.WithAuthoritativeOverrideContext(ctx, holidays, source, settings.HolidayTimeout)
	}
	return engine.NewResolver(holidays)
}

// printOnce runs a single sync and prints the next event of every contact.
func printOnce(ctx context.Context, svc *app.KeepInTouchApp, out io.Writer) error {
	svc.SetupI18n()
	res, err := svc.SyncOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, config.FormatOnceHeader,
		config.OnceColName, config.OnceColKind, config.OnceColDays, config.OnceColUrgency)
	for _, e := range res.Entries {
		c := e.Decision.Selected
		if c == nil {
			continue
		}
		fmt.Fprintf(out, config.FormatOnceRow, e.Name, c.Kind, c.DaysOffset, e.Decision.Urgency())
	}
	return nil
}

// importContacts copies the contacts of a vCard file into the database.
func importContacts(ctx context.Context, st store.Store, path string, out io.Writer) error {
	if st == nil {
		return errors.New(config.ErrImportMode)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = f.Close() }()

	contacts, err := engine.DecodeContacts(ctx, f)
	if err != nil {
		return err
	}
	for _, c := range contacts {
		if err := st.UpsertContact(ctx, c); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, config.MsgImported, len(contacts), path)
	return nil
}

// storePassword reads one line from in and saves it in the OS keyring for user.
func storePassword(in io.Reader, prompt io.Writer, user string) error {
	if user == "" {
		return errors.New(config.ErrWebUserEmpty)
	}

	fmt.Fprint(prompt, config.MsgPasswordPrompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%s: %w", config.ErrPasswordRead, err)
		}
		return errors.New(config.ErrPasswordRead)
	}
	password := strings.TrimRight(scanner.Text(), "\r")

	if err := keyring.Set(config.KeyringService, user, password); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringWrite, err)
	}

	slog.Info(config.MsgPassStored,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyUser, user)
	return nil
}

// printVersion outputs the build information to stdout and exits.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger.
func setupLogging(debugMode bool, format string) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	// 1. Always write to Stdout.
	writers = append(writers, os.Stdout)

	// 2. Attempt to set up a file writer in the user's cache directory.
	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	w := io.MultiWriter(writers...)
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if format == config.LogFormatText {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
