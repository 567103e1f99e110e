package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds the runtime configuration read from the environment.
// It replaces the desktop preference store: every value has a KIT_* variable.
type Settings struct {
	SourceMode  string // SourceModeLocal, SourceModeWeb, SourceModeSQLite or SourceModePostgres
	LocalPath   string // Path to a .vcf file
	WebURL      string // CardDAV or WebDAV URL
	WebUser     string // HTTP Basic Auth Username
	WebPass     string // Falls back to the OS keyring when empty
	DatabaseDSN string // SQLite path or PostgreSQL DSN

	BindAddr       string
	Port           string
	RefreshMinutes int
	// ReminderTrigger is an ISO8601 duration (e.g. "-P1D") attached as VALARM to feed events.
	ReminderTrigger string

	// HolidayURL is an optional public-holiday endpoint; %d is replaced by the year.
	HolidayURL     string
	HolidayName    string
	HolidayTimeout time.Duration

	Workers   int
	LogFormat string
}

// LoadSettings reads the configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func LoadSettings() (*Settings, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	s := &Settings{
		SourceMode:      getEnv(EnvSourceMode, SourceModeLocal),
		LocalPath:       getEnv(EnvLocalPath, ""),
		WebURL:          getEnv(EnvWebURL, ""),
		WebUser:         getEnv(EnvWebUser, ""),
		WebPass:         getEnv(EnvWebPass, ""),
		DatabaseDSN:     getEnv(EnvDatabaseDSN, ""),
		BindAddr:        getEnv(EnvBindAddr, LocalhostBindAddr),
		Port:            getEnv(EnvPort, DefaultPort),
		RefreshMinutes:  getEnvInt(EnvRefreshMinutes, DefaultRefreshMin),
		ReminderTrigger: getEnv(EnvReminder, ""),
		HolidayURL:      getEnv(EnvHolidayURL, ""),
		HolidayName:     getEnv(EnvHolidayName, DefaultHolidayName),
		HolidayTimeout:  time.Duration(getEnvInt(EnvHolidayTimeout, int(DefaultHolidayTimeout/time.Millisecond))) * time.Millisecond,
		Workers:         getEnvInt(EnvWorkers, runtime.NumCPU()),
		LogFormat:       strings.ToLower(getEnv(EnvLogFormat, DefaultLogFormat)),
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}
	return s, nil
}

// Validate checks that the settings are usable. All problems are reported at once.
func (s *Settings) Validate() error {
	var errs []error

	switch s.SourceMode {
	case SourceModeLocal:
		if s.LocalPath == "" {
			errs = append(errs, errors.New(ErrLocalPathEmpty))
		}
	case SourceModeWeb:
		if s.WebURL == "" {
			errs = append(errs, errors.New(ErrWebURLEmpty))
		}
	case SourceModeSQLite, SourceModePostgres:
		if s.DatabaseDSN == "" {
			errs = append(errs, errors.New(ErrDSNEmpty))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: %q", ErrModeUnsupport, s.SourceMode))
	}

	if err := ValidatePort(s.Port); err != nil {
		errs = append(errs, err)
	}
	if s.RefreshMinutes < 0 {
		errs = append(errs, errors.New(ErrRefreshRange))
	}
	if s.Workers < 1 {
		errs = append(errs, errors.New(ErrWorkersRange))
	}
	if s.LogFormat != LogFormatJSON && s.LogFormat != LogFormatText {
		errs = append(errs, fmt.Errorf("%s: %q", ErrLogFormat, s.LogFormat))
	}
	if s.HolidayURL != "" && !strings.Contains(s.HolidayURL, "%d") {
		errs = append(errs, errors.New(ErrHolidayURL))
	}

	return errors.Join(errs...)
}

// ValidatePort checks that port is a number within the TCP range.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// RefreshInterval returns the background sync period.
// A zero value disables periodic refresh.
func (s *Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshMinutes) * time.Minute
}

// Addr returns the listen address of the HTTP server.
func (s *Settings) Addr() string {
	return s.BindAddr + AddrSeparator + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer value, using default",
			LogKeyKey, key,
			LogKeyValue, value,
		)
		return defaultValue
	}
	return n
}
