package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-keepintouch/internal/config"
)

func validSettings() *config.Settings {
	return &config.Settings{
		SourceMode:     config.SourceModeLocal,
		LocalPath:      "/tmp/contacts.vcf",
		Port:           config.DefaultPort,
		RefreshMinutes: config.DefaultRefreshMin,
		Workers:        2,
		LogFormat:      config.LogFormatJSON,
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv(config.EnvSourceMode, config.SourceModeLocal)
	t.Setenv(config.EnvLocalPath, "/data/contacts.vcf")
	t.Setenv(config.EnvPort, "")
	t.Setenv(config.EnvWorkers, "")
	t.Setenv(config.EnvLogFormat, "")
	t.Setenv(config.EnvHolidayTimeout, "")
	t.Setenv(config.EnvRefreshMinutes, "")
	t.Setenv(config.EnvHolidayURL, "")

	s, err := config.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, s.Port)
	assert.Equal(t, config.LocalhostBindAddr+":"+config.DefaultPort, s.Addr())
	assert.Equal(t, config.LogFormatJSON, s.LogFormat)
	assert.Equal(t, config.DefaultHolidayTimeout, s.HolidayTimeout)
	assert.Equal(t, time.Duration(config.DefaultRefreshMin)*time.Minute, s.RefreshInterval())
	assert.GreaterOrEqual(t, s.Workers, 1)
}

func TestLoadSettings_Overrides(t *testing.T) {
	t.Setenv(config.EnvSourceMode, config.SourceModeWeb)
	t.Setenv(config.EnvWebURL, "https://dav.example.com/contacts.vcf")
	t.Setenv(config.EnvPort, "9090")
	t.Setenv(config.EnvWorkers, "3")
	t.Setenv(config.EnvLogFormat, "TEXT")
	t.Setenv(config.EnvHolidayTimeout, "500")
	t.Setenv(config.EnvRefreshMinutes, "not-a-number")
	t.Setenv(config.EnvHolidayURL, "https://date.nager.at/api/v3/PublicHolidays/%d/IT")

	s, err := config.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, config.SourceModeWeb, s.SourceMode)
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, config.LogFormatText, s.LogFormat)
	assert.Equal(t, 500*time.Millisecond, s.HolidayTimeout)
	assert.Equal(t, config.DefaultRefreshMin, s.RefreshMinutes, "Invalid integers fall back to the default")
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv(config.EnvSourceMode, "ftp")
	t.Setenv(config.EnvPort, "99999")

	_, err := config.LoadSettings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), config.ErrModeUnsupport)
	assert.Contains(t, err.Error(), config.ErrPortRange)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *config.Settings)
		wantErr string
	}{
		{"valid", func(s *config.Settings) {}, ""},
		{"local without path", func(s *config.Settings) { s.LocalPath = "" }, config.ErrLocalPathEmpty},
		{"web without url", func(s *config.Settings) { s.SourceMode = config.SourceModeWeb }, config.ErrWebURLEmpty},
		{"sqlite without dsn", func(s *config.Settings) { s.SourceMode = config.SourceModeSQLite }, config.ErrDSNEmpty},
		{"postgres without dsn", func(s *config.Settings) { s.SourceMode = config.SourceModePostgres }, config.ErrDSNEmpty},
		{"negative refresh", func(s *config.Settings) { s.RefreshMinutes = -1 }, config.ErrRefreshRange},
		{"zero workers", func(s *config.Settings) { s.Workers = 0 }, config.ErrWorkersRange},
		{"bad log format", func(s *config.Settings) { s.LogFormat = "xml" }, config.ErrLogFormat},
		{"holiday url without year", func(s *config.Settings) { s.HolidayURL = "https://example.com/holidays" }, config.ErrHolidayURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
