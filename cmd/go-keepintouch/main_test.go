package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/tartampluch/go-keepintouch/internal/app"
	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
	"github.com/tartampluch/go-keepintouch/internal/server"
	"github.com/tartampluch/go-keepintouch/internal/store"
)

const sampleVCF = `BEGIN:VCARD
VERSION:3.0
UID:ada
FN:Ada Lovelace
BDAY:1990-06-15
X-KEEP-IN-TOUCH:Monthly
X-LAST-INTERACTION:2025-06-01
END:VCARD
BEGIN:VCARD
VERSION:3.0
UID:grace
FN:Grace Hopper
X-KEEP-IN-TOUCH:Do Not Keep in Touch
END:VCARD
`

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func writeVCF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), config.FilePermUserRW))
	return path
}

func TestOpenStore_Modes(t *testing.T) {
	st, err := openStore(&config.Settings{SourceMode: config.SourceModeLocal})
	require.NoError(t, err)
	assert.Nil(t, st, "File based modes have no store")

	dsn := filepath.Join(t.TempDir(), "db", "contacts.db")
	st, err = openStore(&config.Settings{SourceMode: config.SourceModeSQLite, DatabaseDSN: dsn})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())
}

func TestImportContacts(t *testing.T) {
	st, err := store.Open(config.SourceModeSQLite, store.MemoryDSN)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	path := writeVCF(t)
	var out bytes.Buffer
	require.NoError(t, importContacts(context.Background(), st, path, &out))
	assert.Equal(t, "Imported 2 contacts into "+path+"\n", out.String())

	contacts, err := st.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ada Lovelace", contacts[0].Name)
	assert.Equal(t, engine.Monthly, contacts[0].Profile.TouchBaseFrequency)
	assert.Equal(t, engine.DoNotKeepInTouch, contacts[1].Profile.TouchBaseFrequency)

	// Importing twice updates in place.
	require.NoError(t, importContacts(context.Background(), st, path, io.Discard))
	contacts, err = st.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestImportContacts_Errors(t *testing.T) {
	err := importContacts(context.Background(), nil, "contacts.vcf", io.Discard)
	require.Error(t, err)
	assert.Equal(t, config.ErrImportMode, err.Error())

	st, err := store.Open(config.SourceModeSQLite, store.MemoryDSN)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	err = importContacts(context.Background(), st, filepath.Join(t.TempDir(), "missing.vcf"), io.Discard)
	assert.ErrorContains(t, err, config.ErrVCardParse)
}

func TestStorePassword(t *testing.T) {
	keyring.MockInit()

	var prompt bytes.Buffer
	require.NoError(t, storePassword(strings.NewReader("hunter2\r\n"), &prompt, "alice"))
	assert.Equal(t, config.MsgPasswordPrompt, prompt.String())

	got, err := keyring.Get(config.KeyringService, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestStorePassword_Errors(t *testing.T) {
	keyring.MockInit()

	err := storePassword(strings.NewReader("secret\n"), io.Discard, "")
	assert.EqualError(t, err, config.ErrWebUserEmpty)

	err = storePassword(strings.NewReader(""), io.Discard, "alice")
	assert.EqualError(t, err, config.ErrPasswordRead)
}

func TestNewResolver_ComputedByDefault(t *testing.T) {
	r := newResolver(context.Background(), &config.Settings{})

	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency: engine.DoNotKeepInTouch,
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindTouchBaseRelaxed, d.Selected.Kind)

	last := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	d = r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: &last,
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindEaster, d.Selected.Kind)
	assert.Equal(t, 30, d.Selected.DaysOffset, "Easter 2024 is March 31")
}

func TestNewResolver_AuthoritativeOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		_, _ = w.Write([]byte(`[{"date":"2024-04-07","localName":"Pasqua","name":"Easter Sunday"}]`))
	}))
	defer ts.Close()

	r := newResolver(context.Background(), &config.Settings{
		HolidayURL:     ts.URL + "/%d",
		HolidayName:    config.DefaultHolidayName,
		HolidayTimeout: time.Second,
	})

	last := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: &last,
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindEaster, d.Selected.Kind)
	assert.Equal(t, 37, d.Selected.DaysOffset, "The API date replaces the computed one")
}

func TestPrintOnce(t *testing.T) {
	settings := &config.Settings{
		SourceMode: config.SourceModeLocal,
		LocalPath:  writeVCF(t),
		Workers:    1,
	}
	srv := server.NewCalendarServer(config.LocalhostBindAddr, config.DefaultPort)
	svc := app.NewKeepInTouchApp(settings, srv, engine.NewHTTPFetcher(), nil)
	svc.Clock = fixedClock{t: time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)}

	var out bytes.Buffer
	require.NoError(t, printOnce(context.Background(), svc, &out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], config.OnceColName)
	assert.Contains(t, lines[0], config.OnceColUrgency)

	assert.True(t, strings.HasPrefix(lines[1], "Ada Lovelace"))
	assert.Contains(t, lines[1], "birthday")
	assert.True(t, strings.HasSuffix(lines[1], string(engine.UrgencyDue)))

	assert.True(t, strings.HasPrefix(lines[2], "Grace Hopper"))
	assert.Contains(t, lines[2], "touch_base_relaxed")
	assert.True(t, strings.HasSuffix(lines[2], string(engine.UrgencyNotDue)))
}

func TestGetLogFilePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	path, err := getLogFilePath()
	require.NoError(t, err)
	assert.Equal(t, config.LogFileName, filepath.Base(path))
	assert.Equal(t, config.AppID, filepath.Base(filepath.Dir(path)))
}
