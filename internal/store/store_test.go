package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(WithDSN(MemoryDSN))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleContacts() []engine.Contact {
	last := day(2025, 3, 14)
	return []engine.Contact{
		{
			UID:  "ada",
			Name: "Ada Lovelace",
			Profile: engine.ContactEngagementProfile{
				Birthday:            &engine.Birthday{Date: day(1815, 12, 10), YearKnown: true},
				TouchBaseFrequency:  engine.Quarterly,
				LastInteractionDate: &last,
				ChristmasPlan:       "Difference engine model",
				EasterPlan:          "",
			},
		},
		{
			UID:  "grace",
			Name: "Grace Hopper",
			Profile: engine.ContactEngagementProfile{
				Birthday:           &engine.Birthday{Date: day(2000, 12, 9), YearKnown: false},
				TouchBaseFrequency: engine.DoNotKeepInTouch,
			},
		},
		{
			UID:  "alan",
			Name: "Alan Turing",
		},
	}
}

// assertRoundTrip checks every profile field survives the store unchanged.
func assertRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	for _, c := range sampleContacts() {
		require.NoError(t, s.UpsertContact(ctx, c))
	}

	got, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by name.
	assert.Equal(t, "Ada Lovelace", got[0].Name)
	assert.Equal(t, "Alan Turing", got[1].Name)
	assert.Equal(t, "Grace Hopper", got[2].Name)

	ada := got[0]
	require.NotNil(t, ada.Profile.Birthday)
	assert.Equal(t, day(1815, 12, 10), ada.Profile.Birthday.Date)
	assert.True(t, ada.Profile.Birthday.YearKnown)
	assert.Equal(t, engine.Quarterly, ada.Profile.TouchBaseFrequency)
	require.NotNil(t, ada.Profile.LastInteractionDate)
	assert.Equal(t, day(2025, 3, 14), *ada.Profile.LastInteractionDate)
	assert.Equal(t, "Difference engine model", ada.Profile.ChristmasPlan)

	alan := got[1]
	assert.Nil(t, alan.Profile.Birthday)
	assert.Nil(t, alan.Profile.LastInteractionDate)
	assert.Equal(t, engine.NotSet, alan.Profile.TouchBaseFrequency)

	grace := got[2]
	require.NotNil(t, grace.Profile.Birthday)
	assert.False(t, grace.Profile.Birthday.YearKnown)
	assert.Equal(t, time.December, grace.Profile.Birthday.Date.Month())
	assert.Equal(t, 9, grace.Profile.Birthday.Date.Day())
	assert.Equal(t, engine.DoNotKeepInTouch, grace.Profile.TouchBaseFrequency)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	assertRoundTrip(t, newMemoryStore(t))
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	c := sampleContacts()[0]
	require.NoError(t, s.UpsertContact(ctx, c))

	c.Name = "Augusta Ada King"
	c.Profile.TouchBaseFrequency = engine.Monthly
	c.Profile.LastInteractionDate = nil
	require.NoError(t, s.UpsertContact(ctx, c))

	got, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Augusta Ada King", got[0].Name)
	assert.Equal(t, engine.Monthly, got[0].Profile.TouchBaseFrequency)
	assert.Nil(t, got[0].Profile.LastInteractionDate)
}

func TestSQLiteStore_RecordInteraction(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertContact(ctx, sampleContacts()[2]))

	// Only the calendar date is kept.
	at := time.Date(2025, 7, 4, 18, 45, 0, 0, time.UTC)
	require.NoError(t, s.RecordInteraction(ctx, "alan", at))

	got, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.NotNil(t, got[0].Profile.LastInteractionDate)
	assert.Equal(t, day(2025, 7, 4), *got[0].Profile.LastInteractionDate)

	err = s.RecordInteraction(ctx, "nobody", at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_FeedsResolver(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()
	for _, c := range sampleContacts() {
		require.NoError(t, s.UpsertContact(ctx, c))
	}

	gen := &engine.Generator{Source: s}
	res, err := gen.RunSync(ctx, engine.SyncConfig{Mode: config.SourceModeSQLite})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	byUID := make(map[string]engine.Decision)
	for _, e := range res.Entries {
		byUID[e.UID] = e.Decision
	}
	assert.Equal(t, engine.KindTouchBaseNeedsSetup, byUID["alan"].Selected.Kind)
	assert.Equal(t, engine.KindTouchBaseRelaxed, byUID["grace"].Selected.Kind)
}

func TestSQLiteStore_FileDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "contacts.db")

	s, err := NewSQLiteStore(WithDSN(path))
	require.NoError(t, err)
	require.NoError(t, s.UpsertContact(context.Background(), sampleContacts()[0]))
	require.NoError(t, s.Close())

	// Reopening applies the idempotent migrations and keeps the data.
	s, err = NewSQLiteStore(WithDSN(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_MissingDSN(t *testing.T) {
	_, err := NewSQLiteStore()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrStoreDSN)
}

func TestOpen_Modes(t *testing.T) {
	s, err := Open(config.SourceModeSQLite, MemoryDSN)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.SourceModeLocal, "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrModeUnsupport)

	_, err = Open(config.SourceModePostgres, "")
	require.Error(t, err)
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	// Requires a running PostgreSQL instance.
	dsn := os.Getenv("KIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("env KIT_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(WithDSN(dsn))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer func() { _ = s.Close() }()

	_, err = s.db.Exec("DELETE FROM contacts")
	require.NoError(t, err)
	assertRoundTrip(t, s)
}
