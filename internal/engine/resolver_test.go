package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-keepintouch/internal/engine"
)

func ptr(t time.Time) *time.Time { return &t }

func TestResolve_NeedsSetupDominates(t *testing.T) {
	r := engine.NewResolver(nil)
	today := utcDate(2025, 6, 15)

	// Birthday is today, yet the missing cadence must be surfaced first.
	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday: &engine.Birthday{Date: utcDate(1990, 6, 15), YearKnown: true},
	}, today)

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindTouchBaseNeedsSetup, d.Selected.Kind)
	assert.Equal(t, 0, d.Selected.DaysOffset)
	assert.False(t, d.IsOverdue)
}

func TestResolve_OverdueDominates(t *testing.T) {
	r := engine.NewResolver(nil)

	// Christmas is tomorrow but the monthly touch base is 10 days late.
	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.Monthly,
		LastInteractionDate: ptr(utcDate(2025, 11, 14)),
	}, utcDate(2025, 12, 24))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindTouchBase, d.Selected.Kind)
	assert.Equal(t, -10, d.Selected.DaysOffset)
	assert.True(t, d.IsOverdue)
	assert.Equal(t, engine.UrgencyDue, d.Urgency())
}

func TestResolve_RelaxedSuppressesEverything(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday:           &engine.Birthday{Date: utcDate(1990, 12, 25), YearKnown: true},
		TouchBaseFrequency: engine.DoNotKeepInTouch,
		ChristmasPlan:      "Send a card",
	}, utcDate(2025, 12, 25))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindTouchBaseRelaxed, d.Selected.Kind)
	assert.Equal(t, engine.RelaxedOffset, d.Selected.DaysOffset)
	assert.False(t, d.IsOverdue)
	assert.Equal(t, engine.UrgencyNotDue, d.Urgency())
}

func TestResolve_NearestWins(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday:            &engine.Birthday{Date: utcDate(1985, 3, 20), YearKnown: true},
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2024, 9, 1)),
		EasterPlan:          "Chocolate eggs",
	}, utcDate(2025, 3, 1))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindBirthday, d.Selected.Kind)
	assert.Equal(t, 19, d.Selected.DaysOffset)
	assert.True(t, d.Selected.AgeKnown)
	assert.Equal(t, 40, d.Selected.Age)
	assert.Equal(t, engine.UrgencyNotDue, d.Urgency())
}

func TestResolve_HolidayCarriesPlan(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2025, 1, 1)),
		EasterPlan:          "Chocolate eggs",
	}, utcDate(2025, 4, 10))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindEaster, d.Selected.Kind)
	assert.Equal(t, 10, d.Selected.DaysOffset)
	assert.Equal(t, "Chocolate eggs", d.Selected.Plan)
	assert.Equal(t, engine.UrgencyDueSoon, d.Urgency())
}

func TestResolve_EmptyPlanPlaceholder(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2025, 6, 1)),
		ChristmasPlan:       "   ",
	}, utcDate(2025, 12, 20))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindChristmas, d.Selected.Kind)
	assert.Equal(t, "no wishes set", d.Selected.Plan)
}

func TestResolve_HolidayRollsToNextYear(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2025, 12, 1)),
	}, utcDate(2025, 12, 26))

	require.NotNil(t, d.Selected)
	// Easter 2026 (Apr 5) comes before Christmas 2026 and the touch base on Dec 1.
	assert.Equal(t, engine.KindEaster, d.Selected.Kind)
	require.NotNil(t, d.Selected.OccursOn)
	assert.Equal(t, utcDate(2026, 4, 5), *d.Selected.OccursOn)
}

func TestResolve_TieBreakOrder(t *testing.T) {
	r := engine.NewResolver(nil)
	today := utcDate(2025, 12, 25)

	// Christmas, a due touch base and a birthday all fall today.
	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday:            &engine.Birthday{Date: utcDate(2000, 12, 25), YearKnown: true},
		TouchBaseFrequency:  engine.Monthly,
		LastInteractionDate: ptr(utcDate(2025, 11, 25)),
	}, today)
	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindBirthday, d.Selected.Kind)
	assert.Equal(t, 25, d.Selected.Age, "Age turned today")

	// Without the birthday the touch base wins over Christmas.
	d = r.Resolve(engine.ContactEngagementProfile{
		TouchBaseFrequency:  engine.Monthly,
		LastInteractionDate: ptr(utcDate(2025, 11, 25)),
	}, today)
	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindTouchBase, d.Selected.Kind)
	assert.False(t, d.IsOverdue)
}

func TestResolve_BirthdayWithoutYear(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday:            &engine.Birthday{Date: utcDate(2000, 7, 1), YearKnown: false},
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2025, 6, 1)),
	}, utcDate(2025, 6, 20))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindBirthday, d.Selected.Kind)
	assert.False(t, d.Selected.AgeKnown)
	assert.Equal(t, 0, d.Selected.Age)
}

func TestResolve_LeaplingBirthday(t *testing.T) {
	r := engine.NewResolver(nil)

	d := r.Resolve(engine.ContactEngagementProfile{
		Birthday:            &engine.Birthday{Date: utcDate(2000, 2, 29), YearKnown: true},
		TouchBaseFrequency:  engine.OnceAYear,
		LastInteractionDate: ptr(utcDate(2025, 1, 1)),
	}, utcDate(2025, 2, 27))

	require.NotNil(t, d.Selected)
	assert.Equal(t, engine.KindBirthday, d.Selected.Kind)
	assert.Equal(t, 2, d.Selected.DaysOffset, "Observed on March 1 in a non-leap year")
	assert.Equal(t, 25, d.Selected.Age)
}

func TestResolve_IsIdempotent(t *testing.T) {
	r := engine.NewResolver(nil)
	profile := engine.ContactEngagementProfile{
		Birthday:            &engine.Birthday{Date: utcDate(1990, 8, 8), YearKnown: true},
		TouchBaseFrequency:  engine.Weekly,
		LastInteractionDate: ptr(utcDate(2025, 6, 1)),
	}
	today := utcDate(2025, 6, 5)

	first := r.Resolve(profile, today)
	second := r.Resolve(profile, today)
	assert.Equal(t, first, second)
}

func TestResolve_IsTotal(t *testing.T) {
	r := engine.NewResolver(nil)
	freqs := []engine.Frequency{
		engine.NotSet, engine.Weekly, engine.Monthly, engine.Quarterly,
		engine.TwiceAYear, engine.OnceAYear, engine.DoNotKeepInTouch,
	}
	lasts := []*time.Time{nil, ptr(utcDate(2019, 5, 5)), ptr(utcDate(2025, 6, 14))}
	birthdays := []*engine.Birthday{nil, {Date: utcDate(1970, 1, 1), YearKnown: true}, {Date: utcDate(2000, 2, 29)}}

	for day := utcDate(2024, 1, 1); day.Year() < 2026; day = day.AddDate(0, 0, 17) {
		for _, f := range freqs {
			for _, last := range lasts {
				for _, bd := range birthdays {
					d := r.Resolve(engine.ContactEngagementProfile{
						Birthday:            bd,
						TouchBaseFrequency:  f,
						LastInteractionDate: last,
					}, day)
					// Holidays are universal, so a decision always exists.
					require.NotNil(t, d.Selected)
					if d.IsOverdue {
						assert.Equal(t, engine.KindTouchBase, d.Selected.Kind)
						assert.Negative(t, d.Selected.DaysOffset)
					} else if d.Selected.Kind != engine.KindTouchBaseRelaxed {
						assert.GreaterOrEqual(t, d.Selected.DaysOffset, 0)
					}
				}
			}
		}
	}
}

func TestSelect_EmptyAndUnranked(t *testing.T) {
	d := engine.Select(nil)
	assert.Nil(t, d.Selected)
	assert.False(t, d.IsOverdue)
	assert.Equal(t, engine.UrgencyNone, d.Urgency())

	// Only past events: nothing actionable.
	d = engine.Select([]engine.Candidate{{Kind: engine.KindEaster, DaysOffset: -3}})
	assert.Nil(t, d.Selected)
}

func TestSelect_MostOverdueWins(t *testing.T) {
	d := engine.Select([]engine.Candidate{
		{Kind: engine.KindTouchBase, DaysOffset: -2},
		{Kind: engine.KindTouchBase, DaysOffset: -9},
		{Kind: engine.KindBirthday, DaysOffset: 0},
	})
	require.NotNil(t, d.Selected)
	assert.Equal(t, -9, d.Selected.DaysOffset)
	assert.True(t, d.IsOverdue)
}

func TestSelect_DoesNotAliasInput(t *testing.T) {
	in := []engine.Candidate{{Kind: engine.KindChristmas, DaysOffset: 3}}
	d := engine.Select(in)
	require.NotNil(t, d.Selected)
	d.Selected.DaysOffset = 100
	assert.Equal(t, 3, in[0].DaysOffset)
}

func TestUrgencyBuckets(t *testing.T) {
	tests := []struct {
		offset int
		want   engine.Urgency
	}{
		{-5, engine.UrgencyDue},
		{0, engine.UrgencyDue},
		{1, engine.UrgencyDueSoon},
		{14, engine.UrgencyDueSoon},
		{15, engine.UrgencyNotDue},
	}
	for _, tt := range tests {
		d := engine.Decision{Selected: &engine.Candidate{Kind: engine.KindBirthday, DaysOffset: tt.offset}}
		assert.Equal(t, tt.want, d.Urgency(), "offset %d", tt.offset)
	}

	u, ok := engine.ParseUrgency("due_soon")
	assert.True(t, ok)
	assert.Equal(t, engine.UrgencyDueSoon, u)
	_, ok = engine.ParseUrgency("later")
	assert.False(t, ok)
}

func TestKind_MarshalText(t *testing.T) {
	text, err := engine.KindTouchBaseNeedsSetup.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "touch_base_needs_setup", string(text))
	assert.Equal(t, "unknown", engine.Kind(99).String())
}

func TestKind_UnmarshalText(t *testing.T) {
	var k engine.Kind
	require.NoError(t, k.UnmarshalText([]byte("christmas")))
	assert.Equal(t, engine.KindChristmas, k)
	assert.Error(t, k.UnmarshalText([]byte("halloween")))
}
