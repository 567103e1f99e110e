package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Kind tags the variant of a Candidate.
type Kind int

const (
	KindBirthday Kind = iota
	KindEaster
	KindChristmas
	KindTouchBase
	KindTouchBaseNeedsSetup
	KindTouchBaseRelaxed
)

// RelaxedOffset is the sentinel distance of a "do not keep in touch" contact:
// larger than any real annual deadline.
const RelaxedOffset = config.RelaxedOffsetDays

var kindNames = map[Kind]string{
	KindBirthday:            "birthday",
	KindEaster:              "easter",
	KindChristmas:           "christmas",
	KindTouchBase:           "touch_base",
	KindTouchBaseNeedsSetup: "touch_base_needs_setup",
	KindTouchBaseRelaxed:    "touch_base_relaxed",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// MarshalText encodes the kind as its snake_case name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a snake_case kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown candidate kind %q", string(text))
}

// Candidate is one possible next event of a contact. Candidates are built
// fresh on every resolution and never cached.
type Candidate struct {
	Kind Kind
	// DaysOffset is negative when overdue, 0 today, positive upcoming.
	DaysOffset int
	// OccursOn is nil for the sentinel touch-base kinds.
	OccursOn *time.Time

	// Birthday: the age being turned, valid only when AgeKnown.
	Age      int
	AgeKnown bool
	// Touch-base kinds: the active cadence.
	Frequency Frequency
	// Holidays: the stored plan, config.WishesNotSet when empty.
	Plan string
}

// Builder materializes the candidate set of a contact.
type Builder struct {
	Holidays HolidayCalendar
}

// Build returns the candidates of profile relative to today. Holidays are
// universal and always emitted; the emission order carries no meaning.
func (b Builder) Build(profile ContactEngagementProfile, today time.Time) []Candidate {
	today = CalendarDate(today)
	holidays := b.Holidays
	if holidays == nil {
		holidays = ComputedHolidays{}
	}

	candidates := make([]Candidate, 0, 4)

	if bd := profile.Birthday; bd != nil {
		candidates = append(candidates, birthdayCandidate(*bd, today))
	}

	candidates = append(candidates, ResolveCadence(profile.TouchBaseFrequency, profile.LastInteractionDate, today))
	candidates = append(candidates,
		holidayCandidate(KindEaster, holidays.Easter, profile.EasterPlan, today),
		holidayCandidate(KindChristmas, holidays.Christmas, profile.ChristmasPlan, today),
	)
	return candidates
}

func birthdayCandidate(bd Birthday, today time.Time) Candidate {
	next := NextAnnualOccurrence(MonthDayOf(bd.Date), today)
	c := Candidate{
		Kind:       KindBirthday,
		DaysOffset: DaysBetween(today, next),
		OccursOn:   &next,
	}
	if bd.YearKnown {
		// Age on the occurrence itself: current age + 1, or the current age
		// when the birthday is today.
		if age := AgeInYears(bd.Date, next); age >= 0 {
			c.Age, c.AgeKnown = age, true
		}
	}
	return c
}

func holidayCandidate(kind Kind, dateFor func(int) time.Time, plan string, today time.Time) Candidate {
	next := CalendarDate(dateFor(today.Year()))
	if next.Before(today) {
		next = CalendarDate(dateFor(today.Year() + 1))
	}
	if strings.TrimSpace(plan) == "" {
		plan = config.WishesNotSet
	}
	return Candidate{
		Kind:       kind,
		DaysOffset: DaysBetween(today, next),
		OccursOn:   &next,
		Plan:       plan,
	}
}
