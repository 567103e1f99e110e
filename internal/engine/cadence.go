package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Frequency is the configured touch-base cadence of a contact.
type Frequency int

const (
	NotSet Frequency = iota
	Weekly
	Monthly
	Quarterly
	TwiceAYear
	OnceAYear
	DoNotKeepInTouch
)

var frequencyLabels = map[Frequency]string{
	NotSet:           config.FrequencyLabelNotSet,
	Weekly:           config.FrequencyLabelWeekly,
	Monthly:          config.FrequencyLabelMonthly,
	Quarterly:        config.FrequencyLabelQuarter,
	TwiceAYear:       config.FrequencyLabelTwice,
	OnceAYear:        config.FrequencyLabelOnce,
	DoNotKeepInTouch: config.FrequencyLabelDoNotKIT,
}

// frequencyAliases maps normalized input (lower case, single spaces) to a Frequency.
var frequencyAliases = map[string]Frequency{
	"":                     NotSet,
	"not set":              NotSet,
	"weekly":               Weekly,
	"monthly":              Monthly,
	"quarterly":            Quarterly,
	"twice per year":       TwiceAYear,
	"twice a year":         TwiceAYear,
	"once per year":        OnceAYear,
	"once a year":          OnceAYear,
	"yearly":               OnceAYear,
	"do not keep in touch": DoNotKeepInTouch,
}

// String returns the label used by the dashboard.
func (f Frequency) String() string {
	if l, ok := frequencyLabels[f]; ok {
		return l
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// MarshalText encodes the frequency as its dashboard label.
func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText is strict: unknown labels are an input error at API boundaries.
func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, ok := ParseFrequency(string(text))
	if !ok {
		return fmt.Errorf("unknown keep-in-touch frequency %q", string(text))
	}
	*f = parsed
	return nil
}

// ParseFrequency accepts dashboard labels ("Twice per Year") and their
// snake_case or kebab-case forms, case-insensitively. Unknown input yields
// NotSet and false.
func ParseFrequency(s string) (Frequency, bool) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(s))
	norm = strings.Join(strings.Fields(norm), " ")
	f, ok := frequencyAliases[norm]
	return f, ok
}

// IsCadence reports whether f schedules real touch-base deadlines.
func (f Frequency) IsCadence() bool {
	return f >= Weekly && f <= OnceAYear
}

// NextDueDate adds the cadence interval to last. Intervals are calendar based;
// month steps clamp to the end of the target month (Jan 31 + 1 month = Feb 28/29).
// ok is false for the sentinel states.
func NextDueDate(f Frequency, last time.Time) (due time.Time, ok bool) {
	last = CalendarDate(last)
	switch f {
	case Weekly:
		return last.AddDate(0, 0, 7), true
	case Monthly:
		return addMonthsClamped(last, 1), true
	case Quarterly:
		return addMonthsClamped(last, 3), true
	case TwiceAYear:
		return addMonthsClamped(last, 6), true
	case OnceAYear:
		return addMonthsClamped(last, 12), true
	default:
		return time.Time{}, false
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ResolveCadence materializes the touch-base candidate of a contact.
// It never fails: a real cadence without any recorded interaction is due today.
func ResolveCadence(f Frequency, lastInteraction *time.Time, today time.Time) Candidate {
	today = CalendarDate(today)

	switch {
	case f == DoNotKeepInTouch:
		return Candidate{Kind: KindTouchBaseRelaxed, DaysOffset: RelaxedOffset, Frequency: f}
	case !f.IsCadence():
		return Candidate{Kind: KindTouchBaseNeedsSetup, DaysOffset: 0, Frequency: NotSet}
	}

	due := today
	if lastInteraction != nil {
		due, _ = NextDueDate(f, *lastInteraction)
	}
	return Candidate{
		Kind:       KindTouchBase,
		DaysOffset: DaysBetween(today, due),
		OccursOn:   &due,
		Frequency:  f,
	}
}
