package engine

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Holiday identifies a universal (not contact-specific) observance.
type Holiday string

const (
	HolidayEaster    Holiday = "easter"
	HolidayChristmas Holiday = "christmas"
)

// HolidayCalendar resolves the date of each supported holiday for a year.
type HolidayCalendar interface {
	Easter(year int) time.Time
	Christmas(year int) time.Time
}

// HolidaySource is an optional authoritative provider of holiday dates,
// typically backed by a network API.
type HolidaySource interface {
	FetchAuthoritativeDate(ctx context.Context, holiday Holiday, year int) (time.Time, error)
}

// EasterDate calculates Easter Sunday for a Gregorian year using the
// anonymous Gregorian algorithm (Meeus/Jones/Butcher).
func EasterDate(year int) time.Time {
	a := year % 19 // position in the 19-year Metonic cycle
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30 // epact
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7 // weekday correction
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ChristmasDate returns December 25 of year.
func ChristmasDate(year int) time.Time {
	return time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)
}

// ComputedHolidays is the self-sufficient, I/O-free HolidayCalendar.
type ComputedHolidays struct{}

func (ComputedHolidays) Easter(year int) time.Time    { return EasterDate(year) }
func (ComputedHolidays) Christmas(year int) time.Time { return ChristmasDate(year) }

// overrideCalendar prefers dates from an authoritative source and falls back
// to the base calendar on any failure. Outcomes are memoized per year, so a
// batch of contacts costs at most one lookup per year. Callers asking for
// different years never wait on each other.
type overrideCalendar struct {
	ctx     context.Context
	base    HolidayCalendar
	source  HolidaySource
	timeout time.Duration

	group  singleflight.Group
	mu     sync.RWMutex
	easter map[int]time.Time
}

// WithAuthoritativeOverride wraps base so that Easter dates come from source
// when it answers within timeout. A nil source returns base unchanged.
func WithAuthoritativeOverride(base HolidayCalendar, source HolidaySource, timeout time.Duration) HolidayCalendar {
	return WithAuthoritativeOverrideContext(context.Background(), base, source, timeout)
}

// WithAuthoritativeOverrideContext is WithAuthoritativeOverride with lookups
// bound to ctx: once ctx is done, pending and future lookups fall back to base.
func WithAuthoritativeOverrideContext(ctx context.Context, base HolidayCalendar, source HolidaySource, timeout time.Duration) HolidayCalendar {
	if base == nil {
		base = ComputedHolidays{}
	}
	if source == nil {
		return base
	}
	if timeout <= 0 {
		timeout = config.DefaultHolidayTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &overrideCalendar{
		ctx:     ctx,
		base:    base,
		source:  source,
		timeout: timeout,
		easter:  make(map[int]time.Time),
	}
}

func (o *overrideCalendar) Easter(year int) time.Time {
	if d, ok := o.cached(year); ok {
		return d
	}

	v, _, _ := o.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		// A flight for this year may have completed since the first check.
		if d, ok := o.cached(year); ok {
			return d, nil
		}
		d, authoritative := o.lookup(HolidayEaster, year, o.base.Easter)
		// Fallbacks caused by cancellation are not memoized.
		if authoritative || o.ctx.Err() == nil {
			o.mu.Lock()
			o.easter[year] = d
			o.mu.Unlock()
		}
		return d, nil
	})
	return v.(time.Time)
}

func (o *overrideCalendar) cached(year int) (time.Time, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	d, ok := o.easter[year]
	return d, ok
}

// Christmas never varies, there is nothing to ask a source about.
func (o *overrideCalendar) Christmas(year int) time.Time {
	return o.base.Christmas(year)
}

// lookup reports whether the date came from the source.
func (o *overrideCalendar) lookup(h Holiday, year int, fallback func(int) time.Time) (time.Time, bool) {
	log := slog.With(
		config.LogKeyComponent, config.CompHoliday,
		config.LogKeyHoliday, string(h),
		config.LogKeyYear, year,
	)

	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	d, err := o.source.FetchAuthoritativeDate(ctx, h, year)
	if err != nil {
		log.Debug(config.MsgHolidayFailed, config.LogKeyError, err)
		return fallback(year), false
	}

	d = CalendarDate(d)
	if d.Year() != year {
		log.Debug(config.MsgHolidayIgnored, config.LogKeyDate, d.Format(config.DateFormatFullDash))
		return fallback(year), false
	}
	return d, true
}
