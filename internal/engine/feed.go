package engine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// SummaryFunc renders the human-readable title of a selected candidate.
type SummaryFunc func(name string, c Candidate) string

// FeedOptions controls the iCalendar rendering.
type FeedOptions struct {
	// Now stamps DTSTAMP and anchors overdue and sentinel events on its date.
	Now time.Time
	// ReminderTrigger is an ISO8601 duration such as "-P1D"; empty disables alarms.
	ReminderTrigger string
	Summary         SummaryFunc
}

// BuildFeed renders one all-day VEVENT per actionable decision. Opted-out
// contacts produce no event. It returns the encoded calendar and the number of
// events it contains.
func BuildFeed(entries []ContactEntry, opts FeedOptions) ([]byte, int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(opts.Now.UTC())
	today := CalendarDate(opts.Now)

	summary := opts.Summary
	if summary == nil {
		summary = DefaultSummary
	}

	for _, e := range entries {
		c := e.Decision.Selected
		if c == nil || c.Kind == KindTouchBaseRelaxed {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, e.UID, c.Kind, config.ICalDomain))
		event.Props.Set(dtStampProp)

		title := summary(e.Name, *c)
		event.Props.SetText(config.PropSummary, title)
		event.Props.SetText(config.PropCategories, c.Kind.String())
		if c.Plan != "" {
			event.Props.SetText(config.PropDescription, c.Plan)
		}

		// Overdue and sentinel reminders are anchored on today so they stay visible.
		eventDate := today
		if c.OccursOn != nil && c.DaysOffset >= 0 {
			eventDate = *c.OccursOn
		}
		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(eventDate)
		event.Props.Set(dtStartProp)

		if opts.ReminderTrigger != "" {
			addAlarm(event, opts.ReminderTrigger, title)
		}

		cal.Children = append(cal.Children, event.Component)
	}

	// An empty VCALENDAR fails go-ical validation; serve the stub instead so
	// clients do not flag the feed as invalid.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), len(cal.Children), nil
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// DefaultSummary is the English title used when no message catalog is wired.
func DefaultSummary(name string, c Candidate) string {
	switch c.Kind {
	case KindBirthday:
		if c.AgeKnown {
			return fmt.Sprintf(config.FallbackEvtAge, name, c.Age)
		}
		return fmt.Sprintf(config.FallbackEvtBirthday, name)
	case KindTouchBase:
		if c.DaysOffset < 0 {
			return fmt.Sprintf(config.FallbackEvtOverdue, name, -c.DaysOffset)
		}
		return fmt.Sprintf(config.FallbackEvtDefault, name, c.Frequency)
	default:
		return fmt.Sprintf(config.FallbackEvtDefault, name, c.Kind)
	}
}
