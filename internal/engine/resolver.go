package engine

import (
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Decision is the single next event of a contact. A nil Selected is a valid
// outcome meaning there is nothing to act on.
type Decision struct {
	Selected  *Candidate
	IsOverdue bool
}

// Urgency buckets a decision for list views.
type Urgency string

const (
	UrgencyNone    Urgency = "none"
	UrgencyDue     Urgency = "due"
	UrgencyDueSoon Urgency = "due_soon"
	UrgencyNotDue  Urgency = "not_due"
)

// ParseUrgency validates a bucket name coming from a query string.
func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(s); u {
	case UrgencyNone, UrgencyDue, UrgencyDueSoon, UrgencyNotDue:
		return u, true
	}
	return "", false
}

// Urgency returns due (today or overdue), due_soon (within
// config.DueSoonWindowDays) or not_due.
func (d Decision) Urgency() Urgency {
	switch {
	case d.Selected == nil:
		return UrgencyNone
	case d.Selected.DaysOffset <= 0:
		return UrgencyDue
	case d.Selected.DaysOffset <= config.DueSoonWindowDays:
		return UrgencyDueSoon
	default:
		return UrgencyNotDue
	}
}

// tieBreak orders kinds sharing the smallest offset; lower wins.
var tieBreak = map[Kind]int{
	KindBirthday:  0,
	KindTouchBase: 1,
	KindEaster:    2,
	KindChristmas: 3,
}

// Resolver picks the next event of a contact.
type Resolver struct {
	Builder Builder
}

// NewResolver returns a Resolver over the given holiday calendar.
// A nil calendar uses the computed dates.
func NewResolver(holidays HolidayCalendar) *Resolver {
	return &Resolver{Builder: Builder{Holidays: holidays}}
}

// Resolve builds the candidates of profile and selects one. It is total and
// deterministic for a given (profile, today).
func (r *Resolver) Resolve(profile ContactEngagementProfile, today time.Time) Decision {
	return Select(r.Builder.Build(profile, today))
}

// Select applies the priority policy, first match wins:
//
//  1. a missing cadence (TouchBaseNeedsSetup)
//  2. an overdue TouchBase, the most overdue if several
//  3. an opted-out contact (TouchBaseRelaxed), which mutes holidays and birthdays
//  4. the smallest non-negative offset among Birthday, TouchBase, Easter and
//     Christmas, ties broken Birthday > TouchBase > Easter > Christmas
//
// An empty candidate set yields an empty decision.
func Select(candidates []Candidate) Decision {
	var overdue, relaxed, best *Candidate

	for i := range candidates {
		c := &candidates[i]
		switch c.Kind {
		case KindTouchBaseNeedsSetup:
			return decide(c)
		case KindTouchBaseRelaxed:
			if relaxed == nil {
				relaxed = c
			}
			continue
		case KindTouchBase:
			if c.DaysOffset < 0 {
				if overdue == nil || c.DaysOffset < overdue.DaysOffset {
					overdue = c
				}
				continue
			}
		}

		if _, ranked := tieBreak[c.Kind]; !ranked || c.DaysOffset < 0 {
			continue
		}
		if best == nil || outranks(c, best) {
			best = c
		}
	}

	switch {
	case overdue != nil:
		return decide(overdue)
	case relaxed != nil:
		return decide(relaxed)
	case best != nil:
		return decide(best)
	}
	return Decision{}
}

func outranks(a, b *Candidate) bool {
	if a.DaysOffset != b.DaysOffset {
		return a.DaysOffset < b.DaysOffset
	}
	return tieBreak[a.Kind] < tieBreak[b.Kind]
}

func decide(c *Candidate) Decision {
	selected := *c
	return Decision{
		Selected:  &selected,
		IsOverdue: selected.Kind == KindTouchBase && selected.DaysOffset < 0,
	}
}
