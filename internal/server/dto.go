package server

import (
	"errors"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

// CandidateDTO is the wire form of a selected candidate.
type CandidateDTO struct {
	Kind       engine.Kind `json:"kind"`
	DaysOffset int         `json:"days_offset"`
	OccursOn   string      `json:"occurs_on,omitempty"`
	Age        *int        `json:"age,omitempty"`
	Frequency  string      `json:"frequency,omitempty"`
	Plan       string      `json:"plan,omitempty"`
}

// DecisionDTO is the wire form of a decision. Selected is null when there is
// nothing to act on.
type DecisionDTO struct {
	Selected  *CandidateDTO  `json:"selected"`
	IsOverdue bool           `json:"is_overdue"`
	Urgency   engine.Urgency `json:"urgency"`
}

// ContactDTO is one row of the contact list.
type ContactDTO struct {
	UID      string      `json:"uid"`
	Name     string      `json:"name"`
	Decision DecisionDTO `json:"decision"`
}

// ContactListDTO wraps the list with the date it was resolved against.
type ContactListDTO struct {
	Today    string       `json:"today"`
	Contacts []ContactDTO `json:"contacts"`
}

// ResolveRequest is the body of POST /api/v1/resolve. Dates use YYYY-MM-DD;
// the birthday also accepts --MM-DD when the year is unknown.
type ResolveRequest struct {
	Today           string `json:"today,omitempty"`
	Birthday        string `json:"birthday,omitempty"`
	Frequency       string `json:"keep_in_touch_frequency,omitempty"`
	LastInteraction string `json:"last_interaction,omitempty"`
	ChristmasPlan   string `json:"christmas_plan,omitempty"`
	EasterPlan      string `json:"easter_plan,omitempty"`
}

// InteractionRequest is the optional body of POST .../interactions.
type InteractionRequest struct {
	Date string `json:"date,omitempty"`
}

func toDecisionDTO(d engine.Decision) DecisionDTO {
	dto := DecisionDTO{IsOverdue: d.IsOverdue, Urgency: d.Urgency()}
	c := d.Selected
	if c == nil {
		return dto
	}

	sel := &CandidateDTO{Kind: c.Kind, DaysOffset: c.DaysOffset, Plan: c.Plan}
	if c.OccursOn != nil {
		sel.OccursOn = c.OccursOn.Format(config.DateFormatFullDash)
	}
	if c.AgeKnown {
		age := c.Age
		sel.Age = &age
	}
	switch c.Kind {
	case engine.KindTouchBase, engine.KindTouchBaseNeedsSetup, engine.KindTouchBaseRelaxed:
		sel.Frequency = c.Frequency.String()
	}
	dto.Selected = sel
	return dto
}

func toContactDTO(e engine.ContactEntry) ContactDTO {
	return ContactDTO{UID: e.UID, Name: e.Name, Decision: toDecisionDTO(e.Decision)}
}

// parseDay parses a full calendar date.
func parseDay(value string) (time.Time, error) {
	t, err := time.Parse(config.DateFormatFullDash, value)
	if err != nil {
		return time.Time{}, errors.New(config.ErrInvalidDate)
	}
	return t, nil
}

// Profile validates the request and converts it to an engine profile.
// Input validation lives here; the engine assumes well-formed profiles.
func (req ResolveRequest) Profile() (engine.ContactEngagementProfile, error) {
	var p engine.ContactEngagementProfile

	if req.Birthday != "" {
		d, yearKnown, err := engine.ParseDate(req.Birthday)
		if err != nil {
			return p, errors.New(config.ErrInvalidBirthday)
		}
		p.Birthday = &engine.Birthday{Date: d, YearKnown: yearKnown}
	}

	if req.Frequency != "" {
		if err := p.TouchBaseFrequency.UnmarshalText([]byte(req.Frequency)); err != nil {
			return p, errors.New(config.ErrInvalidFrequency)
		}
	}

	if req.LastInteraction != "" {
		d, err := parseDay(req.LastInteraction)
		if err != nil {
			return p, errors.New(config.ErrYearRequired)
		}
		p.LastInteractionDate = &d
	}

	p.ChristmasPlan = req.ChristmasPlan
	p.EasterPlan = req.EasterPlan
	return p, nil
}
