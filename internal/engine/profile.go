package engine

import "time"

// Birthday is a stored date of birth. Only month and day drive scheduling;
// the year is used to estimate the age and may be unknown (vCard --MM-DD).
type Birthday struct {
	Date      time.Time
	YearKnown bool
}

// ContactEngagementProfile is the read-only snapshot of a contact that the
// scheduler consumes. The engine never mutates it and reads nothing else.
type ContactEngagementProfile struct {
	Birthday            *Birthday
	TouchBaseFrequency  Frequency
	LastInteractionDate *time.Time

	// Plans only surface as decision metadata, they never change scheduling.
	ChristmasPlan string
	EasterPlan    string
}
