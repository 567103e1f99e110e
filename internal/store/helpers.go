package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

const contactColumns = `contact_id, name, birthday, keep_in_touch_frequency, last_interaction_at, christmas, easter`

// encodeBirthday stores birthdays in the vCard date forms: YYYY-MM-DD, or
// --MM-DD when the year is unknown.
func encodeBirthday(bd *engine.Birthday) interface{} {
	if bd == nil {
		return nil
	}
	if bd.YearKnown {
		return bd.Date.Format(config.DateFormatFullDash)
	}
	return bd.Date.Format(config.DateFormatNoYearD)
}

// nullTime returns nil for a missing date. Used for nullable timestamp columns.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return engine.CalendarDate(*t)
}

// scanContact scans a Contact from sql.Rows.
func scanContact(rows *sql.Rows) (engine.Contact, error) {
	var c engine.Contact
	var birthday sql.NullString
	var frequency string
	var last sql.NullTime

	err := rows.Scan(&c.UID, &c.Name, &birthday, &frequency, &last, &c.Profile.ChristmasPlan, &c.Profile.EasterPlan)
	if err != nil {
		return c, fmt.Errorf("%s: %w", config.ErrStoreScan, err)
	}

	if birthday.Valid && birthday.String != "" {
		d, yearKnown, err := engine.ParseDate(birthday.String)
		if err != nil {
			slog.Warn(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompStore,
				config.LogKeyUID, c.UID,
				config.LogKeyValue, birthday.String)
		} else {
			c.Profile.Birthday = &engine.Birthday{Date: d, YearKnown: yearKnown}
		}
	}

	f, ok := engine.ParseFrequency(frequency)
	if !ok {
		slog.Warn(config.MsgSkippedFreq,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyUID, c.UID,
			config.LogKeyValue, frequency)
	}
	c.Profile.TouchBaseFrequency = f

	if last.Valid {
		// Drivers may hand the timestamp back in the session zone.
		d := engine.CalendarDate(last.Time.UTC())
		c.Profile.LastInteractionDate = &d
	}
	return c, nil
}
