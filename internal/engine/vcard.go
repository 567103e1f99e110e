package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// DecodeContacts reads a vCard stream into contacts. Malformed cards and
// unparseable dates are skipped with a log entry so that one bad card does not
// hide the rest of the address book.
func DecodeContacts(ctx context.Context, r io.Reader) ([]Contact, error) {
	decoder := vcard.NewDecoder(r)
	var contacts []Contact

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, err)
			// A decoder error leaves the stream position undefined.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			continue
		}

		contacts = append(contacts, contactFromCard(card))
	}
	return contacts, nil
}

func contactFromCard(card vcard.Card) Contact {
	// Name Strategy: FN (Formatted) > N (Structured) > Fallback
	name := config.FallbackName
	if fn := fieldValue(card, config.VCardFN); fn != "" {
		name = fn
	} else if n := fieldValue(card, config.VCardN); n != "" {
		name = strings.TrimSpace(strings.ReplaceAll(n, ";", " "))
	}

	var p ContactEngagementProfile

	if raw := fieldValue(card, config.VCardBDAY); raw != "" {
		if d, yearKnown, err := ParseDate(raw); err == nil {
			p.Birthday = &Birthday{Date: d, YearKnown: yearKnown}
		} else {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, name,
				config.LogKeyValue, raw)
		}
	}

	if raw := fieldValue(card, config.VCardKeepInTouch); raw != "" {
		f, ok := ParseFrequency(raw)
		if !ok {
			slog.Warn(config.MsgSkippedFreq,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, name,
				config.LogKeyValue, raw)
		}
		p.TouchBaseFrequency = f
	}

	if raw := fieldValue(card, config.VCardLastInteraction); raw != "" {
		if d, yearKnown, err := ParseDate(raw); err == nil && yearKnown {
			p.LastInteractionDate = &d
		} else {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, name,
				config.LogKeyValue, raw)
		}
	}

	p.ChristmasPlan = fieldValue(card, config.VCardChristmas)
	p.EasterPlan = fieldValue(card, config.VCardEaster)

	uid := fieldValue(card, config.VCardUID)
	if uid == "" {
		uid = contentUID(name, p.Birthday)
	}

	return Contact{UID: uid, Name: name, Profile: p}
}

func fieldValue(card vcard.Card, key string) string {
	if f := card.Get(key); f != nil {
		return strings.TrimSpace(f.Value)
	}
	return ""
}

// contentUID derives a deterministic identifier for cards without a UID so
// that feed events stay stable across refreshes.
func contentUID(name string, bd *Birthday) string {
	bday := ""
	if bd != nil {
		bday = bd.Date.Format(time.RFC3339)
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf(config.FormatHashInput, name, bday, config.UIDSalt)))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}

// ParseDate handles the vCard date formats. yearKnown is false for the
// truncated --MM-DD forms, which are placed in a leap year so Feb 29 survives.
func ParseDate(value string) (time.Time, bool, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return CalendarDate(t), true, nil
		}
	}

	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return time.Date(config.DefaultLeapYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}
