package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// HTTPHolidaySource reads holiday dates from a public-holiday JSON API that
// returns an array of {"date": "YYYY-MM-DD", "name": ..., "localName": ...}
// objects, such as Nager.Date (/api/v3/PublicHolidays/{year}/{country}).
type HTTPHolidaySource struct {
	Fetcher Fetcher
	// URLTemplate contains a single %d verb for the year.
	URLTemplate string
	// Names maps each holiday to the "name" (or "localName") used by the API.
	Names map[Holiday]string
}

// NewHTTPHolidaySource builds a source for urlTemplate, matching Easter by easterName.
func NewHTTPHolidaySource(urlTemplate, easterName string) *HTTPHolidaySource {
	if easterName == "" {
		easterName = config.DefaultHolidayName
	}
	return &HTTPHolidaySource{
		Fetcher: &HTTPFetcher{
			Client:   &http.Client{Timeout: config.HTTPTimeout},
			MaxBytes: config.MaxHolidayBodySize,
			Accept:   config.MimeJSON,
		},
		URLTemplate: urlTemplate,
		Names: map[Holiday]string{
			HolidayEaster:    easterName,
			HolidayChristmas: "Christmas Day",
		},
	}
}

// FetchAuthoritativeDate implements HolidaySource.
func (s *HTTPHolidaySource) FetchAuthoritativeDate(ctx context.Context, holiday Holiday, year int) (time.Time, error) {
	name, ok := s.Names[holiday]
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %s", config.ErrHolidayMissing, holiday)
	}
	if s.Fetcher == nil {
		return time.Time{}, errors.New(config.ErrFetcherMissing)
	}

	slog.Debug(config.MsgHolidayFetch,
		config.LogKeyComponent, config.CompHoliday,
		config.LogKeyHoliday, string(holiday),
		config.LogKeyYear, year,
	)

	rc, err := s.Fetcher.Fetch(ctx, fmt.Sprintf(s.URLTemplate, year), "", "")
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", config.ErrHolidayStatus, err)
	}
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	if err != nil {
		return time.Time{}, err
	}
	return findHolidayDate(body, name)
}

// findHolidayDate looks the holiday up by English name first, then local name.
func findHolidayDate(body []byte, name string) (time.Time, error) {
	if !gjson.ValidBytes(body) {
		return time.Time{}, errors.New(config.ErrHolidayMissing)
	}

	for _, field := range []string{"name", "localName"} {
		query := fmt.Sprintf(`#(%s==%q).date`, field, name)
		res := gjson.GetBytes(body, query)
		if !res.Exists() {
			continue
		}
		d, err := time.Parse(config.DateFormatFullDash, res.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", config.ErrDateParse, err)
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%s: %q", config.ErrHolidayMissing, name)
}
