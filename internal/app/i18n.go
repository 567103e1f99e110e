package app

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
)

//go:embed locales/*.json
var localeFS embed.FS

// SetupI18n initializes the translation bundle and detects available languages.
func (app *KeepInTouchApp) SetupI18n() {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	app.SupportedLanguages = detectedLangs
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator. Only the English catalog ships.
func (app *KeepInTouchApp) UpdateLocalizer() {
	app.Localizer = i18n.NewLocalizer(app.I18nBundle, config.DefaultLanguage)
}

// SummaryFormatter returns an engine.SummaryFunc backed by the message catalog.
// Missing translations fall back to engine.DefaultSummary.
func (app *KeepInTouchApp) SummaryFormatter() engine.SummaryFunc {
	return func(name string, c engine.Candidate) string {
		if app.Localizer == nil {
			slog.Debug(config.ErrLocNotInit, config.LogKeyComponent, config.CompI18n)
			return engine.DefaultSummary(name, c)
		}

		lc := summaryConfig(name, c)
		msg, err := app.Localizer.Localize(lc)
		if err == nil && msg == "" {
			err = errors.New(config.MsgTransMissing)
		}
		if err != nil {
			slog.Debug(config.MsgTransMissing,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyKey, lc.MessageID,
				config.LogKeyError, err,
			)
			return engine.DefaultSummary(name, c)
		}
		return msg
	}
}

// summaryConfig maps a candidate to its catalog entry and template data.
func summaryConfig(name string, c engine.Candidate) *i18n.LocalizeConfig {
	data := map[string]interface{}{"Name": name}
	lc := &i18n.LocalizeConfig{TemplateData: data}

	switch c.Kind {
	case engine.KindBirthday:
		lc.MessageID = config.TKeyEvtBirthday
		if c.AgeKnown {
			lc.MessageID = config.TKeyEvtBirthdayAge
			data["Age"] = c.Age
		}
	case engine.KindTouchBase:
		if c.DaysOffset < 0 {
			lc.MessageID = config.TKeyEvtOverdue
			data["Count"] = -c.DaysOffset
			lc.PluralCount = -c.DaysOffset
		} else {
			lc.MessageID = config.TKeyEvtTouchBase
			data["Frequency"] = c.Frequency.String()
		}
	case engine.KindTouchBaseNeedsSetup:
		lc.MessageID = config.TKeyEvtNeedsSetup
	case engine.KindTouchBaseRelaxed:
		lc.MessageID = config.TKeyEvtRelaxed
	case engine.KindEaster:
		lc.MessageID = config.TKeyEvtEaster
		data["Plan"] = c.Plan
	case engine.KindChristmas:
		lc.MessageID = config.TKeyEvtChristmas
		data["Plan"] = c.Plan
	}
	return lc
}
