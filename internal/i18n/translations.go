// Package i18n renders user-facing messages in Portuguese and English.
package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// Message ids.
const (
	FormIncomplete      = "form_incomplete"
	ParticipantIDDigits = "participant_id_digits"
	CoordinatesRange    = "coordinates_out_of_range"
	InvalidDate         = "invalid_date"
	AdmissionRejected   = "admission_rejected"
	AttendanceRecorded  = "attendance_recorded"
	TechnicalError      = "technical_error"
	EventCreated        = "event_created"
	EventUpdated        = "event_updated"
	EventDeleted        = "event_deleted"
	EventNotFound       = "event_not_found"
	EventIncomplete     = "event_incomplete"
	EventIDMissing      = "event_id_missing"
	KeywordTaken        = "keyword_taken"
	EventConflict       = "event_conflict"
	WrongPassword       = "wrong_password"
	Unauthorized        = "unauthorized"
	RateLimited         = "rate_limited"
)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator builds a Translator with the embedded pt-BR and en catalogs.
// Unknown locales fall back to defaultLocale.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.pt-BR.toml", "active.en.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			slog.Error("i18n: load catalog", "file", file, "err", err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
	}
}

// T renders the message identified by key. locale may be a single tag or a
// raw Accept-Language header. Missing translations fall back to the default
// locale, then to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("i18n: localize failed", "key", key, "locales", languages, "err", err)
		return key
	}
	return msg
}
