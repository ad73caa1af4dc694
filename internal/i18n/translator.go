// Package i18n renders user-facing strings from the embedded active.*.toml message files.
package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

//go:embed active.*.toml
var localeFS embed.FS

var messageFiles = []string{"active.id.toml", "active.en.toml"}

// Message keys shared by handlers and the admin CLI.
const (
	KeyLoginFailed       = "error_login_failed"
	KeyFetchFailed       = "error_fetch_failed"
	KeyRegisterFailed    = "error_register_failed"
	KeyPageOutOfRange    = "error_page_out_of_range"
	KeyExportUnavailable = "error_export_unavailable"
	KeyArchiveFailed     = "error_archive_failed"
	KeySessionExpired    = "error_session_expired"
	KeyRegisterSuccess   = "register_success"
	KeyRegistrantsCount  = "registrants_count"
)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	logger          *slog.Logger
}

// NewTranslator builds a Translator with the given default locale (e.g. "id").
// Unparseable locales fall back to Indonesian.
func NewTranslator(defaultLocale string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "i18n")

	tag, err := language.Parse(defaultLocale)
	if err != nil {
		logger.Warn("invalid default locale, using id", "locale", defaultLocale, "error", err)
		tag = language.Indonesian
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range messageFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Error("failed to load message file", "file", file, "error", err)
		}
	}

	return &Translator{bundle: bundle, defaultLanguage: tag, logger: logger}
}

// DefaultLocale returns the configured default locale.
func (t *Translator) DefaultLocale() string {
	return t.defaultLanguage.String()
}

// T renders the message identified by key for the given locale.
// Missing keys fall back to the default locale, then to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	return t.localize(locale, &i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// N renders a plural message for count. Count is also available to the template as {{.Count}}.
func (t *Translator) N(locale, key string, count int) string {
	return t.localize(locale, &i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (t *Translator) localize(locale string, cfg *i18n.LocalizeConfig) string {
	if cfg.MessageID == "" {
		return ""
	}

	languages := make([]string, 0, 2)
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	msg, err := i18n.NewLocalizer(t.bundle, languages...).Localize(cfg)
	if err != nil {
		t.logger.Debug("localize failed", "key", cfg.MessageID, "locales", languages, "error", err)
		return cfg.MessageID
	}
	return msg
}

// Supported returns the locales that have a message file.
func (t *Translator) Supported() []string {
	tags := t.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}

// Match picks the best supported locale for an Accept-Language header value.
// Returns the default locale when nothing matches or the header is malformed.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.DefaultLocale()
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.DefaultLocale()
	}

	supported := t.bundle.LanguageTags()
	// The matcher treats its first tag as the fallback.
	ordered := make([]language.Tag, 0, len(supported))
	ordered = append(ordered, t.defaultLanguage)
	for _, tag := range supported {
		if tag != t.defaultLanguage {
			ordered = append(ordered, tag)
		}
	}

	_, idx, confidence := language.NewMatcher(ordered).Match(prefs...)
	if confidence == language.No {
		return t.DefaultLocale()
	}
	return ordered[idx].String()
}

// ExportLabels returns the spreadsheet labels for locale.
func (t *Translator) ExportLabels(locale string) viewer.Labels {
	return viewer.Labels{
		Sheet: t.T(locale, "export_sheet", nil),
		Header: [5]string{
			t.T(locale, "export_header_id", nil),
			t.T(locale, "export_header_name", nil),
			t.T(locale, "export_header_email", nil),
			t.T(locale, "export_header_phone", nil),
			t.T(locale, "export_header_attachment", nil),
		},
		None: t.T(locale, "export_none", nil),
	}
}
