package i18n

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

func newTestTranslator(locale string) *Translator {
	return NewTranslator(locale, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTranslator_DefaultIndonesian(t *testing.T) {
	tr := newTestTranslator("id")

	assert.Equal(t, "id", tr.DefaultLocale())
	assert.Equal(t, "Gagal login sebagai admin", tr.T("", KeyLoginFailed, nil))
	assert.Equal(t, "Gagal mengambil data pendaftar", tr.T("", KeyFetchFailed, nil))
	assert.Equal(t, "Halaman 4 tidak tersedia", tr.T("", KeyPageOutOfRange, map[string]any{"Page": 4}))
}

func TestTranslator_EnglishAndFallback(t *testing.T) {
	tr := newTestTranslator("id")

	assert.Equal(t, "Failed to submit registration", tr.T("en", KeyRegisterFailed, nil))
	assert.Equal(t, "Gagal mengirim data pendaftaran", tr.T("fr", KeyRegisterFailed, nil), "unknown locale falls back to default")
	assert.Equal(t, "missing_key", tr.T("en", "missing_key", nil))
	assert.Empty(t, tr.T("en", "", nil))
}

func TestTranslator_InvalidDefaultLocale(t *testing.T) {
	tr := newTestTranslator("not a locale!")
	assert.Equal(t, "id", tr.DefaultLocale())
}

func TestTranslator_Plural(t *testing.T) {
	tr := newTestTranslator("id")

	assert.Equal(t, "1 registrant", tr.N("en", KeyRegistrantsCount, 1))
	assert.Equal(t, "32 registrants", tr.N("en", KeyRegistrantsCount, 32))
	assert.Equal(t, "32 pendaftar", tr.N("id", KeyRegistrantsCount, 32))
}

func TestTranslator_ExportLabels(t *testing.T) {
	tr := newTestTranslator("id")

	assert.Equal(t, viewer.DefaultLabels(), tr.ExportLabels("id"))

	en := tr.ExportLabels("en")
	assert.Equal(t, "Registrants", en.Sheet)
	assert.Equal(t, "None", en.None)
	assert.Equal(t, [5]string{"ID", "Full Name", "Email", "Phone Number", "Document"}, en.Header)
}

func TestTranslator_Match(t *testing.T) {
	tr := newTestTranslator("id")

	tests := []struct {
		header string
		want   string
	}{
		{"", "id"},
		{"en-US,en;q=0.9", "en"},
		{"id-ID,id;q=0.9,en;q=0.5", "id"},
		{"fr-FR", "id"},
		{"de;q=0.8,en;q=0.5", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Match(tt.header))
		})
	}

	assert.ElementsMatch(t, []string{"id", "en"}, tr.Supported())
}
