package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslatorDefaultsToPortuguese(t *testing.T) {
	tr := NewTranslator("pt-BR")

	assert.Equal(t, "🎉 Presença registrada com sucesso!", tr.T("", AttendanceRecorded, nil))
	assert.Equal(t, "⚠️📍 Código inválido para esta data ou você não está no local do evento.", tr.T("de-DE", AdmissionRejected, nil))
}

func TestTranslatorAcceptLanguage(t *testing.T) {
	tr := NewTranslator("pt-BR")

	assert.Equal(t, "Event not found", tr.T("en-US,en;q=0.9", EventNotFound, nil))
	assert.Equal(t, "Evento não encontrado", tr.T("pt-BR,pt;q=0.9,en;q=0.5", EventNotFound, nil))
}

func TestTranslatorTemplateData(t *testing.T) {
	tr := NewTranslator("en")

	msg := tr.T("", KeywordTaken, map[string]any{"Keyword": "FOO"})
	assert.Equal(t, `The keyword "FOO" is already used by another event`, msg)
}

func TestTranslatorUnknownKey(t *testing.T) {
	tr := NewTranslator("not a locale")

	assert.Equal(t, "no_such_key", tr.T("en", "no_such_key", nil))
	assert.Empty(t, tr.T("en", "", nil))
}
