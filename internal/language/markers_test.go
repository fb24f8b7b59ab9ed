package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/errors"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		code        string
		wantChapter string
	}{
		{"en", "chapter"},
		{"en-US", "chapter"},
		{"en_GB", "chapter"},
		{"english", "chapter"},
		{"English", "chapter"},
		{"es", "capítulo"},
		{"de", "kapitel"},
		{"de-AT", "kapitel"},
		{"fr", "chapitre"},
		{"it", "capitolo"},
		{"pt-BR", "capítulo"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			table, err := Lookup(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChapter, table.Markers[MarkerChapter])
		})
	}
}

func TestLookupUnsupported(t *testing.T) {
	// tlh, ja, and ru parse as valid BCP 47 tags; the matcher still nominates
	// a fallback table for them, so Lookup must reject on base language.
	for _, code := range []string{"", "zz", "tlh", "ja", "ru", "zh-CN", "!!"} {
		t.Run(code, func(t *testing.T) {
			_, err := Lookup(code)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrUnsupportedLang)
		})
	}
}

func TestMarkerOrdering(t *testing.T) {
	table, err := Lookup("en")
	require.NoError(t, err)

	assert.Equal(t, "prologue", table.Markers[MarkerPrologue])
	assert.Equal(t, "preface", table.Markers[MarkerPrologueAlt])
	assert.Equal(t, "chapter", table.Markers[MarkerChapter])
	assert.Equal(t, "epilogue", table.Markers[MarkerEpilogue])
	assert.NotEmpty(t, table.Excluded)
}

func TestSupported(t *testing.T) {
	codes := Supported()
	assert.Contains(t, codes, "en-US")
	assert.Contains(t, codes, "es")
	assert.Len(t, codes, 6)
}

func TestTitle(t *testing.T) {
	en, err := Lookup("en")
	require.NoError(t, err)
	assert.Equal(t, "Chapter", en.Title("chapter"))
	assert.Equal(t, "Prologue", en.Title("prologue"))

	es, err := Lookup("es")
	require.NoError(t, err)
	assert.Equal(t, "Capítulo", es.Title("capítulo"))
}
