// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNew_Matching(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"en-GB", language.English},
		{"es", language.Spanish},
		{"es-MX", language.Spanish},
		{"es_ES.UTF-8", language.Spanish},
		{"fr", language.English},
		{"not a tag", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in).Tag())
		})
	}
}

func TestText_ErrorCategories(t *testing.T) {
	en := Default()
	assert.Equal(t, "Error: Could not connect to the service.", en.Text(NetworkError))
	assert.NotEmpty(t, en.Text(RateLimitError))
	assert.NotEqual(t, en.Text(RateLimitError), en.Text(ServerError))

	es := New("es")
	assert.Equal(t, "Error: no se pudo conectar con el servicio.", es.Text(NetworkError))
}

func TestText_Formatting(t *testing.T) {
	assert.Equal(t, "Page 4", Default().Text(PageLabel, 4))
	assert.Equal(t, "Página 4", New("es").Text(PageLabel, 4))
	assert.Equal(t, "Exported to /tmp/x.md", Default().Text(Exported, "/tmp/x.md"))
}

func TestText_FallsBackToEnglish(t *testing.T) {
	// HelpHint has no Spanish translation.
	assert.Equal(t, Default().Text(HelpHint), New("es").Text(HelpHint))
}

func TestEveryKeyTranslatedInEnglish(t *testing.T) {
	for key, es := range translations[spanish] {
		_, ok := translations[english][key]
		assert.True(t, ok, "spanish key %q (%q) missing in english", key, es)
	}
}

func TestSupported(t *testing.T) {
	tags := Supported()
	assert.Len(t, tags, 2)
	tags[0] = language.French
	assert.Equal(t, language.English, Supported()[0])
}

func TestNormalizePOSIX(t *testing.T) {
	assert.Equal(t, "es-ES", normalizePOSIX("es_ES.UTF-8"))
	assert.Equal(t, "de-DE", normalizePOSIX("de_DE@euro"))
	assert.Equal(t, "en", normalizePOSIX("en"))
}
