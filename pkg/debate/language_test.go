package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"spanish question", "¿Qué es esto y por qué?", Spanish},
		{"english question", "What is this and why?", English},
		{"spanish statement", "La inteligencia artificial también tiene riesgos para la sociedad", Spanish},
		{"single weak signal defaults to english", "El programa", English},
		{"empty", "", English},
		{"diacritics alone count", "café olé", Spanish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestLanguageDirective(t *testing.T) {
	d := LanguageDirective(Spanish)
	assert.Contains(t, d, "ENTIRELY in Spanish")
	assert.Contains(t, LanguageDirective(English), "ENTIRELY in English")
}
