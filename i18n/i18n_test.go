package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, "en"},
		{[]string{""}, "en"},
		{[]string{"es"}, "es"},
		{[]string{"es-MX"}, "es"},
		{[]string{"en-US"}, "en"},
		{[]string{"fr"}, "en"},
		{[]string{"not a tag!!"}, "en"},
		{[]string{"", "es-419,es;q=0.9,en;q=0.8"}, "es"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.in...), "%v", tt.in)
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "Recursos útiles", T("es", "resources_title"))
	assert.Equal(t, "Helpful Resources", T("en", "resources_title"))
	assert.Equal(t, "Helpful Resources", T("de", "resources_title"))
	assert.Equal(t, "no_such_key", T("es", "no_such_key"))
	assert.Contains(t, T("es", "fallback_guidance"), "**Conozca sus derechos.**")
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for key := range messages[Default] {
		_, ok := messages["es"][key]
		assert.True(t, ok, "missing es translation for %s", key)
	}
}

func TestSupportedAndValid(t *testing.T) {
	assert.Equal(t, []string{"en", "es"}, Supported())
	assert.True(t, Valid("es-MX"))
	assert.False(t, Valid("!!"))
}
