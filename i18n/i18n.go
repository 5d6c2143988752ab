// Package i18n holds the localized strings the pipeline produces on its own:
// fallback guidance, resource section labels and follow-up prompts.
package i18n

import (
	_ "embed"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Default is the language used when nothing better matches.
const Default = "en"

//go:embed messages.yaml
var rawMessages []byte

var (
	messages  map[string]map[string]string
	supported = []language.Tag{language.English, language.Spanish}
	matcher   = language.NewMatcher(supported)
)

func init() {
	if err := yaml.Unmarshal(rawMessages, &messages); err != nil {
		panic("i18n: parse messages: " + err.Error())
	}
}

// Supported returns the supported language codes.
func Supported() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		base, _ := t.Base()
		out[i] = base.String()
	}
	return out
}

// Match returns the supported language code closest to the requested ones.
// Each value may be a plain tag ("es", "es-MX") or an Accept-Language header.
func Match(requested ...string) string {
	var tags []language.Tag
	for _, r := range requested {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(r)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Default
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T returns the message for key in lang, falling back to English and then to
// the key itself.
func T(lang, key string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[key]; ok {
			return strings.TrimSpace(s)
		}
	}
	if s, ok := messages[Default][key]; ok {
		return strings.TrimSpace(s)
	}
	return key
}

// Valid reports whether tag parses as a BCP 47 language tag.
func Valid(tag string) bool {
	_, err := language.Parse(tag)
	return err == nil
}
