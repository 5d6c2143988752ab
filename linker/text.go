package linker

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText returns the text content of an HTML fragment with entities
// decoded and script/style bodies dropped. Tags become single spaces so that
// words from adjacent elements do not run together.
func PlainText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			b.WriteByte(' ')
			if name, _ := z.TagName(); isScriptLike(string(name)) {
				skip++
			}
		case html.EndTagToken:
			b.WriteByte(' ')
			if name, _ := z.TagName(); isScriptLike(string(name)) && skip > 0 {
				skip--
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func isScriptLike(tag string) bool {
	return tag == "script" || tag == "style"
}

// scanSurface is the lowercase text the keyword passes run against.
func scanSurface(content, context string) string {
	surface := strings.ToLower(PlainText(content))
	if context = strings.TrimSpace(context); context != "" {
		surface += " " + strings.ToLower(context)
	}
	return surface
}

func containsAny(surface string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(surface, t) {
			return true
		}
	}
	return false
}
