package linker

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// phoneRe matches North American numbers: optional +1, optional area code in
// parens or bare, then exchange and subscriber. Area code and exchange must
// start with 2-9.
var phoneRe = regexp.MustCompile(`(?:\+?1[ .-]?)?(?:\([2-9]\d{2}\) ?|[2-9]\d{2}[ .-]?)?[2-9]\d{2}[ .-]\d{4}`)

// LinkPhoneNumbers wraps phone numbers found in text nodes with tel: anchors.
// Text already inside an anchor, script or style element is left alone, and
// every byte outside a match (tags, attributes, entities) is copied through
// unchanged. If the content cannot be tokenized it is returned as is.
func LinkPhoneNumbers(content string) string {
	if !phoneRe.MatchString(content) {
		return content
	}

	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	b.Grow(len(content) + 64)
	skip := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String()
			}
			return content
		}

		// TagName lowercases the token buffer in place, so copy first.
		raw := string(z.Raw())

		switch tt {
		case html.TextToken:
			if skip > 0 {
				b.WriteString(raw)
			} else {
				b.WriteString(linkText(raw))
			}
		case html.StartTagToken:
			b.WriteString(raw)
			if name, _ := z.TagName(); opaque(string(name)) {
				skip++
			}
		case html.EndTagToken:
			b.WriteString(raw)
			if name, _ := z.TagName(); opaque(string(name)) && skip > 0 {
				skip--
			}
		default:
			b.WriteString(raw)
		}
	}
}

// opaque reports whether text inside the element must not be linked.
func opaque(tag string) bool {
	switch tag {
	case "a", "script", "style", "textarea":
		return true
	}
	return false
}

// linkText rewrites phone numbers in a single text run.
func linkText(text string) string {
	var b strings.Builder
	pos := 0
	last := 0

	for pos < len(text) {
		loc := phoneRe.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if !bounded(text, start, end) {
			pos = start + 1
			continue
		}

		match := text[start:end]
		b.WriteString(text[last:start])
		b.WriteString(`<a href="tel:`)
		b.WriteString(telDigits(match))
		b.WriteString(`">`)
		b.WriteString(match)
		b.WriteString(`</a>`)
		last, pos = end, end
	}

	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// bounded reports whether text[start:end] is not part of a longer digit run.
func bounded(text string, start, end int) bool {
	if start > 0 {
		if prev := text[start-1]; isDigit(prev) || prev == '+' {
			return false
		}
	}
	if end < len(text) && isDigit(text[end]) {
		return false
	}
	return true
}

// telDigits keeps the digits of a formatted number and a leading plus.
func telDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigit(c) || (c == '+' && b.Len() == 0) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
