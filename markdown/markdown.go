// Package markdown converts the loosely formatted text returned by language
// models into HTML. It understands the handful of constructs models actually
// emit (headers, emphasis, inline code, bullet lists, paragraphs) and passes
// anything it does not recognize through literally.
package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Options controls a render pass.
type Options struct {
	// Safe strips every pre-existing HTML tag (and escapes the remaining text)
	// before markdown is converted.
	Safe bool
}

var (
	headerRe     = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*#*\s*$`)
	bulletRe     = regexp.MustCompile(`^\s*[-*•]\s+(.+)$`)
	codeRe       = regexp.MustCompile("(?s)<code>.*?</code>|`([^`\n]+)`")
	boldRe       = regexp.MustCompile(`\*\*([^\s*](?:[^*]*[^\s*])?)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^\s*](?:[^*]*[^\s*])?)\*`)
	blankLineRe  = regexp.MustCompile(`\n[ \t]*\n`)
	blockStartRe = regexp.MustCompile(`(?i)^<(h[1-6]|p|ul|ol|li|div|table|blockquote|pre|section|hr|br)[\s>/]`)
)

var strictPolicy = bluemonday.StrictPolicy()

// Render converts text to HTML. It never fails: malformed or partial markdown
// (an unterminated "**", a stray "#") is emitted literally. Rendering output
// that has no markdown markers left returns it unchanged.
func Render(text string, opts Options) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if opts.Safe {
		text = StripTags(text)
	}

	var blocks []string
	for _, chunk := range blankLineRe.Split(text, -1) {
		blocks = append(blocks, renderChunk(chunk)...)
	}
	return strings.Join(blocks, "\n\n")
}

// StripTags removes all HTML tags and escapes what is left so the result can
// be embedded in a page as text.
func StripTags(text string) string {
	return strictPolicy.Sanitize(text)
}

// renderChunk converts one blank-line separated chunk into block-level HTML.
func renderChunk(chunk string) []string {
	var (
		blocks    []string
		paragraph []string
		items     []string
	)

	flushParagraph := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, "<p>"+strings.Join(paragraph, "<br>")+"</p>")
			paragraph = nil
		}
	}
	flushList := func() {
		if len(items) > 0 {
			var b strings.Builder
			b.WriteString("<ul>")
			for _, it := range items {
				b.WriteString("<li>")
				b.WriteString(it)
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
			blocks = append(blocks, b.String())
			items = nil
		}
	}

	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if blockStartRe.MatchString(trimmed) {
			flushParagraph()
			flushList()
			blocks = append(blocks, inline(trimmed))
			continue
		}

		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			flushList()
			level := strconv.Itoa(len(m[1]))
			blocks = append(blocks, "<h"+level+">"+inline(m[2])+"</h"+level+">")
			continue
		}

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			items = append(items, inline(strings.TrimSpace(m[1])))
			continue
		}

		flushList()
		paragraph = append(paragraph, inline(trimmed))
	}

	flushParagraph()
	flushList()
	return blocks
}

// inline applies code, bold and italic conversions. Unmatched markers are left
// as they are, and the contents of code spans are never touched.
func inline(s string) string {
	var codes []string
	s = codeRe.ReplaceAllStringFunc(s, func(m string) string {
		if strings.HasPrefix(m, "`") {
			m = "<code>" + m[1:len(m)-1] + "</code>"
		}
		codes = append(codes, m)
		return placeholder(len(codes) - 1)
	})

	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")

	for i, c := range codes {
		s = strings.Replace(s, placeholder(i), c, 1)
	}
	return s
}

func placeholder(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}
