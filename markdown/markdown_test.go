package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "headers",
			in:   "# One\n## Two\n### Three",
			want: "<h1>One</h1>\n\n<h2>Two</h2>\n\n<h3>Three</h3>",
		},
		{
			name: "emphasis",
			in:   "This is **very** important and *quite* urgent.",
			want: "<p>This is <strong>very</strong> important and <em>quite</em> urgent.</p>",
		},
		{
			name: "inline code keeps markers",
			in:   "Use `a*b*c` literally",
			want: "<p>Use <code>a*b*c</code> literally</p>",
		},
		{
			name: "bullet run becomes one list",
			in:   "Steps:\n- Ask for an evaluation\n- Request the IEP meeting\n* Bring notes",
			want: "<p>Steps:</p>\n\n<ul><li>Ask for an evaluation</li><li>Request the IEP meeting</li><li>Bring notes</li></ul>",
		},
		{
			name: "paragraphs and line breaks",
			in:   "First line\nsecond line\n\nNew paragraph",
			want: "<p>First line<br>second line</p>\n\n<p>New paragraph</p>",
		},
		{
			name: "crlf input",
			in:   "One\r\n\r\nTwo",
			want: "<p>One</p>\n\n<p>Two</p>",
		},
		{
			name: "unterminated bold passes through",
			in:   "This is **not closed",
			want: "<p>This is **not closed</p>",
		},
		{
			name: "stray hash passes through",
			in:   "#hashtag and #### deep",
			want: "<p>#hashtag and #### deep</p>",
		},
		{
			name: "lone asterisks with spaces",
			in:   "3 * 4 * 5",
			want: "<p>3 * 4 * 5</p>",
		},
		{
			name: "list item emphasis",
			in:   "- **504 plan**: accommodations",
			want: "<ul><li><strong>504 plan</strong>: accommodations</li></ul>",
		},
		{
			name: "existing block html passes through",
			in:   "<p>Already <strong>done</strong></p>",
			want: "<p>Already <strong>done</strong></p>",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, Options{}))
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	inputs := []string{
		"## Your rights\n\nYou can ask for an **IEP meeting** at any time.\nWrite it down.\n\n- Keep *copies*\n- Use `email`\n\nDone.",
		"# Title\nText with * a lone star and **unclosed",
		"`x*y*z` and ***both***",
		"<div>raw</div>\n\nplain",
	}

	for _, in := range inputs {
		once := Render(in, Options{})
		twice := Render(once, Options{})
		assert.Equal(t, once, twice)
	}
}

func TestRender_SafeMode(t *testing.T) {
	in := "<script>alert(1)</script>Hello <b>there</b>\n\n**Bold** & more <a href=\"x\">link</a>"
	got := Render(in, Options{Safe: true})

	assert.NotContains(t, got, "<script")
	assert.NotContains(t, got, "alert(1)")
	assert.NotContains(t, got, "<b>")
	assert.NotContains(t, got, "<a ")
	assert.Contains(t, got, "<p>Hello there</p>")
	assert.Contains(t, got, "<strong>Bold</strong> &amp; more link")
}

func TestRender_UnsafeModeKeepsHTML(t *testing.T) {
	got := Render("Hello <b>there</b>", Options{})
	assert.Equal(t, "<p>Hello <b>there</b></p>", got)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b", StripTags("<p>a</p> <em>b</em>"))
	assert.Equal(t, "1 &lt; 2", StripTags("1 < 2"))
}
