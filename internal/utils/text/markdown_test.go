package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stream-notify/internal/utils/text"
)

const baseURL = "https://streams.example.com/"

func TestResolveForText_NoMatchUnchanged(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	inputs := []string{
		"",
		"plain content with no links",
		"unbalanced [label only",
		"brackets [x] without target",
		"parens (y) without label",
		"label & <tags> stay as-is",
	}
	for _, in := range inputs {
		assert.Equal(t, in, r.ResolveForText(in))
	}
}

func TestResolveForText_FragmentTargetGetsBaseURL(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForText("[Link](#dest)")
	assert.Equal(t, "Link ("+baseURL+"#dest)", got)
}

func TestResolveForText_AbsoluteTargetUnprefixed(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForText("see [docs](http://x) for more")
	assert.Equal(t, "see docs (http://x) for more", got)
}

func TestResolveForText_MultipleLinks(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForText("[a](#1) and [b](#2)")
	assert.Equal(t, "a ("+baseURL+"#1) and b ("+baseURL+"#2)", got)
}

func TestResolveForHTML_NoMatchEscapesWholeInput(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForHTML(`a & b <c> "d"`)
	assert.Equal(t, "a &amp; b &lt;c&gt; &#34;d&#34;", got)
}

func TestResolveForHTML_RendersAnchor(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForHTML("go [here](#a&b) now")
	assert.Equal(t, `go <a href="`+baseURL+`#a&amp;b">here</a> now`, got)
}

func TestResolveForHTML_UnmatchedSpansEscaped(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	got := r.ResolveForHTML("<b>&</b> [x](http://y) tail &")
	assert.Equal(t, `&lt;b&gt;&amp;&lt;/b&gt; <a href="http://y">x</a> tail &amp;`, got)
}

// The two modes must agree on the match set: only escaping and markup differ.
func TestResolveModes_SameMatchSet(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)
	in := "intro & [one](#x) mid [two](http://y) outro"

	asText := r.ResolveForText(in)
	asHTML := r.ResolveForHTML(in)

	assert.Equal(t, "intro & one ("+baseURL+"#x) mid two (http://y) outro", asText)
	assert.Equal(t,
		`intro &amp; <a href="`+baseURL+`#x">one</a> mid <a href="http://y">two</a> outro`,
		asHTML)
}

// Re-applying the text resolver to its own output is a no-op: the output
// contains no bracket/paren markdown syntax.
func TestResolveForText_IdempotentOnOwnOutput(t *testing.T) {
	r := text.NewMarkdownResolver(baseURL)

	once := r.ResolveForText("[Link](#dest) trailing")
	twice := r.ResolveForText(once)
	assert.Equal(t, once, twice)
}
