package text

import (
	"html"
	"regexp"
	"strings"
)

// markdownLinkPattern matches the single supported markdown syntax,
// [label](target). Nested brackets and parentheses are not supported.
var markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)

// MarkdownResolver resolves markdown-lite links into plain text or HTML.
// Targets beginning with '#' are fragment references into the application and
// get the configured base URL prepended; all other targets pass through
// untouched.
type MarkdownResolver struct {
	baseURL string
}

// NewMarkdownResolver creates a resolver that qualifies fragment targets
// against baseURL.
func NewMarkdownResolver(baseURL string) *MarkdownResolver {
	return &MarkdownResolver{baseURL: baseURL}
}

// ResolveForText replaces each [label](target) with "label (target)".
// Input with no links is returned unchanged.
func (r *MarkdownResolver) ResolveForText(content string) string {
	matches := markdownLinkPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return content
	}

	var out strings.Builder
	out.Grow(len(content) + 4*len(matches))
	last := 0
	for _, m := range matches {
		out.WriteString(content[last:m[0]])
		label := content[m[2]:m[3]]
		target := r.qualifyTarget(content[m[4]:m[5]])
		out.WriteString(label)
		out.WriteString(" (")
		out.WriteString(target)
		out.WriteString(")")
		last = m[1]
	}
	out.WriteString(content[last:])
	return out.String()
}

// ResolveForHTML renders each [label](target) as an anchor element and
// HTML-escapes every character of matched and unmatched spans alike. Input
// with no links is returned fully escaped. The set of label/target pairs is
// identical to what ResolveForText sees; only escaping and markup differ.
func (r *MarkdownResolver) ResolveForHTML(content string) string {
	matches := markdownLinkPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return html.EscapeString(content)
	}

	var out strings.Builder
	out.Grow(len(content) + 16*len(matches))
	last := 0
	for _, m := range matches {
		out.WriteString(html.EscapeString(content[last:m[0]]))
		label := content[m[2]:m[3]]
		target := r.qualifyTarget(content[m[4]:m[5]])
		out.WriteString(`<a href="`)
		out.WriteString(html.EscapeString(target))
		out.WriteString(`">`)
		out.WriteString(html.EscapeString(label))
		out.WriteString(`</a>`)
		last = m[1]
	}
	out.WriteString(html.EscapeString(content[last:]))
	return out.String()
}

func (r *MarkdownResolver) qualifyTarget(target string) string {
	if strings.HasPrefix(target, "#") {
		return r.baseURL + target
	}
	return target
}
