package text

import "regexp"

// tokenPattern matches substitution markers of the form %NAMESPACE:TOKEN%.
var tokenPattern = regexp.MustCompile(`%([A-Z][A-Z0-9]*):([A-Z][A-Z0-9_]*)%`)

// TokenLookup resolves a (namespace, token) pair to its replacement text.
// Returning false leaves the marker untouched.
type TokenLookup func(namespace, token string) (string, bool)

// ResolveTokens replaces every %NAMESPACE:TOKEN% marker in content using the
// lookup. Unknown tokens are left verbatim, marker delimiters included; they
// are neither blanked nor an error.
func ResolveTokens(content string, lookup TokenLookup) string {
	if lookup == nil {
		return content
	}
	return tokenPattern.ReplaceAllStringFunc(content, func(marker string) string {
		sub := tokenPattern.FindStringSubmatch(marker)
		if value, ok := lookup(sub[1], sub[2]); ok {
			return value
		}
		return marker
	})
}
