package render

import (
	"text/template"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/utils/text"
)

// Token namespace and tokens resolvable inside notification content.
const (
	TokenNamespace = "STREAM"
	TokenActorName = "ACTORNAME"
)

// ContentFuncs builds the helper function map templates render with:
//
//	markdownText  - resolve [label](target) links for plain-text output
//	markdownHTML  - resolve links for HTML output, escaping everything else
//	hashtags      - distinct hashtag texts found in a string
//	resolveTokens - substitute %STREAM:...% markers using the render context
//
// resolveTokens takes the content and the context self-reference, so
// templates invoke it as {{resolveTokens .content .context}}.
func ContentFuncs(resolver *text.MarkdownResolver) template.FuncMap {
	return template.FuncMap{
		"markdownText":  resolver.ResolveForText,
		"markdownHTML":  resolver.ResolveForHTML,
		"hashtags":      text.ExtractAllHashtags,
		"resolveTokens": resolveTokens,
	}
}

func resolveTokens(content string, ctx Context) string {
	return text.ResolveTokens(content, TokenLookupFromContext(ctx))
}

// TokenLookupFromContext builds a token lookup over the render context.
// STREAM:ACTORNAME resolves to the display name of the ACTOR property when it
// exposes the Identifiable capability; everything else is left unresolved.
func TokenLookupFromContext(ctx Context) text.TokenLookup {
	return func(namespace, token string) (string, bool) {
		if namespace != TokenNamespace {
			return "", false
		}
		switch token {
		case TokenActorName:
			if actor, ok := ctx[entity.PropActor].(entity.Identifiable); ok {
				return actor.DisplayName(), true
			}
		}
		return "", false
	}
}
