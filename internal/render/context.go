// Package render provides the template rendering layer for the notification
// pipeline: a named-template engine over text/template, the layered render
// context shared by all channels, and the HTML-escaping render pass used for
// mail HTML bodies.
package render

import (
	"html"

	"stream-notify/internal/domain/entity"
)

// SelfKey is the context key under which the context references itself, so
// templates can address the full context reflexively (e.g. via a helper that
// needs more than one value).
const SelfKey = "context"

// KindKey is the context key carrying the notification kind.
const KindKey = "type"

// RecipientKey is the context key carrying the resolved recipient, set when
// the audience is a single person (mail) or per recipient (webhook).
const RecipientKey = "recipient"

// Context is the named-value bag a template is rendered against.
type Context map[string]any

// Layer builds a render context by overlaying per-event properties on top of
// process-wide globals. Globals act as defaults; properties with the same key
// win. Neither input map is modified or retained.
func Layer(globals, properties map[string]any) Context {
	ctx := make(Context, len(globals)+len(properties)+2)
	for k, v := range globals {
		ctx[k] = v
	}
	for k, v := range properties {
		ctx[k] = v
	}
	return ctx
}

// WithSelf adds the reflexive self-reference entry and returns the context.
func (c Context) WithSelf() Context {
	c[SelfKey] = c
	return c
}

// HTMLEscaped returns a copy of the context in which every string value,
// recursively through nested maps, is HTML-escaped, and person/identifiable
// values are replaced with escaped views. Template literals are unaffected;
// only substituted values change. The copy carries its own self-reference.
func (c Context) HTMLEscaped() Context {
	escaped := make(Context, len(c))
	for k, v := range c {
		if k == SelfKey {
			continue
		}
		escaped[k] = escapeValue(v)
	}
	if _, ok := c[SelfKey]; ok {
		escaped[SelfKey] = escaped
	}
	return escaped
}

func escapeValue(v any) any {
	switch t := v.(type) {
	case string:
		return html.EscapeString(t)
	case Context:
		return t.HTMLEscaped()
	case map[string]any:
		return Context(t).HTMLEscaped()
	case *entity.Person:
		if t == nil {
			return t
		}
		return &entity.Person{
			ID:          t.ID,
			AccountID:   html.EscapeString(t.AccountID),
			DisplayName: html.EscapeString(t.DisplayName),
			Email:       html.EscapeString(t.Email),
			AvatarID:    html.EscapeString(t.AvatarID),
			Locked:      t.Locked,
		}
	case entity.Identifiable:
		return escapedIdentifiable{inner: t}
	default:
		return v
	}
}

// escapedIdentifiable wraps an Identifiable so template substitutions of its
// name and ID are escaped while keeping method-call access intact.
type escapedIdentifiable struct {
	inner entity.Identifiable
}

func (e escapedIdentifiable) EntityType() entity.EntityType { return e.inner.EntityType() }
func (e escapedIdentifiable) UniqueID() string              { return html.EscapeString(e.inner.UniqueID()) }
func (e escapedIdentifiable) DisplayName() string           { return html.EscapeString(e.inner.DisplayName()) }
