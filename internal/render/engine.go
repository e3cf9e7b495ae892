package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// ErrTemplateNotFound indicates a named template resource is not registered.
var ErrTemplateNotFound = errors.New("template not found")

// Engine is the template engine the notifiers render through. It supports
// direct string evaluation (short inline templates such as subjects and
// in-app messages) and named-resource merge (longer body templates registered
// at startup). The zero value is not usable; use NewEngine.
//
// Immutable after the startup Register calls; safe for concurrent renders.
type Engine struct {
	mu    sync.RWMutex
	named map[string]*template.Template
	raw   map[string]string
	funcs template.FuncMap
}

// NewEngine creates an engine with the given helper functions available to
// every template. funcs may be nil.
func NewEngine(funcs template.FuncMap) *Engine {
	return &Engine{
		named: make(map[string]*template.Template),
		raw:   make(map[string]string),
		funcs: funcs,
	}
}

// Register parses and stores a named template resource. Registering the same
// name again replaces the previous definition.
func (e *Engine) Register(name, body string) error {
	tmpl, err := e.parse(name, body)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.named[name] = tmpl
	e.raw[name] = body
	return nil
}

// Resources returns the names of all registered template resources.
func (e *Engine) Resources() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.named))
	for name := range e.named {
		names = append(names, name)
	}
	return names
}

// EvaluateInline parses templateText and renders it against ctx. The name is
// used only for error reporting.
func (e *Engine) EvaluateInline(ctx Context, name, templateText string) (string, error) {
	tmpl, err := e.parse(name, templateText)
	if err != nil {
		return "", fmt.Errorf("parse inline template %s: %w", name, err)
	}
	return execute(tmpl, name, ctx)
}

// EvaluateInlineHTML is EvaluateInline with every value substitution
// HTML-escaped. Template literals are rendered as written.
func (e *Engine) EvaluateInlineHTML(ctx Context, name, templateText string) (string, error) {
	return e.EvaluateInline(ctx.HTMLEscaped(), name, templateText)
}

// RenderNamed renders a registered template resource against ctx.
func (e *Engine) RenderNamed(ctx Context, resourceName string) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.named[resourceName]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, resourceName)
	}
	return execute(tmpl, resourceName, ctx)
}

// RenderNamedHTML is RenderNamed with every value substitution HTML-escaped.
func (e *Engine) RenderNamedHTML(ctx Context, resourceName string) (string, error) {
	return e.RenderNamed(ctx.HTMLEscaped(), resourceName)
}

func (e *Engine) parse(name, body string) (*template.Template, error) {
	tmpl := template.New(name)
	if e.funcs != nil {
		tmpl = tmpl.Funcs(e.funcs)
	}
	return tmpl.Parse(body)
}

func execute(tmpl *template.Template, name string, ctx Context) (string, error) {
	var out strings.Builder
	if err := tmpl.Execute(&out, ctx); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out.String(), nil
}
