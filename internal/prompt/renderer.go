// Package prompt renders named prompt templates into final prompt
// strings. Templates are embedded at build time; the set of names is
// fixed per deployment.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/inquira/inquira/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Vars are the substitution variables available to every template.
type Vars struct {
	Text     string
	Query    string
	Language string
}

// Renderer resolves template names and renders prompts. A rendered
// prompt is immutable; fallback paths re-render instead of mutating.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded template set.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render renders the named template with the given variables.
func (r *Renderer) Render(name string, vars Vars) (string, error) {
	t := r.templates.Lookup(name + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, name)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return sb.String(), nil
}
