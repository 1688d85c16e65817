package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
)

//go:embed stages/*.tmpl
var templateFS embed.FS

// Template names, relative to the embedded stages directory.
const (
	StageConfig = "apistack.yaml.tmpl"
	Params      = "params.yaml.tmpl"
)

var funcs = template.FuncMap{
	// zoneSuffix turns ap-northeast-1a into 1a.
	"zoneSuffix": func(zone string) string {
		if i := strings.LastIndex(zone, "-"); i >= 0 {
			return zone[i+1:]
		}
		return zone
	},
}

// TemplateRenderer renders the embedded starter files.
type TemplateRenderer struct {
	root *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*TemplateRenderer, error) {
	root, err := template.New("stages").Funcs(funcs).ParseFS(templateFS, "stages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{root: root}, nil
}

// Names lists the available templates.
func (r *TemplateRenderer) Names() []string {
	var names []string
	for _, t := range r.root.Templates() {
		if t.Name() != r.root.Name() {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Execute writes the named template to w.
func (r *TemplateRenderer) Execute(w io.Writer, name string, data any) error {
	t := r.root.Lookup(name)
	if t == nil {
		return fmt.Errorf("template %s not found", name)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return nil
}

// RenderTemplate renders the named template to a string.
func (r *TemplateRenderer) RenderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
