package webui

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"todofront/pkg/messages"
)

// pageTemplates lists the pages rendered inside base.html.
var pageTemplates = []string{"register.html", "login.html", "todos.html"} //nolint:gochecknoglobals

// renderer handles template rendering.
type renderer struct {
	pages    map[string]*template.Template
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// PageData contains common data for all pages.
type PageData struct {
	Title       string
	Locale      string
	CurrentPath string
	Redirect    *Redirect
	Data        any
}

// Redirect describes a delayed navigation shown on success pages.
type Redirect struct {
	URL     string
	DelayMS int64
}

// Seconds rounds the delay up for the meta refresh fallback.
func (r Redirect) Seconds() int64 {
	return (r.DelayMS + 999) / 1000
}

// newRenderer parses base.html and clones it once per page, so each page's
// "content" block stays separate.
func newRenderer(templates fs.FS, cat *messages.Catalog) (*renderer, error) {
	r := &renderer{
		pages: make(map[string]*template.Template, len(pageTemplates)),
		// Raw HTML passes through goldmark so its text survives; the policy strips the markup.
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
	}

	base, err := template.New("").Funcs(r.funcs(cat)).ParseFS(templates, "base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}
	for _, name := range pageTemplates {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone template: %w", err)
		}
		if _, err := tmpl.ParseFS(templates, name); err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// render writes a full page with the given status code.
func (r *renderer) render(w http.ResponseWriter, status int, name string, data PageData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page template %s", name)
	}

	// Render into a buffer so a template error does not leave a half-written page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// renderMarkdown converts todo text to sanitized HTML.
func (r *renderer) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

func (r *renderer) funcs(cat *messages.Catalog) template.FuncMap {
	return template.FuncMap{
		"t": func(key string, args ...any) string {
			return cat.Text(messages.Key(key), args...)
		},
		"markdown":   r.renderMarkdown,
		"formatTime": formatTime,
	}
}

// formatTime renders an RFC 3339 timestamp from the API, or the raw value if it does not parse.
func formatTime(value string) string {
	if value == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Local().Format("2006/01/02 15:04:05")
}
