package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/warpedintentions/srp/internal/app"
	"github.com/warpedintentions/srp/internal/humanize"
)

//go:embed templates/*.html
var templatesFS embed.FS

var notesPolicy = bluemonday.UGCPolicy()

// TemplateRenderer renders the embedded HTML templates.
type TemplateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() *TemplateRenderer {
	funcMap := template.FuncMap{
		"isk":      humanize.ISK,
		"iskFull":  humanize.ISKFull,
		"timeAgo":  func(t time.Time) string { return humanize.TimeWithFallback(t, "?") },
		"datetime": formatDateTime,
		"markdown": renderMarkdown,
		"fallback": func(s, fallback string) string {
			if s == "" {
				return fallback
			}
			return s
		},
	}
	t := template.Must(template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"))
	return &TemplateRenderer{templates: t}
}

// Render renders a template into a buffer first, so that failed templates
// do not produce partial pages.
func (r *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "?"
	}
	t = t.UTC()
	return t.Format(app.VariableDateFormat(t))
}

// renderMarkdown converts notes written in markdown into sanitized HTML.
func renderMarkdown(s string) template.HTML {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		slog.Warn("Failed to convert markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(notesPolicy.SanitizeBytes(buf.Bytes()))
}
