package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/tally/internal/errors"
)

// ReportPageData is the template data for the report page.
type ReportPageData struct {
	Title        string
	Version      string
	RenderedHTML template.HTML
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	pages := map[string]string{
		"report": "report.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		templates[name] = template.Must(template.New(file).ParseFS(templateFS, file))
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		slog.Error("template execution error", "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes a JSON error with the TallyError status.
// Server-side failures are logged; their details are not sent to the client.
func renderError(w http.ResponseWriter, req *http.Request, err error) {
	tErr := errors.As(err)
	if tErr == nil {
		tErr = errors.NewInternal(err)
	}

	message := tErr.Message
	if tErr.Status >= 500 {
		slog.Error("request failed", "method", req.Method, "path", req.URL.Path, "code", tErr.Code, "err", err)
		message = "event log unavailable"
		if tErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		}
	}

	renderJSON(w, tErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(tErr.Code),
			"message": message,
			"status":  tErr.Status,
		},
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderMarkdown converts markdown text to HTML using goldmark.
func RenderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}
