package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	corefuncs "github.com/equinetracker/equinetracker/internal/http/templates/core"
)

// Template names the renderer executes.
const (
	tmplLayout      = "layout"
	tmplContentOnly = "content-only"
	tmplContent     = "content"
	tmplPartial     = "partial"
	tmplErrorLayout = "error-layout"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses layouts, pages and partials from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{logger: logger}

	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{
		Template:           &t,
		ContentTemplateFor: ContentTemplateFor,
	})
	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// RenderFull renders the in-context layout: shell chrome around the page content.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.Render(w, tmplLayout, 0, data)
}

// RenderContentOnly renders the page content in a bare document without chrome.
func (r *TemplateRenderer) RenderContentOnly(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.Render(w, tmplContentOnly, 0, data)
}

// RenderPartial renders the page title and the main content area for htmx swaps.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.Render(w, tmplPartial, 0, data)
}

// RenderError renders a standalone error page.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.Render(w, tmplErrorLayout, 0, data)
}

// ExecuteTo writes a named template straight to wr without buffering or headers.
func (r *TemplateRenderer) ExecuteTo(wr io.Writer, name string, data any) error {
	if err := r.t.ExecuteTemplate(wr, name, data); err != nil {
		r.logTemplateError(name, err)
		return err
	}
	return nil
}

// Render executes templateName into a buffer and writes it with status
// (0 keeps the implicit 200). A failing template never leaves a half-written page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, templateName string, status int, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if status != 0 {
		w.WriteHeader(status)
	}
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
