package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// Pages renders server-side templates and serves the public assets.
type Pages struct {
	templates *template.Template
	static    fs.FS
	files     http.Handler
	notFound  http.HandlerFunc
	logger    *slog.Logger
}

// NewPages parses every *.html template in templates. static holds the
// public assets, including index.html. notFound answers unknown paths.
func NewPages(templates, static fs.FS, notFound http.HandlerFunc, logger *slog.Logger) (*Pages, error) {
	tmpl, err := template.ParseFS(templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{
		templates: tmpl,
		static:    static,
		files:     http.FileServerFS(static),
		notFound:  notFound,
		logger:    logger,
	}, nil
}

// Index serves the public landing page.
// GET /
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, p.static, "index.html")
}

// Static serves a bundled asset, or the JSON 404 when there is none.
func (p *Pages) Static(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if (r.Method != http.MethodGet && r.Method != http.MethodHead) || name == "" || strings.HasPrefix(name, "api/") {
		p.notFound(w, r)
		return
	}

	info, err := fs.Stat(p.static, name)
	if err != nil || info.IsDir() {
		p.notFound(w, r)
		return
	}
	p.files.ServeHTTP(w, r)
}

// render executes a named template into a buffer so that a template error
// never leaves a half-written page.
func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		p.logger.Error("template render failed", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
