// Package web renders the chat page.
package web

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// FallbackPage is served when the page templates cannot be loaded.
const FallbackPage = "<html><body><h1>Novarsis Support Center</h1><p>Template rendering failed. Please check server logs.</p></body></html>"

// Renderer writes the named page.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// TemplateRenderer renders html/template files from a directory.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every *.html file in dir.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// FallbackRenderer ignores the page name and writes FallbackPage.
type FallbackRenderer struct{}

func (FallbackRenderer) Render(w io.Writer, _ string, _ any) error {
	_, err := io.WriteString(w, FallbackPage)
	return err
}

// NewRenderer loads templates from dir, falling back to FallbackRenderer when
// they are missing or broken.
func NewRenderer(dir string, logger *zap.Logger) Renderer {
	r, err := NewTemplateRenderer(dir)
	if err != nil {
		logger.Error("templates unavailable, using fallback page", zap.Error(err))
		return FallbackRenderer{}
	}
	logger.Info("templates initialized", zap.String("dir", dir))
	return r
}
