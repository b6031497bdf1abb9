package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

//go:embed templates/base.html
var templatesFS embed.FS

// LandingPage serves the document on GET /. The template carries no dynamic
// data, so it is rendered once when the page is built.
type LandingPage struct {
	html []byte
}

// NewLandingPage renders the template at path, or the built-in page when
// path is empty. A missing or broken template is an error.
func NewLandingPage(path string) (*LandingPage, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if path == "" {
		tmpl, err = template.ParseFS(templatesFS, "templates/base.html")
	} else {
		tmpl, err = template.ParseFiles(path)
	}
	if err != nil {
		return nil, fmt.Errorf("landing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("render landing template: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("landing template renders an empty document")
	}
	return &LandingPage{html: buf.Bytes()}, nil
}

func (p *LandingPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(p.html); err != nil {
		logx.Log.Error().Err(err).Msg("write landing page")
	}
}
