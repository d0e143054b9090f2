package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/gorilla/csrf"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// renderer holds one template set per page, each sharing the layout
type renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func newRenderer() (*renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(templateFS, name); err != nil {
			return nil, err
		}
		r.pages[base] = page
	}
	return r, nil
}

// pageData is the common view model; Data carries the page specific part
type pageData struct {
	Title     string
	Path      string
	Dark      bool
	Notice    string
	Error     string
	CSRFField template.HTML
	Admin     string
	Data      any
}

func (s *Server) newPage(r *http.Request, title string) pageData {
	p := pageData{
		Title: title,
		Path:  r.URL.RequestURI(),
		Dark:  darkModeFrom(r) == DarkModeEnabled,
	}
	if s.cfg.CSRFEnabled {
		p.CSRFField = csrf.TemplateField(r)
	}
	if id, ok := identityFrom(r.Context()); ok {
		p.Admin = id.Email
		if p.Admin == "" {
			p.Admin = id.Subject
		}
	}
	return p
}

// render writes a page, buffering it so template errors become a clean 500
func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	page, ok := s.pages.pages[name]
	if !ok {
		s.logger.Error("Unknown template", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("Error rendering template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderMessage shows a single line of text inside the layout
func (s *Server) renderMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	p := s.newPage(r, s.cfg.SiteTitle)
	p.Error = message
	s.render(w, status, "message.html", p)
}

// userMessage maps errors to the text shown to visitors
func userMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuestion):
		return "Enter a question!"
	case errors.Is(err, apperrors.ErrEmptyAnswer):
		return "Please write something."
	case errors.Is(err, apperrors.ErrTooManyWords):
		return "Max 10 words allowed!"
	case apperrors.IsNotFound(err):
		return "That question does not exist."
	default:
		return "Something went wrong. Please try again."
	}
}

// statusFor maps errors to HTTP status codes
func statusFor(err error, validation int) int {
	switch {
	case apperrors.IsValidation(err):
		return validation
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
