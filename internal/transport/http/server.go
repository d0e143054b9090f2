package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	answerService "github.com/reshetovitsme/askanon/internal/modules/answer/service"
	authService "github.com/reshetovitsme/askanon/internal/modules/auth/service"
	feedService "github.com/reshetovitsme/askanon/internal/modules/feed/service"
	questionService "github.com/reshetovitsme/askanon/internal/modules/question/service"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
	"github.com/samber/oops"
	"github.com/yuin/goldmark"
)

// Server serves the visitor pages, the admin panel, the JSON API and feeds
type Server struct {
	cfg         *config.Config
	questions   *questionService.Service
	answers     *answerService.Service
	feedService *feedService.Service
	verifier    *authService.Verifier
	logger      *slog.Logger
	pages       *renderer
	intro       template.HTML
	httpServer  *http.Server
}

// New creates a new HTTP server
func New(
	cfg *config.Config,
	questions *questionService.Service,
	answers *answerService.Service,
	feedService *feedService.Service,
	verifier *authService.Verifier,
) (*Server, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, oops.With("context", "failed to parse templates").Wrap(err)
	}

	var intro bytes.Buffer
	if err := goldmark.Convert([]byte(cfg.SiteIntro), &intro); err != nil {
		return nil, oops.With("context", "failed to render site intro").Wrap(err)
	}

	return &Server{
		cfg:         cfg,
		questions:   questions,
		answers:     answers,
		feedService: feedService,
		verifier:    verifier,
		logger:      slog.Default(),
		pages:       pages,
		intro:       template.HTML(intro.String()),
	}, nil
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the full middleware chain around the routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Visitor pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /questions", s.handleSubmitQuestion)
	mux.HandleFunc("GET /questions/{id}", s.handleQuestion)
	mux.HandleFunc("POST /questions/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("POST /preferences/dark-mode", s.handleToggleDarkMode)

	// Admin panel
	mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	mux.HandleFunc("POST /admin/login", s.handleLogin)
	mux.HandleFunc("POST /admin/logout", s.handleLogout)
	mux.Handle("GET /admin", s.requireAdmin(s.handleAdmin))
	mux.Handle("POST /admin/pending/{id}/approve", s.requireAdmin(s.handleApprove))
	mux.Handle("POST /admin/pending/{id}/delete", s.requireAdmin(s.handleDeletePending))
	mux.Handle("POST /admin/approved/{id}/delete", s.requireAdmin(s.handleDeleteApproved))
	mux.Handle("GET /admin/questions/{id}/answers", s.requireAdmin(s.handleAdminAnswers))
	mux.Handle("POST /admin/answers/{id}/delete", s.requireAdmin(s.handleDeleteAnswer))

	// JSON API
	mux.HandleFunc("GET /api/questions", s.handleAPIListQuestions)
	mux.HandleFunc("POST /api/questions", s.handleAPISubmitQuestion)
	mux.HandleFunc("GET /api/questions/{id}/answers", s.handleAPIListAnswers)
	mux.HandleFunc("POST /api/questions/{id}/answers", s.handleAPISubmitAnswer)
	mux.Handle("GET /api/admin/pending", s.requireAdminAPI(s.handleAPIListPending))
	mux.Handle("GET /api/admin/approved", s.requireAdminAPI(s.handleAPIListApproved))
	mux.Handle("POST /api/admin/pending/{id}/approve", s.requireAdminAPI(s.handleAPIApprove))
	mux.Handle("DELETE /api/admin/pending/{id}", s.requireAdminAPI(s.handleAPIDeletePending))
	mux.Handle("DELETE /api/admin/approved/{id}", s.requireAdminAPI(s.handleAPIDeleteApproved))
	mux.Handle("GET /api/admin/questions/{id}/answers", s.requireAdminAPI(s.handleAPIListAnswers))
	mux.Handle("DELETE /api/admin/answers/{id}", s.requireAdminAPI(s.handleAPIDeleteAnswer))

	// Feeds, health and assets
	mux.HandleFunc("GET /feed.rss", s.handleFeed)
	mux.HandleFunc("GET /feed.atom", s.handleFeed)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(mustSub(staticFS, "static"))))

	var handler http.Handler = mux
	if s.cfg.CSRFEnabled {
		handler = s.csrf(handler)
	}
	handler = securityHeaders(handler)

	// Use slog-http middleware with recovery
	handler = sloghttp.Recovery(handler)
	handler = sloghttp.New(s.logger)(handler)

	return handler
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feedService.GenerateFeed(r.Context(), s.baseURL(r))
	if err != nil {
		s.logger.Error("Error generating feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	var (
		body        string
		contentType string
	)
	if r.URL.Path == "/feed.atom" {
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	} else {
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("Error encoding feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300") // Cache for 5 minutes
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	return fmt.Sprintf("%s://%s", getScheme(r), r.Host)
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
