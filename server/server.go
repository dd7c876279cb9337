// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package server implements the collaborator services over HTTP:
// background removal (proxied to remove.bg), compliance checking, layout
// suggestion and server-side PNG export.
//
// The routes and JSON shapes are the ones collab.Client speaks.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/assets"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/collab"
	"github.com/gogpu/adstudio/compliance"
	"github.com/gogpu/adstudio/export"
)

// Defaults for Config fields left empty.
const (
	DefaultListen          = ":8000"
	DefaultStaticDir       = "static"
	DefaultPublicURL       = "http://localhost:8000"
	DefaultRemoveBgURL     = "https://api.remove.bg/v1.0/removebg"
	DefaultRemoveBgTimeout = 30 * time.Second
	DefaultMaxUpload       = 16 << 20

	// StatusMessage is the body of GET /.
	StatusMessage = "Ad Genius Backend Running"
)

// Config configures a Server.
type Config struct {
	// StaticDir receives uploads and processed images and is served
	// under /static/.
	StaticDir string
	// PublicURL is the externally visible base URL used in the image
	// URLs handed back to clients.
	PublicURL string

	// RemoveBgAPIKey enables the remove.bg proxy. Without a key uploads
	// are stored and returned unprocessed.
	RemoveBgAPIKey string
	RemoveBgURL    string

	// MaxUploadBytes bounds multipart and JSON request bodies.
	MaxUploadBytes int64

	// Canvas is the logical size assumed by /export when the request
	// does not carry one.
	Canvas canvas.Size
}

func (c *Config) setDefaults() {
	if c.StaticDir == "" {
		c.StaticDir = DefaultStaticDir
	}
	if c.PublicURL == "" {
		c.PublicURL = DefaultPublicURL
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	if c.RemoveBgURL == "" {
		c.RemoveBgURL = DefaultRemoveBgURL
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUpload
	}
	if c.Canvas.IsEmpty() {
		c.Canvas = canvas.DefaultSize
	}
}

// Server serves the collaborator API.
type Server struct {
	cfg      Config
	checker  *compliance.Checker
	exporter *export.Exporter
	client   *http.Client
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithChecker replaces the compliance rules.
func WithChecker(c *compliance.Checker) Option {
	return func(s *Server) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithExporter replaces the exporter used by /export.
func WithExporter(x *export.Exporter) Option {
	return func(s *Server) {
		if x != nil {
			s.exporter = x
		}
	}
}

// WithUpstreamClient sets the HTTP client used to reach remove.bg.
func WithUpstreamClient(c *http.Client) Option {
	return func(s *Server) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a server. The static directory is created if missing.
func New(cfg Config, opts ...Option) (*Server, error) {
	cfg.setDefaults()
	if err := os.MkdirAll(cfg.StaticDir, 0o755); err != nil {
		return nil, fmt.Errorf("server: static dir: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		checker: compliance.NewChecker(),
		client:  &http.Client{Timeout: DefaultRemoveBgTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = export.New(export.WithLoader(StaticLoader(cfg)))
	}
	s.router = s.routes()
	return s, nil
}

// StaticLoader returns the image loader for scenes exported by the
// server. Uploads resolve by their public URL or by a path relative to
// the static directory; every other remote reference is refused, so a
// scene cannot make the server fetch arbitrary URLs.
func StaticLoader(cfg Config) *assets.Loader {
	cfg.setDefaults()
	static := os.DirFS(cfg.StaticDir)
	return assets.NewLoader(
		assets.WithFS(static),
		assets.WithMount(cfg.PublicURL+"/static/", static),
		assets.WithRemoteHosts(),
	)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleStatus)
	r.Post(collab.PathRemoveBackground, s.handleRemoveBackground)
	r.Post(collab.PathCompliance, s.handleCompliance)
	r.Post(collab.PathArrange, s.handleArrange)
	r.Post("/export", s.handleExport)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(os.DirFS(s.cfg.StaticDir))))
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultListen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		adstudio.Logger().Info("server: listening", "addr", addr, "static_dir", s.cfg.StaticDir,
			"remove_bg", s.cfg.RemoveBgAPIKey != "")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	adstudio.Logger().Info("server: stopped")
	return nil
}

// requestLogger logs one line per request through the package logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		adstudio.Logger().InfoContext(r.Context(), "request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}

// cors allows any origin, method and header.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		if origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if hdrs := r.Header.Get("Access-Control-Request-Headers"); hdrs != "" {
				h.Set("Access-Control-Allow-Headers", hdrs)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
