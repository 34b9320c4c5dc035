// Package server exposes lookups, replacements and rebuilds over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/presentation"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/replace"
	"github.com/zjrosen/uuidtrans/internal/search"
)

// MaxBodyBytes bounds replacement request bodies.
const MaxBodyBytes = 4 << 20

// Response headers carrying replacement counts.
const (
	HeaderResolved   = "X-Uuidtrans-Resolved"
	HeaderUnresolved = "X-Uuidtrans-Unresolved"
)

// Config holds the server's collaborators.
type Config struct {
	Engine   *search.Engine
	Replacer *replace.Replacer
	// Rebuild re-discovers the workspace and rebuilds the registry.
	Rebuild func(ctx context.Context) (registry.RebuildReport, error)
	// ShowType reports the current show-type setting. Optional.
	ShowType func() bool
}

// Server is the HTTP API.
type Server struct {
	router *chi.Mux
	cfg    Config
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/snapshot", s.handleSnapshot)
	s.router.Get("/elements/{id}", s.handleByID)
	s.router.Get("/names/{name}", s.handleByName)
	s.router.Post("/replace/ids", s.handleReplaceIDs)
	s.router.Post("/replace/names", s.handleReplaceNames)
	s.router.Post("/rebuild", s.handleRebuild)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info(log.CatServer, "Server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info(log.CatServer, "Server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, presentation.FromSnapshot(s.cfg.Engine.Snapshot()))
}

func (s *Server) handleByID(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.cfg.Engine.ByID(chi.URLParam(r, "id")), search.FieldName)
}

func (s *Server) handleByName(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.cfg.Engine.ByName(pathParam(r, "name")), search.FieldID)
}

// pathParam returns a decoded route parameter. chi matches on RawPath when
// the request path holds escapes like %2F, leaving the parameter encoded.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result search.Result, field search.Field) {
	showType := s.cfg.ShowType != nil && s.cfg.ShowType()
	if v := r.URL.Query().Get("show_type"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			showType = b
		}
	}

	dto := presentation.FromResult(result)
	if _, ok := result.(search.One); ok {
		dto.Text = search.Format(result, field, showType)
	}
	writeJSON(w, StatusFor(result), dto)
}

// StatusFor maps a lookup result to an HTTP status.
func StatusFor(r search.Result) int {
	switch r.(type) {
	case search.One:
		return http.StatusOK
	case search.Empty:
		return http.StatusNotFound
	case search.Multiple:
		return http.StatusConflict
	case search.Invalid:
		return http.StatusBadRequest
	default:
		panic(fmt.Sprintf("server: unknown result %T", r))
	}
}

func (s *Server) handleReplaceIDs(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeBodyError(w, err)
		return
	}
	out, report := s.cfg.Replacer.IDsWithReport(string(body))
	writeText(w, out, report)
}

func (s *Server) handleReplaceNames(w http.ResponseWriter, r *http.Request) {
	out, report, err := s.cfg.Replacer.NamesWithReport(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeBodyError(w, err)
		return
	}
	writeText(w, out, report)
}

type rebuildResponse struct {
	Version    uint64                    `json:"version"`
	Files      int                       `json:"files"`
	Elements   int                       `json:"elements"`
	Warnings   []presentation.WarningDTO `json:"warnings"`
	DurationMs float64                   `json:"duration_ms"`
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Rebuild == nil {
		writeError(w, http.StatusServiceUnavailable, "no workspace configured")
		return
	}
	report, err := s.cfg.Rebuild(r.Context())
	if err != nil {
		log.ErrorErr(log.CatServer, "Rebuild failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rebuildResponse{
		Version:    report.Version,
		Files:      report.Files,
		Elements:   report.Elements,
		Warnings:   presentation.FromWarnings(report.Warnings),
		DurationMs: float64(report.Duration.Microseconds()) / 1000,
	})
}

func writeText(w http.ResponseWriter, text string, report replace.Report) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(HeaderResolved, strconv.Itoa(report.Resolved))
	w.Header().Set(HeaderUnresolved, strconv.Itoa(report.Unresolved))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := presentation.NewFormatter(w).FormatJSON(v); err != nil {
		log.ErrorErr(log.CatServer, "Failed to write response", err)
	}
}

// requestLogger logs each request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug(log.CatServer, "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
