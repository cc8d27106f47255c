// Package httpapi exposes an editing session over JSON HTTP so that an
// external renderer or a script can drive the editor.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/aretw0/tickline/pkg/core"
)

// Server routes HTTP requests to a session.
type Server struct {
	svc     *core.Service
	logger  *slog.Logger
	origins []string
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins sets the CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer builds the router for svc.
func NewServer(svc *core.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = mux.NewRouter().StrictSlash(true)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/state", s.handleState).Methods("GET")
	r.HandleFunc("/chart", s.handleChart).Methods("GET")
	r.HandleFunc("/convert", s.handleConvert).Methods("GET")

	r.HandleFunc("/playback", s.handlePlayback).Methods("GET")
	r.HandleFunc("/playback/start", s.handleStart).Methods("POST")
	r.HandleFunc("/playback/stop", s.handleStop).Methods("POST")
	r.HandleFunc("/playback/seek", s.handleSeek).Methods("POST")

	r.HandleFunc("/highlights", s.handleAddHighlight).Methods("POST")
	r.HandleFunc("/highlights/{index:[0-9]+}", s.handleRemoveHighlight).Methods("DELETE")

	r.HandleFunc("/lines", s.handleAddLine).Methods("POST")
	r.HandleFunc("/lines/{id:[0-9]+}", s.handleRemoveLine).Methods("DELETE")
	r.HandleFunc("/lines/{id:[0-9]+}/notes", s.handleAddNote).Methods("POST")
	r.HandleFunc("/lines/{id:[0-9]+}/curves/{channel}", s.handleGetCurve).Methods("GET")
	r.HandleFunc("/lines/{id:[0-9]+}/curves/{channel}", s.handlePutKeyframe).Methods("PUT")
	r.HandleFunc("/lines/{id:[0-9]+}/curves/{channel}/{index:[0-9]+}", s.handleRemoveKeyframe).Methods("DELETE")

	r.HandleFunc("/cache/save", s.handleSave).Methods("POST")
	r.HandleFunc("/cache/load", s.handleLoad).Methods("POST")
	r.HandleFunc("/archive/export", s.handleExport).Methods("POST")
	r.HandleFunc("/archive/import", s.handleImport).Methods("POST")
	r.HandleFunc("/reset", s.handleReset).Methods("POST")

	r.Use(s.logRequests)
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
