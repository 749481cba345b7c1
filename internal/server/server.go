// Package server exposes debates over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/pipeline"
	"github.com/ppiankov/ticketdebate/internal/store"
)

// Debater runs one submission
type Debater interface {
	Debate(ctx context.Context, sub pipeline.Submission) (*model.DebateReport, error)
}

// Server holds the HTTP handlers
type Server struct {
	debater        Debater
	store          store.TranscriptStore
	metrics        http.Handler
	logger         *slog.Logger
	maxUploadBytes int64
	maxRounds      int
}

// Option configures a Server
type Option func(*Server)

// WithMetrics mounts h at /metrics
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxUploadBytes caps multipart request bodies
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxRounds caps the rounds a request may ask for
func WithMaxRounds(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// New creates a server. A nil store serves empty history.
func New(d Debater, st store.TranscriptStore, opts ...Option) *Server {
	if st == nil {
		st = store.Nop{}
	}
	s := &Server{
		debater:        d,
		store:          st,
		logger:         logging.NewNop(),
		maxUploadBytes: 10 << 20,
		maxRounds:      10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1/debates", func(r chi.Router) {
		r.Post("/", s.createDebate)
		r.Get("/", s.listDebates)
		r.Get("/{ticketID}", s.getDebate)
		r.Delete("/{ticketID}", s.deleteDebate)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createDebate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form: " + err.Error()})
		return
	}

	sub := pipeline.Submission{
		Text:              r.FormValue("text"),
		AdditionalContext: r.FormValue("additional_context"),
	}
	if rounds := r.FormValue("rounds"); rounds != "" {
		n, err := strconv.Atoi(rounds)
		if err != nil || n < 1 || n > s.maxRounds {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("rounds must be between 1 and %d", s.maxRounds)})
			return
		}
		sub.Rounds = n
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read image: " + err.Error()})
			return
		}
		sub.Image = data
		sub.MIMEType = header.Header.Get("Content-Type")
		if sub.MIMEType == "application/octet-stream" {
			sub.MIMEType = ""
		}
	case !errors.Is(err, http.ErrMissingFile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read image: " + err.Error()})
		return
	}

	report, err := s.debater.Debate(r.Context(), sub)
	if err != nil {
		if pipeline.IsInputError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("debate failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "debate failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listDebates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list transcripts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "list failed"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) getDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ticketID")
	transcript, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "transcript": transcript})
}

func (s *Server) deleteDebate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "ticketID")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transcript not found"})
	case errors.Is(err, store.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("transcript store failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "store failed"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves h on addr until ctx is done, then shuts down gracefully
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
