package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/aretw0/silvershell/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; command output can be large.
const maxBodyBytes = 1 << 20

// Matcher screens a command against the denylist without asking anyone.
type Matcher interface {
	Match(cmd domain.Command) (string, bool)
}

// Detector classifies command output into follow-up suggestions.
type Detector interface {
	Detect(output string) domain.SuggestionList
	Matches(output string) []string
}

// Server exposes the pure SilverShell components over HTTP.
type Server struct {
	Gate    Matcher
	Rules   Detector
	Journal ports.Journal
	Metrics *observability.Metrics
	Version string
	Logger  *slog.Logger
}

// ReconRequest is the body of POST /v1/recon.
type ReconRequest struct {
	Output string `json:"output"`
}

// ReconResponse lists the suggestions for the submitted output.
type ReconResponse struct {
	Suggestions  domain.SuggestionList `json:"suggestions"`
	MatchedRules []string              `json:"matched_rules"`
}

// SafetyRequest is the body of POST /v1/safety.
type SafetyRequest struct {
	Command string `json:"command"`
}

// SafetyResponse reports whether the command would require confirmation.
type SafetyResponse struct {
	Command       string `json:"command"`
	Flagged       bool   `json:"flagged"`
	MatchedPrefix string `json:"matched_prefix,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the HTTP handler for s.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recon", s.DetectRecon)
		r.Post("/safety", s.CheckCommand)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{sessionID}", s.GetSession)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"app":     "silvershell-http",
		"version": strings.TrimSpace(s.Version),
	})
}

// DetectRecon handles POST /v1/recon.
func (s *Server) DetectRecon(w http.ResponseWriter, r *http.Request) {
	var body ReconRequest
	if !s.decode(w, r, &body) {
		return
	}

	suggestions := s.Rules.Detect(body.Output)
	if suggestions == nil {
		suggestions = domain.SuggestionList{}
	}
	matched := s.Rules.Matches(body.Output)
	if matched == nil {
		matched = []string{}
	}
	s.respond(w, http.StatusOK, ReconResponse{Suggestions: suggestions, MatchedRules: matched})
}

// CheckCommand handles POST /v1/safety. It never runs or confirms anything.
func (s *Server) CheckCommand(w http.ResponseWriter, r *http.Request) {
	var body SafetyRequest
	if !s.decode(w, r, &body) {
		return
	}

	cmd, err := domain.Command(body.Command).Normalize()
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	prefix, flagged := s.Gate.Match(cmd)
	s.respond(w, http.StatusOK, SafetyResponse{Command: cmd.String(), Flagged: flagged, MatchedPrefix: prefix})
}

// ListSessions handles GET /v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		s.fail(w, http.StatusNotImplemented, errors.New("journal disabled"))
		return
	}
	sessions, err := s.Journal.Sessions(r.Context())
	if err != nil {
		s.Logger.Error("list sessions failed", "err", err)
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	sort.Strings(sessions)
	s.respond(w, http.StatusOK, sessions)
}

// GetSession handles GET /v1/sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		s.fail(w, http.StatusNotImplemented, errors.New("journal disabled"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	entries, err := s.Journal.List(r.Context(), sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.fail(w, http.StatusNotFound, err)
	case err != nil:
		s.Logger.Error("get session failed", "session_id", sessionID, "err", err)
		s.fail(w, http.StatusInternalServerError, err)
	default:
		s.respond(w, http.StatusOK, entries)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.Logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
