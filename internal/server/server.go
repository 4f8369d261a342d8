package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"earnings-reversal/internal/interfaces"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/store"
	"earnings-reversal/internal/trace"
)

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z.]{0,9}$`)

const defaultMaxEvents = 8

// Server exposes the analysis pipeline over a small read-only JSON API.
type Server struct {
	cfg      *store.Config
	analyzer interfaces.Analyzer
	router   *mux.Router
	server   *http.Server
}

// New builds the HTTP server around an analyzer.
func New(cfg *store.Config, analyzer interfaces.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		router:   mux.NewRouter(),
	}
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // a full ticker analysis can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodGet)
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	logger.Info(context.Background(), "HTTP server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := trace.StartSpan(r.Context(), "http "+r.URL.Path)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))

		logger.Info(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if missing := s.cfg.MissingRuntimeConfig(); len(missing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"message": "Missing configuration: " + strings.Join(missing, ", "),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if !tickerPattern.MatchString(ticker) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_ticker",
			Message: "Invalid ticker format: " + ticker,
		})
		return
	}

	maxEvents := defaultMaxEvents
	if raw := r.URL.Query().Get("max_events"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid_max_events",
				Message: "max_events must be an integer between 1 and 20",
			})
			return
		}
		maxEvents = n
	}

	if missing := s.cfg.MissingRuntimeConfig(); len(missing) > 0 {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "configuration_error",
			Message: "Server configuration incomplete. Missing: " + strings.Join(missing, ", "),
		})
		return
	}

	result, err := s.analyzer.AnalyzeTicker(r.Context(), ticker, maxEvents)
	if err != nil {
		logger.Warn(r.Context(), "Analysis failed", "ticker", ticker, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "analysis_failed",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
