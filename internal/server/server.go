// Package server provides the HTTP surface of the article generator:
// generation (sync and SSE), corpus search, verification, and history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/server/ratelimit"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/store"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// Generator runs one article generation request.
type Generator interface {
	Generate(ctx context.Context, inputMaterial, requestedType string, events chan<- pipeline.Event) (*pipeline.Result, error)
}

// Searcher exposes the corpus search lanes.
type Searcher interface {
	Search(ctx context.Context, queryText string, category types.ArticleType) ([]types.Passage, error)
	VectorOnly(ctx context.Context, queryText string, category types.ArticleType, limit int) ([]types.Passage, error)
	LexicalOnly(ctx context.Context, queryText string, category types.ArticleType, limit int) ([]types.Passage, error)
}

// VerifyService exposes the verification sub-operations.
type VerifyService interface {
	Verify(ctx context.Context, draftText string, category types.ArticleType) (chains.StyleCheckResult, chains.HallucinationResult, error)
}

// HistoryStore reads and deletes past generations.
type HistoryStore interface {
	ListDrafts(ctx context.Context, limit, offset int) ([]store.DraftSummary, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*store.DraftRecord, error)
	DeleteDraft(ctx context.Context, id uuid.UUID) error
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	generator  Generator
	searcher   Searcher
	verify     VerifyService
	history    HistoryStore
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// New assembles the server around its collaborators.
func New(port int, generator Generator, searcher Searcher, verify VerifyService, history HistoryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		generator: generator,
		searcher:  searcher,
		verify:    verify,
		history:   history,
		limiter:   ratelimit.New(5, 0.2),
		logger:    logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // SSE streams outlive normal requests
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", s.withGenerateLimit(s.handleGenerate))
	mux.HandleFunc("POST /api/generate/stream", s.withGenerateLimit(s.handleGenerateStream))
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/verify", s.handleVerify)

	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)
	mux.HandleFunc("GET /api/history/{id}/html", s.handleHistoryHTML)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleHistoryDelete)

	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start listens until interrupted, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// withGenerateLimit rate-limits the expensive generation endpoints per
// client address.
func (s *Server) withGenerateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiter.Allow(host) {
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
