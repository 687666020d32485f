// Package server provides the HTTP REST API for the gift recommender.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/db"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/server/middleware"
	"github.com/jonathan/gift-recommender/internal/server/ratelimit"
	"github.com/jonathan/gift-recommender/internal/types"
)

// DefaultRequestTimeout bounds one pipeline run triggered over HTTP.
const DefaultRequestTimeout = 60 * time.Second

// VaultStore is the persistence the API needs. *db.DB implements it.
type VaultStore interface {
	LoadVault(ctx context.Context, vaultID, userID uuid.UUID) (*types.Vault, error)
	SaveRecommendations(ctx context.Context, vaultID uuid.UUID, milestoneID *uuid.UUID, items []types.Candidate) ([]db.StoredRecommendation, error)
	GetRecommendations(ctx context.Context, vaultID uuid.UUID, ids []uuid.UUID) ([]db.StoredRecommendation, error)
	RecordFeedback(ctx context.Context, vaultID uuid.UUID, ids []uuid.UUID, reason types.RejectionReason) error
	Ping(ctx context.Context) error
}

// Recommender runs the recommendation pipeline. *pipeline.Pipeline implements it.
type Recommender interface {
	Generate(ctx context.Context, vault *types.Vault, occasion types.OccasionType, milestoneID *uuid.UUID) (*pipeline.Result, error)
	Refresh(ctx context.Context, vault *types.Vault, req pipeline.RefreshRequest) (*pipeline.Result, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	store          VaultStore
	recommender    Recommender
	rateLimiter    *ratelimit.Limiter
	requestTimeout time.Duration
	logger         *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port           int
	RequestTimeout time.Duration
}

// Deps are the collaborators wired in by the composition root.
type Deps struct {
	Store       VaultStore
	Recommender Recommender
	Tokens      middleware.TokenValidator
	// RateLimiter defaults to one built from RATE_LIMIT_* environment variables.
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Recommender == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("server requires a store, a recommender and a token validator")
	}

	s := &Server{
		store:          deps.Store,
		recommender:    deps.Recommender,
		rateLimiter:    deps.RateLimiter,
		requestTimeout: cfg.RequestTimeout,
		logger:         deps.Logger,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = DefaultRequestTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	auth := middleware.AuthMiddleware(deps.Tokens)

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /vaults/{vault_id}/recommendations", auth(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("POST /vaults/{vault_id}/recommendations/refresh", auth(http.HandlerFunc(s.handleRefresh)))
	mux.Handle("POST /vaults/{vault_id}/recommendations/stream", auth(http.HandlerFunc(s.handleGenerateStream)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM,
// then drains in-flight requests.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working behind the logger.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := max(1, int(info.RetryAfter.Seconds()))
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID),
		zap.Int("limit", info.Limit),
		zap.Int("remaining", info.Remaining),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
