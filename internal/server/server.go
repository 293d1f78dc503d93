// Package server provides the GhostPen HTTP REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/profiler"
	"github.com/jonathan/ghostpen/internal/server/middleware"
	"github.com/jonathan/ghostpen/internal/server/ratelimit"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DefaultModelVersion is reported in generation debug info.
const DefaultModelVersion = "ghostpen-v1.0"

// Deps are the collaborators of the server.
type Deps struct {
	Store     db.Store
	Pipeline  *pipeline.Pipeline
	Profiler  *profiler.Profiler
	JWT       *JWTService
	Passwords *config.PasswordConfig
	// Limiter is optional; nil disables rate limiting.
	Limiter        *ratelimit.Limiter
	Logger         *zap.Logger
	AllowedOrigins []string
	ModelVersion   string
}

// Server serves the REST API.
type Server struct {
	store        db.Store
	pipeline     *pipeline.Pipeline
	profiler     *profiler.Profiler
	jwt          *JWTService
	users        *UserService
	auth         *AuthHandler
	limiter      *ratelimit.Limiter
	logger       *zap.Logger
	origins      map[string]bool
	anyOrigin    bool
	modelVersion string
	handler      http.Handler
}

// New wires the routes. Store, Pipeline, Profiler, JWT and Passwords are required.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Pipeline == nil:
		return nil, errors.New("server: pipeline is required")
	case deps.Profiler == nil:
		return nil, errors.New("server: profiler is required")
	case deps.JWT == nil || deps.Passwords == nil:
		return nil, errors.New("server: JWT and password configuration are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		store:        deps.Store,
		pipeline:     deps.Pipeline,
		profiler:     deps.Profiler,
		jwt:          deps.JWT,
		users:        NewUserService(deps.Store, deps.Passwords, logger),
		limiter:      deps.Limiter,
		logger:       logger,
		origins:      make(map[string]bool),
		modelVersion: deps.ModelVersion,
	}
	if s.modelVersion == "" {
		s.modelVersion = DefaultModelVersion
	}
	for _, o := range deps.AllowedOrigins {
		if o == "*" {
			s.anyOrigin = true
		}
		s.origins[o] = true
	}
	s.auth = NewAuthHandler(s.users, s.jwt, logger)

	requireUser := middleware.Auth(s.jwt.AccessValidator())
	mux := http.NewServeMux()

	// Public API
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/authors", s.handleAuthors)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/generate/stream", s.handleGenerateStream)
	mux.HandleFunc("POST /api/score", s.handleScore)

	// Authentication
	mux.HandleFunc("POST /api/auth/register", s.auth.Register)
	mux.HandleFunc("POST /api/auth/login", s.auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", s.auth.Refresh)
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(s.auth.Me)))

	// The caller's own corpus and profile
	mux.Handle("GET /api/me/posts", requireUser(http.HandlerFunc(s.handleListPosts)))
	mux.Handle("POST /api/me/posts", requireUser(http.HandlerFunc(s.handleCreatePost)))
	mux.Handle("DELETE /api/me/posts/{id}", requireUser(http.HandlerFunc(s.handleDeletePost)))
	mux.Handle("GET /api/me/profile", requireUser(http.HandlerFunc(s.handleGetOwnProfile)))
	mux.Handle("POST /api/me/profile", requireUser(http.HandlerFunc(s.handleBuildOwnProfile)))
	mux.Handle("POST /api/me/generate", requireUser(http.HandlerFunc(s.handleGenerateOwn)))

	s.handler = s.withLogging(s.withCORS(s.withRateLimit(mux)))
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generation may wait on the remote model
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if s.limiter != nil {
			s.limiter.Stop()
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS answers preflight requests and sets CORS headers for allowed origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (s.anyOrigin || s.origins[origin]) {
			if s.anyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests over the client's budget with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging logs one line per request.
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
			zap.String("remote", clientID(r)),
		)
	})
}

// clientID identifies the caller by IP address.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data, s.logger)
}

// errorResponse writes {"error": message}.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to its status. Internal errors are logged and not echoed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	failWith(w, r, err, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

func failWith(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	status, message := publicError(r, err, logger)
	writeJSON(w, status, map[string]string{"error": message}, logger)
}

// publicError maps err to the status and message shown to the client.
// Internal failures are logged and reported without detail.
func publicError(r *http.Request, err error, logger *zap.Logger) (int, string) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		return status, "internal server error"
	}
	return status, err.Error()
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Message: "invalid request body: " + strings.TrimPrefix(err.Error(), "json: ")}
	}
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"algorithm_version": s.profiler.Version(),
	})
}
