package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/blackmichael/lostify/internal/config"
	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/metrics"
	"github.com/blackmichael/lostify/internal/ratelimit"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)
}

// RateLimiter reports whether identifier may perform one more action.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, rule ratelimit.Rule) (bool, error)
}

// HealthChecker verifies a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP server routes requests to. Images,
// Limiter, Live and Health are optional.
type Deps struct {
	Posts    *domain.PostService
	Accounts *domain.AccountService
	Feedback *domain.FeedbackService
	Admin    *domain.AdminService

	Images  ImageUploader
	Limiter RateLimiter
	Live    http.Handler
	Health  HealthChecker
}

// Server is the HTTP server exposing the Lostify JSON API.
type Server struct {
	cfg          *config.Config
	deps         Deps
	postRule     ratelimit.Rule
	feedbackRule ratelimit.Rule
	logger       *slog.Logger
	handler      http.Handler
	httpServer   *http.Server
}

// NewServer creates a new HTTP server over the given services.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		deps:         deps,
		postRule:     ratelimit.PostRule(cfg.RateLimit.Posts, cfg.RateLimit.Window),
		feedbackRule: ratelimit.FeedbackRule(cfg.RateLimit.Feedback, cfg.RateLimit.Window),
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/verify", s.authenticated(s.handleVerify))

	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.HandleFunc("GET /api/posts/my-posts", s.authenticated(s.handleMyPosts))
	mux.HandleFunc("GET /api/posts/my-matches", s.authenticated(s.handleMyMatches))
	mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	mux.HandleFunc("POST /api/posts", s.authenticated(s.handleCreatePost))
	mux.HandleFunc("POST /api/posts/create", s.authenticated(s.handleCreatePost))
	mux.HandleFunc("PUT /api/posts/{id}", s.authenticated(s.handleUpdatePost))
	mux.HandleFunc("POST /api/posts/{id}/resolve", s.authenticated(s.handleResolvePost))
	mux.HandleFunc("DELETE /api/posts/{id}", s.authenticated(s.handleDeletePost))

	mux.HandleFunc("GET /api/settings", s.authenticated(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.authenticated(s.handleSaveSettings))
	mux.HandleFunc("POST /api/feedback", s.handleSubmitFeedback)
	mux.HandleFunc("POST /api/upload", s.authenticated(s.handleUpload))
	if deps.Live != nil {
		mux.Handle("GET /api/live", deps.Live)
	}

	mux.HandleFunc("GET /api/admin/posts", s.adminOnly(s.handleAdminListPosts))
	mux.HandleFunc("PATCH /api/admin/posts/{id}", s.adminOnly(s.handleModeratePost))
	mux.HandleFunc("GET /api/admin/posts/export", s.adminOnly(s.handleExportPosts))
	mux.HandleFunc("GET /api/admin/users", s.adminOnly(s.handleListUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/status", s.adminOnly(s.handleSetUserStatus))
	mux.HandleFunc("GET /api/admin/analytics", s.adminOnly(s.handleAnalytics))
	mux.HandleFunc("GET /api/admin/settings", s.adminOnly(s.handleGetAdminSettings))
	mux.HandleFunc("PUT /api/admin/settings", s.adminOnly(s.handleSaveAdminSettings))
	mux.HandleFunc("GET /api/admin/feedback", s.adminOnly(s.handleListFeedback))
	mux.HandleFunc("GET /api/admin/feedback/pending-count", s.adminOnly(s.handlePendingFeedback))
	mux.HandleFunc("PUT /api/admin/feedback/{id}", s.adminOnly(s.handleUpdateFeedback))
	mux.HandleFunc("DELETE /api/admin/feedback/{id}", s.adminOnly(s.handleDeleteFeedback))

	s.handler = withLogging(logger, mux)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
