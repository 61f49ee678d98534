package httpserver

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/metrics"
)

// Identity headers set by the campus gateway after it authenticates the
// caller.
const (
	HeaderUserID   = "X-Lostify-User-Id"
	HeaderUsername = "X-Lostify-Username"
	HeaderEmail    = "X-Lostify-Email"
)

type userHandler func(w http.ResponseWriter, r *http.Request, user *domain.User)

// authenticated resolves the gateway identity into a user before calling
// next.
func (s *Server) authenticated(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity{
			UserID:   r.Header.Get(HeaderUserID),
			Username: r.Header.Get(HeaderUsername),
			Email:    r.Header.Get(HeaderEmail),
		}
		if id.UserID == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}

		user, err := s.deps.Accounts.Resolve(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		next(w, r, user)
	}
}

// adminOnly is authenticated plus a role check.
func (s *Server) adminOnly(next userHandler) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user *domain.User) {
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden", "admin access required")
			return
		}
		next(w, r, user)
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(wrapped.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", elapsed,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the live feed upgrade connections through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
