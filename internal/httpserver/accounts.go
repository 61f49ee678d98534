package httpserver

import (
	"net"
	"net/http"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/metrics"
	"github.com/blackmichael/lostify/internal/ratelimit"
)

type verifyResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	IsAdmin  bool        `json:"isAdmin"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, user *domain.User) {
	writeJSON(w, http.StatusOK, verifyResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		IsAdmin:  user.IsAdmin(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, user *domain.User) {
	settings, err := s.deps.Accounts.GetSettings(r.Context(), user)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var in domain.UserSettings
	if err := decodeJSON(r, &in); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	settings, err := s.deps.Accounts.SaveSettings(r.Context(), user, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// allow applies rule to identifier and writes a 429
// when it is exceeded. Limiter errors fail open.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, identifier, ruleName string, rule ratelimit.Rule) bool {
	if s.deps.Limiter == nil {
		return true
	}

	ok, err := s.deps.Limiter.Allow(r.Context(), identifier, rule)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", "rule", ruleName, "error", err)
		return true
	}
	if !ok {
		metrics.RateLimited.WithLabelValues(ruleName).Inc()
		writeError(w, http.StatusTooManyRequests, "TooManyRequests", "rate limit exceeded, try again later")
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
