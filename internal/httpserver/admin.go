package httpserver

import (
	"bytes"
	"net/http"

	"github.com/blackmichael/lostify/internal/domain"
)

func (s *Server) handleAdminListPosts(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	posts, err := s.deps.Admin.ListAllPosts(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func (s *Server) handleModeratePost(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var patch domain.ModerationPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	post, err := s.deps.Admin.ModeratePost(r.Context(), user, r.PathValue("id"), patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleExportPosts(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	// Buffered so a failure halfway through still produces a JSON error.
	var buf bytes.Buffer
	if err := s.deps.Admin.ExportCSV(r.Context(), &buf); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="lostify-posts.csv"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	users, err := s.deps.Accounts.ListUsers(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "enabled is required")
		return
	}

	updated, err := s.deps.Accounts.SetUserEnabled(r.Context(), user, r.PathValue("id"), *body.Enabled)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	analytics, err := s.deps.Admin.Analytics(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleGetAdminSettings(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	settings, err := s.deps.Admin.GetAdminSettings(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveAdminSettings(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	var in domain.AdminSettings
	if err := decodeJSON(r, &in); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	settings, err := s.deps.Admin.SaveAdminSettings(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
