package httpserver

import (
	"net/http"

	"github.com/blackmichael/lostify/internal/domain"
)

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, clientIP(r), "feedback", s.feedbackRule) {
		return
	}

	var in domain.FeedbackInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	fb, err := s.deps.Feedback.Submit(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Feedback submitted successfully",
		"feedback": fb,
	})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	items, err := s.deps.Feedback.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (s *Server) handlePendingFeedback(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	count, err := s.deps.Feedback.PendingCount(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleUpdateFeedback(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var body struct {
		Status domain.FeedbackStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	fb, err := s.deps.Feedback.UpdateStatus(r.Context(), user, r.PathValue("id"), body.Status)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

func (s *Server) handleDeleteFeedback(w http.ResponseWriter, r *http.Request, _ *domain.User) {
	if err := s.deps.Feedback.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback deleted"})
}
