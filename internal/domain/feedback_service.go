package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultFeedbackSubject = "General Message"

// FeedbackInput is a contact-form submission.
type FeedbackInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// FeedbackService stores contact-form messages and their triage state.
type FeedbackService struct {
	repo   FeedbackRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(repo FeedbackRepository, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a new pending feedback message.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*Feedback, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: name, email, and message are required", ErrInvalid)
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = defaultFeedbackSubject
	}

	fb := &Feedback{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   subject,
		Message:   in.Message,
		Status:    FeedbackPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	s.logger.Info("feedback submitted", "feedback_id", fb.ID)
	return fb, nil
}

// List returns all feedback, newest first.
func (s *FeedbackService) List(ctx context.Context) ([]Feedback, error) {
	items, err := s.repo.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// UpdateStatus moves a feedback message to a new triage status. Resolving
// records who resolved it and when; moving away from resolved clears both.
func (s *FeedbackService) UpdateStatus(ctx context.Context, actor *User, id string, status FeedbackStatus) (*Feedback, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown feedback status %q", ErrInvalid, status)
	}
	fb, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get feedback %s: %w", id, err)
	}

	fb.Status = status
	if status == FeedbackResolved {
		now := s.now()
		fb.ResolvedAt = &now
		fb.ResolvedBy = actor.Username
	} else {
		fb.ResolvedAt = nil
		fb.ResolvedBy = ""
	}

	if err := s.repo.UpdateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("update feedback %s: %w", id, err)
	}
	return fb, nil
}

// Delete removes a feedback message.
func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteFeedback(ctx, id); err != nil {
		return fmt.Errorf("delete feedback %s: %w", id, err)
	}
	return nil
}

// PendingCount returns how many messages still await triage.
func (s *FeedbackService) PendingCount(ctx context.Context) (int, error) {
	_, pending, err := s.repo.CountFeedback(ctx)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return pending, nil
}
