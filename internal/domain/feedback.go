package domain

import "time"

// FeedbackStatus tracks admin triage of a feedback message.
type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackInReview FeedbackStatus = "in_review"
	FeedbackResolved FeedbackStatus = "resolved"
)

// Valid reports whether s is a known feedback status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackPending, FeedbackInReview, FeedbackResolved:
		return true
	}
	return false
}

// Feedback is a message sent to the admins from the contact form.
type Feedback struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Subject    string         `json:"subject"`
	Message    string         `json:"message"`
	Status     FeedbackStatus `json:"status"`
	CreatedAt  time.Time      `json:"date"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
	ResolvedBy string         `json:"resolvedBy,omitempty"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	PostStats
	TotalUsers      int `json:"totalUsers"`
	ActiveUsers     int `json:"activeUsers"`
	TotalFeedback   int `json:"totalFeedback"`
	PendingFeedback int `json:"pendingFeedback"`
}
