package domain

import (
	"context"
	"time"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// CreatePost inserts a new post into the store.
	CreatePost(ctx context.Context, post *Post) error

	// GetPost returns the post with the given ID or ErrNotFound.
	GetPost(ctx context.Context, id string) (*Post, error)

	// UpdatePost overwrites the mutable fields of an existing post.
	UpdatePost(ctx context.Context, post *Post) error

	// DeletePost removes a post by ID. Returns ErrNotFound if absent.
	DeletePost(ctx context.Context, id string) error

	// ListPosts returns posts narrowed and ordered by the filter.
	ListPosts(ctx context.Context, filter PostFilter) ([]Post, error)

	// ListPostsByOwner returns every post authored by the user, any status,
	// in no particular order.
	ListPostsByOwner(ctx context.Context, ownerID string) ([]Post, error)

	// ListAllPosts returns every post in the store, any status, in no
	// particular order.
	ListAllPosts(ctx context.Context) ([]Post, error)

	// ResolveStalePosts marks active posts created before cutoff as resolved
	// when their owner has auto-resolve enabled. Returns the number of posts
	// changed.
	ResolveStalePosts(ctx context.Context, cutoff time.Time) (int64, error)

	// PostStats returns aggregate counts across all posts.
	PostStats(ctx context.Context) (PostStats, error)
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// UpsertUser inserts the user or refreshes its username, email and last
	// seen time. Role and enabled flag of an existing user are preserved.
	UpsertUser(ctx context.Context, user *User) (*User, error)

	// GetUser returns the user with the given ID or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// ListUsers returns all users, newest first.
	ListUsers(ctx context.Context) ([]User, error)

	// SetUserEnabled toggles whether the user may use the service.
	SetUserEnabled(ctx context.Context, id string, enabled bool) error

	// SetUserRole changes the role of an existing user.
	SetUserRole(ctx context.Context, id string, role Role) error
}

// FeedbackRepository defines persistence operations for feedback messages.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, fb *Feedback) error
	GetFeedback(ctx context.Context, id string) (*Feedback, error)
	ListFeedback(ctx context.Context) ([]Feedback, error)
	UpdateFeedback(ctx context.Context, fb *Feedback) error
	DeleteFeedback(ctx context.Context, id string) error

	// CountFeedback returns the total number of messages and the number
	// still pending.
	CountFeedback(ctx context.Context) (total, pending int, err error)
}

// SettingsRepository persists user and admin settings.
type SettingsRepository interface {
	// GetUserSettings returns ErrNotFound when the user never saved any.
	GetUserSettings(ctx context.Context, userID string) (*UserSettings, error)
	SaveUserSettings(ctx context.Context, settings *UserSettings) error

	// GetAdminSettings returns ErrNotFound when nothing was saved yet.
	GetAdminSettings(ctx context.Context) (*AdminSettings, error)
	SaveAdminSettings(ctx context.Context, settings *AdminSettings) error
}

// MatchEngine computes ranked candidate matches for a requester. It is pure:
// all inputs are supplied by the caller.
type MatchEngine interface {
	ComputeMatches(requesterID string, userPosts, allPosts []Post) []Match
}

// EventPublisher is notified after post writes.
type EventPublisher interface {
	PublishPostEvent(ctx context.Context, event PostEvent) error
}

// Publishers fans an event out to several publishers. Every publisher is
// called; the first error is returned.
type Publishers []EventPublisher

// PublishPostEvent implements EventPublisher.
func (ps Publishers) PublishPostEvent(ctx context.Context, event PostEvent) error {
	var firstErr error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.PublishPostEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
