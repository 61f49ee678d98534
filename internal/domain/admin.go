package domain

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var exportHeader = []string{
	"ID", "Title", "Description", "Type", "Category", "Location",
	"Date", "Contact", "Status", "User", "Created At", "Admin Note",
}

// AdminService backs the moderation and analytics screens.
type AdminService struct {
	posts    PostRepository
	users    UserRepository
	feedback FeedbackRepository
	settings SettingsRepository
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminService creates an AdminService. events may be nil.
func NewAdminService(
	posts PostRepository,
	users UserRepository,
	feedback FeedbackRepository,
	settings SettingsRepository,
	events EventPublisher,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		posts:    posts,
		users:    users,
		feedback: feedback,
		settings: settings,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Analytics aggregates post, user and feedback counts.
func (s *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	stats, err := s.posts.PostStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("post stats: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	total, pending, err := s.feedback.CountFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	a := &Analytics{
		PostStats:       stats,
		TotalUsers:      len(users),
		TotalFeedback:   total,
		PendingFeedback: pending,
	}
	for _, u := range users {
		if u.Enabled {
			a.ActiveUsers++
		}
	}
	return a, nil
}

// ListAllPosts returns every post regardless of status.
func (s *AdminService) ListAllPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.posts.ListPosts(ctx, PostFilter{Status: "all", SortBy: SortNewest})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ModeratePost applies an admin status, flag or note change.
func (s *AdminService) ModeratePost(ctx context.Context, actor *User, id string, patch ModerationPatch) (*Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, *patch.Status)
		}
		post.Status = *patch.Status
	}
	if patch.Flagged != nil {
		post.Flagged = *patch.Flagged
		if post.Flagged && patch.Status == nil {
			post.Status = PostStatusFlagged
		}
	}
	if patch.AdminNote != nil {
		post.AdminNote = *patch.AdminNote
	}
	post.UpdatedAt = s.now()

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}
	s.logger.Info("post moderated", "post_id", id, "status", post.Status, "flagged", post.Flagged, "actor", actor.ID)

	if s.events != nil {
		event := PostEvent{Type: PostUpdated, Post: *post, At: post.UpdatedAt}
		if err := s.events.PublishPostEvent(ctx, event); err != nil {
			s.logger.Warn("failed to publish post event", "post_id", id, "error", err)
		}
	}
	return post, nil
}

// ExportCSV writes every post as CSV to w.
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) error {
	posts, err := s.ListAllPosts(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range posts {
		record := []string{
			p.ID,
			p.Title,
			p.Description,
			string(p.Type),
			p.Category,
			p.Location,
			p.Date.Format(time.DateOnly),
			p.ContactInfo,
			string(p.Status),
			p.OwnerName,
			p.CreatedAt.Format(time.RFC3339),
			p.AdminNote,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// GetAdminSettings returns the moderation settings, or defaults.
func (s *AdminService) GetAdminSettings(ctx context.Context) (*AdminSettings, error) {
	settings, err := s.settings.GetAdminSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		defaults := DefaultAdminSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin settings: %w", err)
	}
	return settings, nil
}

// SaveAdminSettings stores the moderation settings.
func (s *AdminService) SaveAdminSettings(ctx context.Context, settings AdminSettings) (*AdminSettings, error) {
	if settings.ModerationThreshold < 1 {
		return nil, fmt.Errorf("%w: moderation threshold must be at least 1", ErrInvalid)
	}
	if err := s.settings.SaveAdminSettings(ctx, &settings); err != nil {
		return nil, fmt.Errorf("save admin settings: %w", err)
	}
	return &settings, nil
}
