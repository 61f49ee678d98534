package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PostService is the core domain service. It owns the business logic for
// creating, listing and updating posts, and for computing matches between a
// user's posts and everyone else's.
type PostService struct {
	repo    PostRepository
	matcher MatchEngine
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewPostService creates a PostService. events may be nil.
func NewPostService(repo PostRepository, matcher MatchEngine, events EventPublisher, logger *slog.Logger) *PostService {
	return &PostService{
		repo:    repo,
		matcher: matcher,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost validates the input and stores a new active post owned by the
// given user.
func (s *PostService) CreatePost(ctx context.Context, owner *User, in PostInput) (*Post, error) {
	now := s.now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}

	post := &Post{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Date:        date,
		ContactInfo: in.ContactInfo,
		OwnerID:     owner.ID,
		OwnerName:   owner.Username,
		ImageURL:    in.ImageURL,
		Status:      PostStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "type", post.Type, "owner", owner.ID)
	s.publish(ctx, PostCreated, post)
	return post, nil
}

// GetPost returns a single post by ID.
func (s *PostService) GetPost(ctx context.Context, id string) (*Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return post, nil
}

// ListPosts returns the posts selected by the filter.
func (s *PostService) ListPosts(ctx context.Context, filter PostFilter) ([]Post, error) {
	if filter.SortBy == "" {
		filter.SortBy = SortNewest
	}
	posts, err := s.repo.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// MyPosts returns every post the user authored.
func (s *PostService) MyPosts(ctx context.Context, user *User) ([]Post, error) {
	posts, err := s.repo.ListPostsByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list posts of %s: %w", user.ID, err)
	}
	return posts, nil
}

// MyMatches computes the ranked matches for all of the user's active posts.
func (s *PostService) MyMatches(ctx context.Context, user *User) ([]Match, error) {
	userPosts, err := s.repo.ListPostsByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list posts of %s: %w", user.ID, err)
	}
	allPosts, err := s.repo.ListAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all posts: %w", err)
	}

	matches := s.matcher.ComputeMatches(user.ID, userPosts, allPosts)
	s.logger.Debug("matches computed",
		"user", user.ID,
		"user_posts", len(userPosts),
		"corpus", len(allPosts),
		"matches", len(matches),
	)
	return matches, nil
}

// UpdatePost applies a patch to a post owned by the actor. Admins may update
// any post.
func (s *PostService) UpdatePost(ctx context.Context, actor *User, id string, patch PostPatch) (*Post, error) {
	post, err := s.authorizedPost(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	wasActive := post.IsActive()
	if err := patch.Apply(post); err != nil {
		return nil, err
	}
	post.UpdatedAt = s.now()

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}

	eventType := PostUpdated
	if wasActive && post.Status == PostStatusResolved {
		eventType = PostResolved
	}
	s.publish(ctx, eventType, post)
	return post, nil
}

// ResolvePost marks a post as resolved.
func (s *PostService) ResolvePost(ctx context.Context, actor *User, id string) (*Post, error) {
	resolved := PostStatusResolved
	return s.UpdatePost(ctx, actor, id, PostPatch{Status: &resolved})
}

// DeletePost removes a post owned by the actor. Admins may delete any post.
func (s *PostService) DeletePost(ctx context.Context, actor *User, id string) error {
	post, err := s.authorizedPost(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	s.logger.Info("post deleted", "post_id", id, "actor", actor.ID)
	s.publish(ctx, PostDeleted, post)
	return nil
}

// StartAutoResolveJob periodically resolves active posts older than maxAge
// whose owners opted into auto-resolve. It runs immediately on start and then
// repeats at the given interval. It blocks until ctx is cancelled.
func (s *PostService) StartAutoResolveJob(ctx context.Context, interval, maxAge time.Duration) {
	s.runAutoResolve(ctx, maxAge)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAutoResolve(ctx, maxAge)
		}
	}
}

func (s *PostService) runAutoResolve(ctx context.Context, maxAge time.Duration) {
	resolved, err := s.repo.ResolveStalePosts(ctx, s.now().Add(-maxAge))
	if err != nil {
		s.logger.Error("auto-resolve failed", "error", err)
	} else if resolved > 0 {
		s.logger.Info("auto-resolve complete", "resolved", resolved)
	}
}

func (s *PostService) authorizedPost(ctx context.Context, actor *User, id string) (*Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if post.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("post %s: %w", id, ErrForbidden)
	}
	return post, nil
}

func (s *PostService) publish(ctx context.Context, eventType PostEventType, post *Post) {
	if s.events == nil {
		return
	}
	event := PostEvent{Type: eventType, Post: *post, At: s.now()}
	if err := s.events.PublishPostEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish post event", "type", eventType, "post_id", post.ID, "error", err)
	}
}
