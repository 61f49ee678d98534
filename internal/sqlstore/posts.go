package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/blackmichael/lostify/internal/domain"
)

var postColumns = []string{
	"id", "type", "title", "description", "category", "location", "item_date",
	"contact_info", "owner_id", "owner_name", "image_url", "status", "flagged",
	"admin_note", "created_at", "updated_at",
}

// CreatePost inserts a new post.
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	_, err := s.exec(ctx, s.sb.Insert("posts").Columns(postColumns...).Values(
		post.ID,
		string(post.Type),
		post.Title,
		post.Description,
		post.Category,
		post.Location,
		utc(post.Date),
		post.ContactInfo,
		post.OwnerID,
		post.OwnerName,
		post.ImageURL,
		string(post.Status),
		post.Flagged,
		post.AdminNote,
		utc(post.CreatedAt),
		utc(post.UpdatedAt),
	))
	if err != nil {
		return fmt.Errorf("insert post %s: %w", post.ID, err)
	}
	return nil
}

// GetPost returns a post by ID.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	row, err := s.queryRow(ctx, s.sb.Select(postColumns...).From("posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	post, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return post, nil
}

// UpdatePost overwrites the mutable fields of a post.
func (s *Store) UpdatePost(ctx context.Context, post *domain.Post) error {
	res, err := s.exec(ctx, s.sb.Update("posts").SetMap(map[string]any{
		"title":        post.Title,
		"description":  post.Description,
		"category":     post.Category,
		"location":     post.Location,
		"item_date":    utc(post.Date),
		"contact_info": post.ContactInfo,
		"image_url":    post.ImageURL,
		"status":       string(post.Status),
		"flagged":      post.Flagged,
		"admin_note":   post.AdminNote,
		"updated_at":   utc(post.UpdatedAt),
	}).Where(sq.Eq{"id": post.ID}))
	if err != nil {
		return fmt.Errorf("update post %s: %w", post.ID, err)
	}
	return requireAffected(res, "post", post.ID)
}

// DeletePost removes a post by ID.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.sb.Delete("posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return requireAffected(res, "post", id)
}

// ListPosts returns posts narrowed and ordered by filter.
func (s *Store) ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.Post, error) {
	q, err := s.listPostsQuery(filter)
	if err != nil {
		return nil, err
	}
	return s.listPosts(ctx, q)
}

// listPostsQuery builds the filtered listing. Subqueries are rendered with
// ? placeholders and renumbered by the outer builder.
func (s *Store) listPostsQuery(filter domain.PostFilter) (sq.SelectBuilder, error) {
	q := s.sb.Select(postColumns...).From("posts")

	switch status := strings.TrimSpace(strings.ToLower(filter.Status)); status {
	case "":
		q = q.Where(sq.Eq{"status": string(domain.PostStatusActive)})
	case "all":
	default:
		q = q.Where(sq.Eq{"status": status})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"type": string(filter.Type)})
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where(sq.Eq{"LOWER(category)": strings.ToLower(c)})
	}
	if l := strings.TrimSpace(filter.Location); l != "" {
		q = q.Where(sq.Like{"LOWER(location)": containsPattern(l)})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := containsPattern(term)
		q = q.Where(sq.Or{
			sq.Like{"LOWER(title)": pattern},
			sq.Like{"LOWER(description)": pattern},
		})
	}
	if !filter.DateFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"item_date": utc(startOfDay(filter.DateFrom))})
	}
	if !filter.DateTo.IsZero() {
		q = q.Where(sq.Lt{"item_date": utc(startOfDay(filter.DateTo).AddDate(0, 0, 1))})
	}
	if u := strings.TrimSpace(filter.User); u != "" {
		pattern := containsPattern(u)
		owners, args, err := s.sb.Select("id").From("users").Where(sq.Or{
			sq.Like{"LOWER(username)": pattern},
			sq.Like{"LOWER(email)": pattern},
		}).PlaceholderFormat(sq.Question).ToSql()
		if err != nil {
			return q, fmt.Errorf("build query: %w", err)
		}
		q = q.Where(sq.Expr("owner_id IN ("+owners+")", args...))
	}
	if filter.HasImage {
		q = q.Where(sq.NotEq{"image_url": ""})
	}

	switch filter.SortBy {
	case domain.SortOldest:
		q = q.OrderBy("created_at ASC", "id ASC")
	case domain.SortUpdated:
		q = q.OrderBy("updated_at DESC", "id ASC")
	case domain.SortResolved:
		q = q.OrderBy("CASE WHEN status = 'resolved' THEN 0 ELSE 1 END", "created_at DESC", "id ASC")
	default:
		q = q.OrderBy("created_at DESC", "id ASC")
	}
	return q, nil
}

// ListPostsByOwner returns every post of a user in any status.
func (s *Store) ListPostsByOwner(ctx context.Context, ownerID string) ([]domain.Post, error) {
	return s.listPosts(ctx, s.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id ASC"))
}

// ListAllPosts returns every stored post in any status.
func (s *Store) ListAllPosts(ctx context.Context) ([]domain.Post, error) {
	return s.listPosts(ctx, s.sb.Select(postColumns...).From("posts").OrderBy("created_at DESC", "id ASC"))
}

// ResolveStalePosts resolves active posts created before cutoff whose owner
// turned on auto-resolve. Returns the number of rows changed.
func (s *Store) ResolveStalePosts(ctx context.Context, cutoff time.Time) (int64, error) {
	q, err := s.resolveStaleQuery(cutoff)
	if err != nil {
		return 0, err
	}

	res, err := s.exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("resolve stale posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) resolveStaleQuery(cutoff time.Time) (sq.UpdateBuilder, error) {
	optedIn := s.sb.Select("user_id").From("user_settings").Where(sq.Eq{"auto_resolve": true})
	sub, subArgs, err := optedIn.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return sq.UpdateBuilder{}, fmt.Errorf("build query: %w", err)
	}

	return s.sb.Update("posts").
		Set("status", string(domain.PostStatusResolved)).
		Set("updated_at", s.now()).
		Where(sq.Eq{"status": string(domain.PostStatusActive)}).
		Where(sq.Lt{"created_at": utc(cutoff)}).
		Where(sq.Expr("owner_id IN ("+sub+")", subArgs...)), nil
}

// PostStats returns aggregate counts over all posts.
func (s *Store) PostStats(ctx context.Context) (domain.PostStats, error) {
	var stats domain.PostStats

	rows, err := s.query(ctx, s.sb.Select("type", "status", "flagged", "COUNT(*)").
		From("posts").
		GroupBy("type", "status", "flagged"))
	if err != nil {
		return stats, fmt.Errorf("query post stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ, status string
			flagged     bool
			count       int
		)
		if err := rows.Scan(&typ, &status, &flagged, &count); err != nil {
			return stats, fmt.Errorf("scan post stats: %w", err)
		}
		stats.Total += count
		switch domain.PostType(typ) {
		case domain.PostTypeLost:
			stats.Lost += count
		case domain.PostTypeFound:
			stats.Found += count
		}
		switch domain.PostStatus(status) {
		case domain.PostStatusActive:
			stats.Active += count
		case domain.PostStatusResolved:
			stats.Resolved += count
		}
		if flagged || domain.PostStatus(status) == domain.PostStatusFlagged {
			stats.Flagged += count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate post stats: %w", err)
	}
	return stats, nil
}

func (s *Store) listPosts(ctx context.Context, q sq.SelectBuilder) ([]domain.Post, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		p           domain.Post
		typ, status string
	)
	err := row.Scan(
		&p.ID,
		&typ,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Location,
		&p.Date,
		&p.ContactInfo,
		&p.OwnerID,
		&p.OwnerName,
		&p.ImageURL,
		&status,
		&p.Flagged,
		&p.AdminNote,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PostType(typ)
	p.Status = domain.PostStatus(status)
	p.Date = p.Date.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// containsPattern builds a lower-cased LIKE pattern matching term anywhere.
// Wildcards inside term are not escaped.
func containsPattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
