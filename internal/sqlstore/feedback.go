package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/blackmichael/lostify/internal/domain"
)

var feedbackColumns = []string{
	"id", "name", "email", "subject", "message", "status", "created_at", "resolved_at", "resolved_by",
}

// CreateFeedback stores a new feedback message.
func (s *Store) CreateFeedback(ctx context.Context, fb *domain.Feedback) error {
	_, err := s.exec(ctx, s.sb.Insert("feedback").Columns(feedbackColumns...).Values(
		fb.ID,
		fb.Name,
		fb.Email,
		fb.Subject,
		fb.Message,
		string(fb.Status),
		utc(fb.CreatedAt),
		nullTime(fb.ResolvedAt),
		fb.ResolvedBy,
	))
	if err != nil {
		return fmt.Errorf("insert feedback %s: %w", fb.ID, err)
	}
	return nil
}

// GetFeedback returns a feedback message by ID.
func (s *Store) GetFeedback(ctx context.Context, id string) (*domain.Feedback, error) {
	row, err := s.queryRow(ctx, s.sb.Select(feedbackColumns...).From("feedback").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	fb, err := scanFeedback(row)
	if err != nil {
		return nil, notFound(err, "feedback", id)
	}
	return fb, nil
}

// ListFeedback returns every message, newest first.
func (s *Store) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := s.query(ctx, s.sb.Select(feedbackColumns...).From("feedback").OrderBy("created_at DESC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return items, nil
}

// UpdateFeedback stores the triage state of a message.
func (s *Store) UpdateFeedback(ctx context.Context, fb *domain.Feedback) error {
	res, err := s.exec(ctx, s.sb.Update("feedback").
		Set("status", string(fb.Status)).
		Set("resolved_at", nullTime(fb.ResolvedAt)).
		Set("resolved_by", fb.ResolvedBy).
		Where(sq.Eq{"id": fb.ID}))
	if err != nil {
		return fmt.Errorf("update feedback %s: %w", fb.ID, err)
	}
	return requireAffected(res, "feedback", fb.ID)
}

// DeleteFeedback removes a message.
func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.sb.Delete("feedback").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete feedback %s: %w", id, err)
	}
	return requireAffected(res, "feedback", id)
}

// CountFeedback returns the total and pending message counts.
func (s *Store) CountFeedback(ctx context.Context) (int, int, error) {
	row, err := s.queryRow(ctx, s.sb.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)",
	).From("feedback"))
	if err != nil {
		return 0, 0, err
	}

	var total, pending int
	if err := row.Scan(&total, &pending); err != nil {
		return 0, 0, fmt.Errorf("count feedback: %w", err)
	}
	return total, pending, nil
}

func scanFeedback(row rowScanner) (*domain.Feedback, error) {
	var (
		fb         domain.Feedback
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Subject, &fb.Message, &status,
		&fb.CreatedAt, &resolvedAt, &fb.ResolvedBy)
	if err != nil {
		return nil, err
	}
	fb.Status = domain.FeedbackStatus(status)
	fb.CreatedAt = fb.CreatedAt.UTC()
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		fb.ResolvedAt = &t
	}
	return &fb, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
