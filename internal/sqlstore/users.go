package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/blackmichael/lostify/internal/domain"
)

var userColumns = []string{"id", "username", "email", "role", "enabled", "created_at", "last_seen_at"}

// UpsertUser inserts the user, or refreshes username, email and last seen
// time of an existing one, and returns the stored row.
func (s *Store) UpsertUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, err := s.exec(ctx, s.sb.Insert("users").Columns(userColumns...).Values(
		user.ID,
		user.Username,
		user.Email,
		string(user.Role),
		user.Enabled,
		utc(user.CreatedAt),
		utc(user.LastSeenAt),
	).Suffix(`ON CONFLICT (id) DO UPDATE SET
		username = excluded.username,
		email = excluded.email,
		last_seen_at = excluded.last_seen_at`))
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", user.ID, err)
	}
	return s.GetUser(ctx, user.ID)
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row, err := s.queryRow(ctx, s.sb.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.query(ctx, s.sb.Select(userColumns...).From("users").OrderBy("created_at DESC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// SetUserEnabled enables or disables a user.
func (s *Store) SetUserEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.exec(ctx, s.sb.Update("users").Set("enabled", enabled).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set user %s enabled: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

// SetUserRole changes the role of a user.
func (s *Store) SetUserRole(ctx context.Context, id string, role domain.Role) error {
	res, err := s.exec(ctx, s.sb.Update("users").Set("role", string(role)).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set user %s role: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &u.Enabled, &u.CreatedAt, &u.LastSeenAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.LastSeenAt = u.LastSeenAt.UTC()
	return &u, nil
}
