package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AccountService resolves gateway identities into users and manages
// per-user settings.
type AccountService struct {
	users         UserRepository
	settings      SettingsRepository
	allowedDomain string
	logger        *slog.Logger
	now           func() time.Time
}

// NewAccountService creates an AccountService. An empty allowedDomain
// accepts any email address.
func NewAccountService(users UserRepository, settings SettingsRepository, allowedDomain string, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:         users,
		settings:      settings,
		allowedDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(allowedDomain), "@")),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Resolve turns the identity asserted by the gateway into a stored user,
// creating it on first sight. It rejects emails outside the institutional
// domain and users an admin has disabled.
func (s *AccountService) Resolve(ctx context.Context, id Identity) (*User, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalid)
	}
	if !s.EmailAllowed(id.Email) {
		return nil, fmt.Errorf("email %q: %w", id.Email, ErrForbidden)
	}

	username := id.Username
	if username == "" {
		username, _, _ = strings.Cut(id.Email, "@")
	}

	now := s.now()
	user, err := s.users.UpsertUser(ctx, &User{
		ID:         id.UserID,
		Username:   username,
		Email:      strings.ToLower(id.Email),
		Role:       RoleUser,
		Enabled:    true,
		CreatedAt:  now,
		LastSeenAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", id.UserID, err)
	}
	if !user.Enabled {
		return nil, fmt.Errorf("user %s: %w", user.ID, ErrDisabled)
	}
	return user, nil
}

// EmailAllowed reports whether the email belongs to the configured domain.
func (s *AccountService) EmailAllowed(email string) bool {
	if s.allowedDomain == "" {
		return true
	}
	_, domain, ok := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	return ok && domain == s.allowedDomain
}

// ListUsers returns all accounts.
func (s *AccountService) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserEnabled enables or disables an account. Admins cannot disable
// themselves.
func (s *AccountService) SetUserEnabled(ctx context.Context, actor *User, id string, enabled bool) (*User, error) {
	if actor.ID == id && !enabled {
		return nil, fmt.Errorf("%w: cannot disable your own account", ErrInvalid)
	}
	if err := s.users.SetUserEnabled(ctx, id, enabled); err != nil {
		return nil, fmt.Errorf("set user %s enabled: %w", id, err)
	}
	s.logger.Info("user status changed", "user", id, "enabled", enabled, "actor", actor.ID)
	return s.users.GetUser(ctx, id)
}

// SeedAdmin creates or promotes the given account to admin.
func (s *AccountService) SeedAdmin(ctx context.Context, id Identity) (*User, error) {
	user, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	if err := s.users.SetUserRole(ctx, user.ID, RoleAdmin); err != nil {
		return nil, fmt.Errorf("promote %s: %w", user.ID, err)
	}
	user.Role = RoleAdmin
	s.logger.Info("admin seeded", "user", user.ID, "username", user.Username)
	return user, nil
}

// GetSettings returns the user's settings, or the defaults if none were
// saved.
func (s *AccountService) GetSettings(ctx context.Context, user *User) (*UserSettings, error) {
	settings, err := s.settings.GetUserSettings(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		defaults := DefaultUserSettings(user.ID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings of %s: %w", user.ID, err)
	}
	return settings, nil
}

// SaveSettings stores the user's settings.
func (s *AccountService) SaveSettings(ctx context.Context, user *User, settings UserSettings) (*UserSettings, error) {
	settings.UserID = user.ID
	if settings.DefaultPostType == "" {
		settings.DefaultPostType = PostTypeLost
	}
	if !settings.DefaultPostType.Valid() {
		return nil, fmt.Errorf("%w: unknown post type %q", ErrInvalid, settings.DefaultPostType)
	}
	switch settings.ContactVisibility {
	case "":
		settings.ContactVisibility = "public"
	case "public", "registered":
	default:
		return nil, fmt.Errorf("%w: unknown contact visibility %q", ErrInvalid, settings.ContactVisibility)
	}

	if err := s.settings.SaveUserSettings(ctx, &settings); err != nil {
		return nil, fmt.Errorf("save settings of %s: %w", user.ID, err)
	}
	return &settings, nil
}
