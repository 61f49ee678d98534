package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/blackmichael/lostify/internal/domain"
)

// adminSettingsID is the primary key of the single admin_settings row.
const adminSettingsID = 1

// GetUserSettings returns the saved settings of a user.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	row, err := s.queryRow(ctx, s.sb.
		Select("user_id", "default_post_type", "contact_visibility", "whatsapp_prefix", "auto_resolve").
		From("user_settings").
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return nil, err
	}

	var (
		settings domain.UserSettings
		postType string
	)
	err = row.Scan(&settings.UserID, &postType, &settings.ContactVisibility, &settings.WhatsappPrefix, &settings.AutoResolve)
	if err != nil {
		return nil, notFound(err, "settings for user", userID)
	}
	settings.DefaultPostType = domain.PostType(postType)
	return &settings, nil
}

// SaveUserSettings upserts the settings of a user.
func (s *Store) SaveUserSettings(ctx context.Context, settings *domain.UserSettings) error {
	_, err := s.exec(ctx, s.sb.Insert("user_settings").
		Columns("user_id", "default_post_type", "contact_visibility", "whatsapp_prefix", "auto_resolve", "updated_at").
		Values(
			settings.UserID,
			string(settings.DefaultPostType),
			settings.ContactVisibility,
			settings.WhatsappPrefix,
			settings.AutoResolve,
			s.now(),
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			default_post_type = excluded.default_post_type,
			contact_visibility = excluded.contact_visibility,
			whatsapp_prefix = excluded.whatsapp_prefix,
			auto_resolve = excluded.auto_resolve,
			updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("save settings for user %s: %w", settings.UserID, err)
	}
	return nil
}

// GetAdminSettings returns the saved moderation settings.
func (s *Store) GetAdminSettings(ctx context.Context) (*domain.AdminSettings, error) {
	row, err := s.queryRow(ctx, s.sb.
		Select("moderation_threshold", "require_manual_approval", "announcement_banner").
		From("admin_settings").
		Where(sq.Eq{"id": adminSettingsID}))
	if err != nil {
		return nil, err
	}

	var settings domain.AdminSettings
	if err := row.Scan(&settings.ModerationThreshold, &settings.RequireManualApproval, &settings.AnnouncementBanner); err != nil {
		return nil, notFound(err, "admin settings", "")
	}
	return &settings, nil
}

// SaveAdminSettings upserts the moderation settings.
func (s *Store) SaveAdminSettings(ctx context.Context, settings *domain.AdminSettings) error {
	_, err := s.exec(ctx, s.sb.Insert("admin_settings").
		Columns("id", "moderation_threshold", "require_manual_approval", "announcement_banner", "updated_at").
		Values(
			adminSettingsID,
			settings.ModerationThreshold,
			settings.RequireManualApproval,
			settings.AnnouncementBanner,
			s.now(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			moderation_threshold = excluded.moderation_threshold,
			require_manual_approval = excluded.require_manual_approval,
			announcement_banner = excluded.announcement_banner,
			updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("save admin settings: %w", err)
	}
	return nil
}
