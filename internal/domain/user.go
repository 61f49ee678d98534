package domain

import "time"

// Role grants access to admin endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account known to Lostify. Accounts are created the first time
// the gateway presents an identity for them.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is what the upstream gateway asserts about the caller.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// UserSettings are per-user preferences.
type UserSettings struct {
	UserID            string   `json:"-"`
	DefaultPostType   PostType `json:"defaultPostType"`
	ContactVisibility string   `json:"contactVisibility"`
	WhatsappPrefix    bool     `json:"whatsappPrefix"`
	AutoResolve       bool     `json:"autoResolve"`
}

// DefaultUserSettings returns the settings of a user who never saved any.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:            userID,
		DefaultPostType:   PostTypeLost,
		ContactVisibility: "public",
		WhatsappPrefix:    true,
		AutoResolve:       false,
	}
}

// AdminSettings is the singleton moderation configuration.
type AdminSettings struct {
	ModerationThreshold   int    `json:"moderationThreshold"`
	RequireManualApproval bool   `json:"requireManualApproval"`
	AnnouncementBanner    string `json:"announcementBanner"`
}

// DefaultAdminSettings returns the settings used before an admin saves any.
func DefaultAdminSettings() AdminSettings {
	return AdminSettings{ModerationThreshold: 3}
}
