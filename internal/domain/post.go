package domain

import (
	"fmt"
	"strings"
	"time"
)

// PostType distinguishes reports of lost items from reports of found items.
type PostType string

const (
	PostTypeLost  PostType = "lost"
	PostTypeFound PostType = "found"
)

// Opposite returns the counterpart type used when looking for matches.
func (t PostType) Opposite() PostType {
	if t == PostTypeLost {
		return PostTypeFound
	}
	return PostTypeLost
}

// NormalizePostType trims and lower-cases s. The result may still be
// invalid; check it with Valid.
func NormalizePostType(s string) PostType {
	return PostType(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	return t == PostTypeLost || t == PostTypeFound
}

// PostStatus is the moderation/lifecycle state of a post.
type PostStatus string

const (
	PostStatusActive   PostStatus = "active"
	PostStatusResolved PostStatus = "resolved"
	PostStatusFlagged  PostStatus = "flagged"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusActive, PostStatusResolved, PostStatusFlagged:
		return true
	}
	return false
}

// Post is a single lost or found report.
type Post struct {
	// ID is the opaque unique identifier of the post.
	ID string `json:"id"`

	Type        PostType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`

	// Category is free text and compared by exact equality when matching.
	Category string `json:"category"`
	Location string `json:"location"`

	// Date is the day the item was lost or found, not the creation time.
	Date time.Time `json:"date"`

	// ContactInfo is only displayed to other users, never matched on.
	ContactInfo string `json:"contactInfo"`

	// OwnerID is the user that authored the post.
	OwnerID   string `json:"user"`
	OwnerName string `json:"username"`

	ImageURL  string     `json:"imageUrl,omitempty"`
	Status    PostStatus `json:"status"`
	Flagged   bool       `json:"flagged"`
	AdminNote string     `json:"adminNote,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsActive reports whether the post takes part in matching.
func (p *Post) IsActive() bool {
	return p.Status == PostStatusActive
}

// PostInput carries the user-supplied fields of a new post.
type PostInput struct {
	Type        PostType  `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	ContactInfo string    `json:"contactInfo"`
	ImageURL    string    `json:"imageUrl"`
}

// Validate checks required fields and rejects dates after the end of the
// day containing now.
func (in *PostInput) Validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Location = strings.TrimSpace(in.Location)
	in.ContactInfo = strings.TrimSpace(in.ContactInfo)
	in.Type = NormalizePostType(string(in.Type))

	if in.Title == "" || in.Type == "" || in.Category == "" || in.Location == "" || in.ContactInfo == "" {
		return fmt.Errorf("%w: missing required fields", ErrInvalid)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: type must be either %q or %q", ErrInvalid, PostTypeLost, PostTypeFound)
	}
	if !in.Date.IsZero() && in.Date.After(endOfDay(now)) {
		return fmt.Errorf("%w: future dates are not allowed", ErrInvalid)
	}
	return nil
}

// PostPatch is a partial update of a post. Nil fields are left unchanged.
type PostPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Location    *string     `json:"location,omitempty"`
	Date        *time.Time  `json:"date,omitempty"`
	ContactInfo *string     `json:"contactInfo,omitempty"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	Status      *PostStatus `json:"status,omitempty"`
}

// Apply copies the set fields of the patch onto p.
func (pp PostPatch) Apply(p *Post) error {
	if pp.Title != nil {
		if strings.TrimSpace(*pp.Title) == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrInvalid)
		}
		p.Title = strings.TrimSpace(*pp.Title)
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Category != nil {
		p.Category = strings.TrimSpace(*pp.Category)
	}
	if pp.Location != nil {
		if strings.TrimSpace(*pp.Location) == "" {
			return fmt.Errorf("%w: location cannot be empty", ErrInvalid)
		}
		p.Location = strings.TrimSpace(*pp.Location)
	}
	if pp.Date != nil {
		p.Date = *pp.Date
	}
	if pp.ContactInfo != nil {
		p.ContactInfo = strings.TrimSpace(*pp.ContactInfo)
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
	if pp.Status != nil {
		if !pp.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalid, *pp.Status)
		}
		p.Status = *pp.Status
	}
	return nil
}

// ModerationPatch is the admin-only update applied to a post.
type ModerationPatch struct {
	Status    *PostStatus `json:"status,omitempty"`
	Flagged   *bool       `json:"flagged,omitempty"`
	AdminNote *string     `json:"adminNote,omitempty"`
}

// PostSort selects the ordering of a post listing.
type PostSort string

const (
	SortNewest   PostSort = "newest"
	SortOldest   PostSort = "oldest"
	SortUpdated  PostSort = "updated"
	SortResolved PostSort = "resolved"
)

// PostFilter narrows a post listing. Zero values mean "no filter", except
// Status: an empty status selects active posts and "all" selects any.
type PostFilter struct {
	Type     PostType
	Category string
	Location string
	Search   string
	Status   string
	DateFrom time.Time
	DateTo   time.Time
	User     string
	HasImage bool
	SortBy   PostSort
}

// PostEventType names what happened to a post.
type PostEventType string

const (
	PostCreated  PostEventType = "created"
	PostUpdated  PostEventType = "updated"
	PostResolved PostEventType = "resolved"
	PostDeleted  PostEventType = "deleted"
)

// PostEvent is published after a post write succeeds.
type PostEvent struct {
	Type PostEventType `json:"type"`
	Post Post          `json:"post"`
	At   time.Time     `json:"at"`
}

// PostStats are aggregate post counts used by the analytics view.
type PostStats struct {
	Total    int `json:"totalPosts"`
	Lost     int `json:"lostPosts"`
	Found    int `json:"foundPosts"`
	Active   int `json:"activePosts"`
	Resolved int `json:"resolvedPosts"`
	Flagged  int `json:"flaggedPosts"`
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
