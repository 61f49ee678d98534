package domain

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory implementation of every repository port.
type memStore struct {
	mu            sync.Mutex
	posts         map[string]Post
	users         map[string]User
	feedback      map[string]Feedback
	settings      map[string]UserSettings
	adminSettings *AdminSettings
	resolveCutoff time.Time
}

func newMemStore() *memStore {
	return &memStore{
		posts:    make(map[string]Post),
		users:    make(map[string]User),
		feedback: make(map[string]Feedback),
		settings: make(map[string]UserSettings),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *memStore) CreatePost(_ context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = *post
	return nil
}

func (m *memStore) GetPost(_ context.Context, id string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) UpdatePost(_ context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return ErrNotFound
	}
	m.posts[post.ID] = *post
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// ListPosts honours only the status filter; the SQL filters are covered by
// the storage tests.
func (m *memStore) ListPosts(_ context.Context, filter PostFilter) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Post
	for _, p := range m.posts {
		switch {
		case filter.Status == "all":
		case filter.Status == "" && p.Status != PostStatusActive:
			continue
		case filter.Status != "" && string(p.Status) != filter.Status:
			continue
		}
		out = append(out, p)
	}
	sortPosts(out)
	return out, nil
}

func (m *memStore) ListPostsByOwner(_ context.Context, ownerID string) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Post
	for _, p := range m.posts {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sortPosts(out)
	return out, nil
}

func (m *memStore) ListAllPosts(_ context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	sortPosts(out)
	return out, nil
}

func (m *memStore) ResolveStalePosts(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveCutoff = cutoff
	var n int64
	for id, p := range m.posts {
		if p.IsActive() && p.CreatedAt.Before(cutoff) && m.settings[p.OwnerID].AutoResolve {
			p.Status = PostStatusResolved
			m.posts[id] = p
			n++
		}
	}
	return n, nil
}

func (m *memStore) PostStats(_ context.Context) (PostStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s PostStats
	for _, p := range m.posts {
		s.Total++
		if p.Type == PostTypeLost {
			s.Lost++
		} else {
			s.Found++
		}
		switch {
		case p.Flagged || p.Status == PostStatusFlagged:
			s.Flagged++
		case p.Status == PostStatusResolved:
			s.Resolved++
		default:
			s.Active++
		}
	}
	return s, nil
}

func (m *memStore) UpsertUser(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.ID]; ok {
		existing.Username = user.Username
		existing.Email = user.Email
		existing.LastSeenAt = user.LastSeenAt
		m.users[user.ID] = existing
		return &existing, nil
	}
	m.users[user.ID] = *user
	u := *user
	return &u, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SetUserEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Enabled = enabled
	m.users[id] = u
	return nil
}

func (m *memStore) SetUserRole(_ context.Context, id string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return nil
}

func (m *memStore) CreateFeedback(_ context.Context, fb *Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[fb.ID] = *fb
	return nil
}

func (m *memStore) GetFeedback(_ context.Context, id string) (*Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb, ok := m.feedback[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &fb, nil
}

func (m *memStore) ListFeedback(_ context.Context) ([]Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Feedback, 0, len(m.feedback))
	for _, fb := range m.feedback {
		out = append(out, fb)
	}
	return out, nil
}

func (m *memStore) UpdateFeedback(_ context.Context, fb *Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[fb.ID]; !ok {
		return ErrNotFound
	}
	m.feedback[fb.ID] = *fb
	return nil
}

func (m *memStore) DeleteFeedback(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[id]; !ok {
		return ErrNotFound
	}
	delete(m.feedback, id)
	return nil
}

func (m *memStore) CountFeedback(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := 0
	for _, fb := range m.feedback {
		if fb.Status == FeedbackPending {
			pending++
		}
	}
	return len(m.feedback), pending, nil
}

func (m *memStore) GetUserSettings(_ context.Context, userID string) (*UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memStore) SaveUserSettings(_ context.Context, settings *UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = *settings
	return nil
}

func (m *memStore) GetAdminSettings(_ context.Context) (*AdminSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adminSettings == nil {
		return nil, ErrNotFound
	}
	s := *m.adminSettings
	return &s, nil
}

func (m *memStore) SaveAdminSettings(_ context.Context, settings *AdminSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *settings
	m.adminSettings = &s
	return nil
}

func sortPosts(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []PostEvent
	err    error
}

func (r *recordingPublisher) PublishPostEvent(_ context.Context, event PostEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) types() []PostEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PostEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// stubMatcher records the inputs it was given.
type stubMatcher struct {
	requester string
	userPosts []Post
	allPosts  []Post
	result    []Match
}

func (s *stubMatcher) ComputeMatches(requesterID string, userPosts, allPosts []Post) []Match {
	s.requester = requesterID
	s.userPosts = userPosts
	s.allPosts = allPosts
	return s.result
}
