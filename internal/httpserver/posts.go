package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/metrics"
)

// createPostRequest accepts the date as either YYYY-MM-DD or RFC 3339.
type createPostRequest struct {
	domain.PostInput
	Date string `json:"date"`
}

type updatePostRequest struct {
	domain.PostPatch
	Date *string `json:"date,omitempty"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePostFilter(r.URL.Query())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	posts, err := s.deps.Posts.ListPosts(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request, user *domain.User) {
	posts, err := s.deps.Posts.MyPosts(r.Context(), user)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func (s *Server) handleMyMatches(w http.ResponseWriter, r *http.Request, user *domain.User) {
	start := time.Now()
	matches, err := s.deps.Posts.MyMatches(r.Context(), user)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	metrics.MatchesReturned.Observe(float64(len(matches)))

	writeJSON(w, http.StatusOK, nonNil(matches))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if !s.allow(w, r, user.ID, "post", s.postRule) {
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	in := req.PostInput
	date, err := parseBodyDate(req.Date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	in.Date = date

	post, err := s.deps.Posts.CreatePost(r.Context(), user, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	patch := req.PostPatch
	if req.Date != nil {
		date, err := parseBodyDate(*req.Date)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if !date.IsZero() {
			patch.Date = &date
		}
	}

	post, err := s.deps.Posts.UpdatePost(r.Context(), user, r.PathValue("id"), patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleResolvePost(w http.ResponseWriter, r *http.Request, user *domain.User) {
	post, err := s.deps.Posts.ResolvePost(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := s.deps.Posts.DeletePost(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// parsePostFilter reads listing filters from the query string. "all" for
// type or category means no filter.
func parsePostFilter(q url.Values) (domain.PostFilter, error) {
	filter := domain.PostFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Location: strings.TrimSpace(q.Get("location")),
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   strings.ToLower(strings.TrimSpace(q.Get("status"))),
		User:     strings.TrimSpace(q.Get("user")),
		SortBy:   domain.PostSort(strings.ToLower(strings.TrimSpace(q.Get("sortBy")))),
	}
	if strings.EqualFold(filter.Category, "all") {
		filter.Category = ""
	}

	if raw := q.Get("type"); raw != "" && !strings.EqualFold(raw, "all") {
		filter.Type = domain.NormalizePostType(raw)
		if !filter.Type.Valid() {
			return filter, fmt.Errorf("%w: unknown post type %q", domain.ErrInvalid, raw)
		}
	}
	if filter.Status != "" && filter.Status != "all" && !domain.PostStatus(filter.Status).Valid() {
		return filter, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, filter.Status)
	}
	switch filter.SortBy {
	case "", domain.SortNewest, domain.SortOldest, domain.SortUpdated, domain.SortResolved:
	default:
		return filter, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalid, filter.SortBy)
	}

	var err error
	if filter.DateFrom, err = parseDate(q.Get("dateFrom")); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDate(q.Get("dateTo")); err != nil {
		return filter, err
	}

	switch strings.ToLower(q.Get("hasImage")) {
	case "", "false", "0":
	case "true", "1":
		filter.HasImage = true
	default:
		return filter, fmt.Errorf("%w: hasImage must be true or false", domain.ErrInvalid)
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalid, raw)
	}
	return t, nil
}

func parseBodyDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return parseDate(raw)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
