package matching

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/google/go-cmp/cmp"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return m
}

func post(id, owner string, typ domain.PostType, title, desc, category, location string) domain.Post {
	return domain.Post{
		ID:          id,
		Type:        typ,
		Title:       title,
		Description: desc,
		Category:    category,
		Location:    location,
		Date:        baseTime,
		ContactInfo: "+10000000000",
		OwnerID:     owner,
		Status:      domain.PostStatusActive,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func TestComputeMatches_ExactDuplicate(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeLost, "Black Wallet", "lost near gym", "Wallets", "Gym")
	theirs := post("p2", "bob", domain.PostTypeFound, "Black Wallet", "lost near gym", "Wallets", "Gym")

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{mine, theirs})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", matches[0].Score)
	}
	if matches[0].ScorePercentage != 100 {
		t.Errorf("expected 100%%, got %d", matches[0].ScorePercentage)
	}
	if matches[0].SourcePost.ID != "p1" || matches[0].CandidatePost.ID != "p2" {
		t.Errorf("unexpected pairing %s -> %s", matches[0].SourcePost.ID, matches[0].CandidatePost.ID)
	}
}

func TestComputeMatches_CategoryMismatchOnly(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeLost, "Black Wallet", "lost near gym", "Wallets", "Gym")
	theirs := post("p2", "bob", domain.PostTypeFound, "Black Wallet", "lost near gym", "Accessories", "Gym")

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{theirs})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if math.Abs(matches[0].Score-0.8) > 1e-9 {
		t.Errorf("expected score 0.8, got %v", matches[0].Score)
	}
	if matches[0].ScorePercentage != 80 {
		t.Errorf("expected 80%%, got %d", matches[0].ScorePercentage)
	}
}

func TestComputeMatches_NoOverlapExcluded(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeLost, "Keys", "silver ring", "Keys", "Library")
	theirs := post("p2", "bob", domain.PostTypeFound, "Phone", "cracked screen", "Electronics", "Gym")

	scorer, _ := NewScorer(DefaultWeights())
	if got := scorer.Score(&mine, &theirs).Value; got != 0 {
		t.Errorf("expected score 0, got %v", got)
	}

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{theirs})
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestComputeMatches_ThresholdIsInclusive(t *testing.T) {
	m := newTestMatcher(t)

	// Same category and location only: 0.2 + 0.1.
	mine := post("p1", "alice", domain.PostTypeLost, "Keys", "silver ring", "Keys", "Library")
	atThreshold := post("p2", "bob", domain.PostTypeFound, "Phone", "cracked screen", "Keys", "Library")

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{atThreshold})
	if len(matches) != 1 {
		t.Fatalf("expected the 0.30 pairing to be kept, got %d matches", len(matches))
	}
	if matches[0].Score != 0.3 {
		t.Errorf("expected score 0.3, got %v", matches[0].Score)
	}
	if matches[0].ScorePercentage != 30 {
		t.Errorf("expected 30%%, got %d", matches[0].ScorePercentage)
	}
}

func TestComputeMatches_JustBelowThresholdExcluded(t *testing.T) {
	m, err := New(Config{
		Weights:   Weights{Title: 0.29, Description: 0.01, Category: 0.7, Location: 0},
		Threshold: DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	mine := post("p1", "alice", domain.PostTypeLost, "Keys", "silver ring", "Keys", "Library")
	below := post("p2", "bob", domain.PostTypeFound, "Keys", "cracked screen", "Phones", "Library")
	at := post("p3", "carol", domain.PostTypeFound, "Keys", "silver ring", "Phones", "Library")

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{below, at})
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(matches))
	}
	if matches[0].CandidatePost.ID != "p3" {
		t.Errorf("expected the 0.30 candidate p3, got %s (score %v)", matches[0].CandidatePost.ID, matches[0].Score)
	}
}

func TestComputeMatches_SkipsSelfSameTypeAndInactive(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeLost, "Black Wallet", "leather", "Wallets", "Gym")
	resolvedMine := post("p2", "alice", domain.PostTypeFound, "Black Wallet", "leather", "Wallets", "Gym")
	resolvedMine.Status = domain.PostStatusResolved

	ownFound := post("p3", "alice", domain.PostTypeFound, "Black Wallet", "leather", "Wallets", "Gym")
	sameType := post("p4", "bob", domain.PostTypeLost, "Black Wallet", "leather", "Wallets", "Gym")
	flagged := post("p5", "bob", domain.PostTypeFound, "Black Wallet", "leather", "Wallets", "Gym")
	flagged.Status = domain.PostStatusFlagged
	resolved := post("p6", "carol", domain.PostTypeFound, "Black Wallet", "leather", "Wallets", "Gym")
	resolved.Status = domain.PostStatusResolved
	good := post("p7", "dave", domain.PostTypeFound, "Black Wallet", "leather", "Wallets", "Gym")

	// A resolved user post would otherwise match "sameType".
	userPosts := []domain.Post{mine, resolvedMine}
	all := []domain.Post{mine, resolvedMine, ownFound, sameType, flagged, resolved, good}

	matches := m.ComputeMatches("alice", userPosts, all)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].CandidatePost.ID != "p7" {
		t.Errorf("expected candidate p7, got %s", matches[0].CandidatePost.ID)
	}
}

func TestComputeMatches_FoundPostGetsLostCandidates(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeFound, "Blue Umbrella", "", "Other", "Cafeteria")
	lost := post("p2", "bob", domain.PostTypeLost, "Blue umbrella", "", "Other", "cafeteria")

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{lost})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].CandidatePost.Type != domain.PostTypeLost {
		t.Errorf("expected lost candidate, got %s", matches[0].CandidatePost.Type)
	}
	// Empty descriptions compare as equal.
	if matches[0].Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", matches[0].Score)
	}
}

func TestComputeMatches_EmptyInputs(t *testing.T) {
	m := newTestMatcher(t)
	p := post("p1", "bob", domain.PostTypeFound, "Wallet", "", "Wallets", "Gym")

	cases := map[string]struct {
		user []domain.Post
		all  []domain.Post
	}{
		"no user posts": {user: nil, all: []domain.Post{p}},
		"no corpus":     {user: []domain.Post{post("p2", "alice", domain.PostTypeLost, "Wallet", "", "Wallets", "Gym")}, all: nil},
		"both empty":    {},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			matches := m.ComputeMatches("alice", tc.user, tc.all)
			if matches == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(matches) != 0 {
				t.Errorf("expected no matches, got %d", len(matches))
			}
		})
	}
}

func TestComputeMatches_TieBreakByRecencyThenID(t *testing.T) {
	m := newTestMatcher(t)

	mine := post("p1", "alice", domain.PostTypeLost, "Black Wallet", "", "Wallets", "Gym")
	older := post("c-old", "bob", domain.PostTypeFound, "Black Wallet", "", "Wallets", "Gym")
	newerB := post("c-b", "carol", domain.PostTypeFound, "Black Wallet", "", "Wallets", "Gym")
	newerB.CreatedAt = baseTime.Add(time.Hour)
	newerA := post("c-a", "dave", domain.PostTypeFound, "Black Wallet", "", "Wallets", "Gym")
	newerA.CreatedAt = baseTime.Add(time.Hour)

	matches := m.ComputeMatches("alice", []domain.Post{mine}, []domain.Post{older, newerB, newerA})

	var got []string
	for _, match := range matches {
		got = append(got, match.CandidatePost.ID)
	}
	want := []string{"c-a", "c-b", "c-old"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestComputeMatches_Properties(t *testing.T) {
	m := newTestMatcher(t)
	rng := rand.New(rand.NewSource(42))

	titles := []string{"Black Wallet", "Brown wallet", "iPhone 13", "Phone", "Keys", "Car keys", "Blue umbrella", "Student ID", "AirPods case", "Water bottle"}
	descs := []string{"", "lost near gym", "found near the gym", "leather, with cards", "red lanyard", "cracked screen", "left in lecture hall"}
	categories := []string{"Wallets", "Electronics", "Keys", "Other", "ID Cards"}
	locations := []string{"Gym", "Library", "Cafeteria", "Main Hall", "Parking lot B"}
	owners := []string{"alice", "bob", "carol", "dave"}
	statuses := []domain.PostStatus{domain.PostStatusActive, domain.PostStatusActive, domain.PostStatusActive, domain.PostStatusResolved, domain.PostStatusFlagged}

	var all []domain.Post
	for i := 0; i < 120; i++ {
		typ := domain.PostTypeLost
		if rng.Intn(2) == 0 {
			typ = domain.PostTypeFound
		}
		p := post(fmt.Sprintf("p%03d", i), owners[rng.Intn(len(owners))], typ,
			titles[rng.Intn(len(titles))],
			descs[rng.Intn(len(descs))],
			categories[rng.Intn(len(categories))],
			locations[rng.Intn(len(locations))],
		)
		p.Status = statuses[rng.Intn(len(statuses))]
		p.CreatedAt = baseTime.Add(time.Duration(rng.Intn(1000)) * time.Minute)
		all = append(all, p)
	}

	var mine []domain.Post
	for _, p := range all {
		if p.OwnerID == "alice" {
			mine = append(mine, p)
		}
	}

	matches := m.ComputeMatches("alice", mine, all)
	if len(matches) == 0 {
		t.Fatal("expected the generated corpus to produce matches")
	}

	for i, match := range matches {
		if match.Score < 0 || match.Score > 1 {
			t.Errorf("match %d: score %v out of range", i, match.Score)
		}
		if match.ScorePercentage != int(math.Round(match.Score*100)) {
			t.Errorf("match %d: percentage %d does not match score %v", i, match.ScorePercentage, match.Score)
		}
		if match.Score < DefaultThreshold {
			t.Errorf("match %d: score %v below threshold", i, match.Score)
		}
		if match.SourcePost.Type == match.CandidatePost.Type {
			t.Errorf("match %d: both posts are %s", i, match.SourcePost.Type)
		}
		if match.CandidatePost.OwnerID == "alice" || match.CandidatePost.OwnerID == match.SourcePost.OwnerID {
			t.Errorf("match %d: candidate owned by requester", i)
		}
		if !match.SourcePost.IsActive() || !match.CandidatePost.IsActive() {
			t.Errorf("match %d: inactive post involved", i)
		}
		if i > 0 && matches[i-1].Score < match.Score {
			t.Errorf("match %d: not sorted descending (%v before %v)", i, matches[i-1].Score, match.Score)
		}
	}

	again := m.ComputeMatches("alice", mine, all)
	if diff := cmp.Diff(matches, again); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "weights do not sum to one", cfg: Config{Weights: Weights{Title: 0.5, Description: 0.5, Category: 0.5}, Threshold: 0.3}},
		{name: "negative weight", cfg: Config{Weights: Weights{Title: 1.2, Description: -0.2}, Threshold: 0.3}},
		{name: "threshold above one", cfg: Config{Weights: DefaultWeights(), Threshold: 1.5}},
		{name: "negative threshold", cfg: Config{Weights: DefaultWeights(), Threshold: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPercentage_RoundsHalfUp(t *testing.T) {
	cases := map[float64]int{0: 0, 0.125: 13, 0.3: 30, 0.375: 38, 0.8: 80, 0.994: 99, 1: 100}
	for score, want := range cases {
		if got := Percentage(score); got != want {
			t.Errorf("Percentage(%v) = %d, want %d", score, got, want)
		}
	}
}
