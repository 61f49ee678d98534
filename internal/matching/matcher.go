package matching

import (
	"fmt"
	"sort"

	"github.com/blackmichael/lostify/internal/domain"
)

// DefaultThreshold is the minimum score a pairing needs to be reported.
const DefaultThreshold = 0.3

// Config tunes the matcher.
type Config struct {
	Weights   Weights `yaml:"weights"`
	Threshold float64 `yaml:"threshold"`
}

// DefaultConfig returns the standard weights and threshold.
func DefaultConfig() Config {
	return Config{
		Weights:   DefaultWeights(),
		Threshold: DefaultThreshold,
	}
}

// Matcher ranks opposite-type candidates for a user's active posts. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	scorer    *Scorer
	threshold float64
}

var _ domain.MatchEngine = (*Matcher)(nil)

// New creates a Matcher from cfg.
func New(cfg Config) (*Matcher, error) {
	scorer, err := NewScorer(cfg.Weights)
	if err != nil {
		return nil, err
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("matching: threshold %v out of range [0, 1]", cfg.Threshold)
	}
	return &Matcher{scorer: scorer, threshold: cfg.Threshold}, nil
}

// ComputeMatches scores each active post in userPosts against every active,
// opposite-type post in allPosts not owned by requesterID, keeps pairings
// scoring at least the threshold, and returns them best first.
//
// Equal scores are ordered by the candidate's creation time, newest first,
// then by candidate ID.
func (m *Matcher) ComputeMatches(requesterID string, userPosts, allPosts []domain.Post) []domain.Match {
	matches := make([]domain.Match, 0)

	for i := range userPosts {
		source := &userPosts[i]
		if !source.IsActive() {
			continue
		}
		want := source.Type.Opposite()

		for j := range allPosts {
			candidate := &allPosts[j]
			if candidate.Type != want || !candidate.IsActive() {
				continue
			}
			// userPosts all belong to requesterID.
			if candidate.OwnerID == requesterID {
				continue
			}

			score := m.scorer.Score(source, candidate)
			if score.Value < m.threshold {
				continue
			}
			matches = append(matches, domain.Match{
				SourcePost:      *source,
				CandidatePost:   *candidate,
				Score:           score.Value,
				ScorePercentage: score.Percentage,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CandidatePost.CreatedAt.Equal(b.CandidatePost.CreatedAt) {
			return a.CandidatePost.CreatedAt.After(b.CandidatePost.CreatedAt)
		}
		return a.CandidatePost.ID < b.CandidatePost.ID
	})

	return matches
}
