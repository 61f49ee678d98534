package matching

import (
	"fmt"
	"math"

	"github.com/blackmichael/lostify/internal/domain"
)

const (
	weightTolerance = 1e-9
	scorePrecision  = 1e12
)

// Weights are the contribution of each field to the overall score. They must
// sum to 1 so the score stays in [0, 1].
type Weights struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Category    float64 `yaml:"category"`
	Location    float64 `yaml:"location"`
}

// DefaultWeights favour the title, then the description.
func DefaultWeights() Weights {
	return Weights{
		Title:       0.4,
		Description: 0.3,
		Category:    0.2,
		Location:    0.1,
	}
}

// Validate checks that every weight is in [0, 1] and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"title":       w.Title,
		"description": w.Description,
		"category":    w.Category,
		"location":    w.Location,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("matching: %s weight %v out of range [0, 1]", name, v)
		}
	}
	sum := w.Title + w.Description + w.Category + w.Location
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("matching: weights sum to %v, want 1", sum)
	}
	return nil
}

// Score is the similarity of two posts.
type Score struct {
	Value      float64
	Percentage int
}

// Scorer computes the weighted similarity of a pair of posts.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with validated weights.
func NewScorer(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Score compares source against candidate. Title, description and location
// are compared case-insensitively by bigram similarity; category must match
// exactly.
func (s *Scorer) Score(source, candidate *domain.Post) Score {
	title := Similarity(normalized(source.Title), normalized(candidate.Title))
	desc := Similarity(normalized(source.Description), normalized(candidate.Description))
	location := Similarity(normalized(source.Location), normalized(candidate.Location))

	category := 0.0
	if source.Category == candidate.Category {
		category = 1
	}

	value := s.weights.Title*title +
		s.weights.Description*desc +
		s.weights.Category*category +
		s.weights.Location*location

	// Round away float summation noise so 0.2+0.1 compares equal to 0.3 and
	// identical posts score exactly 1.
	value = math.Round(value*scorePrecision) / scorePrecision
	value = math.Min(1, math.Max(0, value))

	return Score{
		Value:      value,
		Percentage: Percentage(value),
	}
}

// Percentage converts a score in [0, 1] to a whole percentage, rounding half
// up.
func Percentage(score float64) int {
	return int(math.Round(score * 100))
}
