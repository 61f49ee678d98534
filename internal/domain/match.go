package domain

// Match pairs one of the requester's posts with an opposite-type candidate
// posted by someone else. Matches are computed on demand and never stored.
type Match struct {
	// SourcePost is the requester's own post.
	SourcePost Post `json:"userPost"`

	// CandidatePost is the opposite-type post it was compared against.
	CandidatePost Post `json:"matchedPost"`

	// Score is the weighted similarity in [0, 1].
	Score float64 `json:"score"`

	// ScorePercentage is Score*100 rounded half-up.
	ScorePercentage int `json:"scorePercentage"`
}
