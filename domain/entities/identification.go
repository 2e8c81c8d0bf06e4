package entities

// Strategy selects how a speaker's enrolled templates are reduced to a single
// similarity score against the probe.
type Strategy string

const (
	// StrategyMax scores a speaker by their best-matching template. Most
	// permissive, tolerant of one strong enrollment.
	StrategyMax Strategy = "max"
	// StrategyMean averages the similarity over all templates, penalizing
	// inconsistent enrollments.
	StrategyMean Strategy = "mean"
	// StrategyAvgRef averages the templates into one reference vector first,
	// biased toward the enrollment centroid.
	StrategyAvgRef Strategy = "avgref"
)

// UnknownSpeaker is the speaker id reported when no candidate clears the
// acceptance threshold.
const UnknownSpeaker = "unknown"

// Match pairs a candidate speaker with its similarity score.
type Match struct {
	Speaker string  `json:"speaker"`
	Score   float64 `json:"score"`
}

// IdentificationResult is the ranked decision of the identification engine.
// SpeakerID is UnknownSpeaker whenever Confidence falls below Threshold;
// MatchedPerson still names the best candidate for diagnostics.
type IdentificationResult struct {
	SpeakerID     string   `json:"speaker_id"`
	Confidence    float64  `json:"confidence"`
	MatchedPerson string   `json:"matched_person,omitempty"`
	TopMatches    []Match  `json:"top_matches,omitempty"`
	Margin        *float64 `json:"margin,omitempty"`
	Strategy      Strategy `json:"strategy,omitempty"`
	Threshold     float64  `json:"threshold,omitempty"`
}
