package voiceprint

import (
	"errors"
	"math"
	"sort"

	"github.com/peepalabs/peepa-server/domain/entities"
)

const unitEps = 1e-9

// ErrInvalidEmbedding reports a probe whose norm is non-finite or ~0. Callers
// still receive a zero-confidence "unknown" result alongside it.
var ErrInvalidEmbedding = errors.New("invalid probe embedding")

// Options tune the identification engine.
type Options struct {
	// Threshold is the cosine similarity in [-1,1] a candidate must reach to
	// be accepted.
	Threshold float64
	Strategy  entities.Strategy
	TopK      int
}

// DefaultOptions starts the threshold a bit low; calibrate per deployment.
func DefaultOptions() Options {
	return Options{Threshold: 0.35, Strategy: entities.StrategyMax, TopK: 3}
}

// Identify ranks every enrolled speaker against the probe and accepts the top
// candidate only when its score clears the threshold. Expected degenerate
// conditions (empty database, no candidate with a valid template) yield a
// zero-confidence "unknown" result, not an error. Templates with mismatched
// dimensionality or non-finite values are silently excluded from scoring.
func Identify(probe []float32, db Database, opts Options) (entities.IdentificationResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.Strategy == "" {
		opts.Strategy = entities.StrategyMax
	}

	unknown := entities.IdentificationResult{
		SpeakerID: entities.UnknownSpeaker,
		Strategy:  opts.Strategy,
		Threshold: opts.Threshold,
	}

	p, ok := toUnitVector(probe)
	if !ok {
		return unknown, ErrInvalidEmbedding
	}

	var candidates []entities.Match
	for speaker, templates := range db {
		valid := make([][]float64, 0, len(templates))
		for _, t := range templates {
			v, ok := toUnitVector(t)
			if !ok || len(v) != len(p) {
				continue
			}
			valid = append(valid, v)
		}
		if len(valid) == 0 {
			continue
		}

		score, ok := scoreSpeaker(p, valid, opts.Strategy)
		if !ok {
			continue
		}
		candidates = append(candidates, entities.Match{Speaker: speaker, Score: score})
	}

	if len(candidates) == 0 {
		return unknown, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := candidates[0]
	result := entities.IdentificationResult{
		SpeakerID:     entities.UnknownSpeaker,
		Confidence:    best.Score,
		MatchedPerson: best.Speaker,
		Strategy:      opts.Strategy,
		Threshold:     opts.Threshold,
	}
	if best.Score >= opts.Threshold {
		result.SpeakerID = best.Speaker
	}

	k := opts.TopK
	if k > len(candidates) {
		k = len(candidates)
	}
	result.TopMatches = candidates[:k]

	if len(candidates) > 1 {
		margin := best.Score - candidates[1].Score
		result.Margin = &margin
	}
	return result, nil
}

func scoreSpeaker(probe []float64, templates [][]float64, strategy entities.Strategy) (float64, bool) {
	if strategy == entities.StrategyAvgRef {
		ref, ok := unitNorm(averageVectors(templates))
		if !ok || len(ref) != len(probe) {
			return 0, false
		}
		return dot(probe, ref), true
	}

	var score float64
	for i, t := range templates {
		sim := dot(probe, t)
		switch {
		case strategy == entities.StrategyMean:
			score += sim
		case i == 0 || sim > score:
			score = sim
		}
	}
	if strategy == entities.StrategyMean {
		score /= float64(len(templates))
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}

func toUnitVector(v []float32) ([]float64, bool) {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return unitNorm(out)
}

func unitNorm(v []float64) ([]float64, bool) {
	var sum float64
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		sum += f * f
	}
	norm := math.Sqrt(sum)
	if norm < unitEps {
		return nil, false
	}

	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f / (norm + unitEps)
	}
	return out, true
}

func averageVectors(vs [][]float64) []float64 {
	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i, f := range v {
			out[i] += f
		}
	}
	for i := range out {
		out[i] /= float64(len(vs))
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
