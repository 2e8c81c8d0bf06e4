package voiceprint

import (
	"errors"
	"math"
	"testing"

	"github.com/peepalabs/peepa-server/domain/entities"
)

func TestIdentifyEnrolledSpeaker(t *testing.T) {
	db := Database{
		"Hilla": TemplateSet{{1, 0, 0}, {0.9, 0.1, 0}},
		"Ukko":  TemplateSet{{0, 1, 0}},
	}

	result, err := Identify([]float32{1, 0, 0}, db, Options{
		Threshold: 0.35,
		Strategy:  entities.StrategyMax,
		TopK:      3,
	})
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}

	if result.SpeakerID != "Hilla" {
		t.Errorf("expected speaker Hilla, got %q", result.SpeakerID)
	}
	if result.MatchedPerson != "Hilla" {
		t.Errorf("expected matched person Hilla, got %q", result.MatchedPerson)
	}
	if math.Abs(result.Confidence-1.0) > 1e-6 {
		t.Errorf("expected confidence ~1.0, got %f", result.Confidence)
	}
	if result.Margin == nil {
		t.Fatal("expected margin with two candidates")
	}
	if *result.Margin <= 0 {
		t.Errorf("expected positive margin, got %f", *result.Margin)
	}
}

func TestIdentifyEmptyDatabase(t *testing.T) {
	result, err := Identify([]float32{1, 0, 0}, Database{}, DefaultOptions())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}

	if result.SpeakerID != entities.UnknownSpeaker {
		t.Errorf("expected unknown speaker, got %q", result.SpeakerID)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", result.Confidence)
	}
	if len(result.TopMatches) != 0 {
		t.Errorf("expected no matches, got %d", len(result.TopMatches))
	}
	if result.Margin != nil {
		t.Error("expected nil margin with no candidates")
	}
}

func TestIdentifyBelowThreshold(t *testing.T) {
	db := Database{
		"Hilla": TemplateSet{{0, 1, 0}},
	}

	result, err := Identify([]float32{1, 0, 0}, db, Options{
		Threshold: 0.35,
		Strategy:  entities.StrategyMax,
		TopK:      3,
	})
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}

	if result.SpeakerID != entities.UnknownSpeaker {
		t.Errorf("expected unknown speaker below threshold, got %q", result.SpeakerID)
	}
	// Diagnostics still name the best candidate even when rejected.
	if result.MatchedPerson != "Hilla" {
		t.Errorf("expected matched person Hilla, got %q", result.MatchedPerson)
	}
	if math.Abs(result.Confidence) > 1e-6 {
		t.Errorf("expected confidence ~0 for orthogonal vectors, got %f", result.Confidence)
	}
}

func TestIdentifyRanksCandidates(t *testing.T) {
	db := Database{
		"far":     TemplateSet{{0, 1, 0}},
		"close":   TemplateSet{{1, 0, 0}},
		"between": TemplateSet{{1, 1, 0}},
		"extra":   TemplateSet{{0, 0, 1}},
	}

	result, err := Identify([]float32{1, 0, 0}, db, Options{
		Threshold: 0.35,
		Strategy:  entities.StrategyMax,
		TopK:      3,
	})
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}

	if len(result.TopMatches) != 3 {
		t.Fatalf("expected top 3 matches of 4 candidates, got %d", len(result.TopMatches))
	}
	if result.TopMatches[0].Speaker != "close" {
		t.Errorf("expected best match close, got %q", result.TopMatches[0].Speaker)
	}
	if result.TopMatches[1].Speaker != "between" {
		t.Errorf("expected second match between, got %q", result.TopMatches[1].Speaker)
	}
	for i := 1; i < len(result.TopMatches); i++ {
		if result.TopMatches[i].Score > result.TopMatches[i-1].Score {
			t.Errorf("matches not sorted descending at index %d", i)
		}
	}

	wantMargin := result.TopMatches[0].Score - result.TopMatches[1].Score
	if result.Margin == nil || math.Abs(*result.Margin-wantMargin) > 1e-9 {
		t.Errorf("expected margin %f, got %v", wantMargin, result.Margin)
	}
}

func TestIdentifyStrategies(t *testing.T) {
	// One perfect template and one orthogonal template for the same speaker.
	db := Database{
		"Hilla": TemplateSet{{1, 0, 0}, {0, 1, 0}},
	}
	probe := []float32{1, 0, 0}

	tests := []struct {
		strategy entities.Strategy
		want     float64
	}{
		{entities.StrategyMax, 1.0},
		{entities.StrategyMean, 0.5},
		{entities.StrategyAvgRef, math.Sqrt2 / 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			result, err := Identify(probe, db, Options{
				Threshold: 0.35,
				Strategy:  tt.strategy,
				TopK:      3,
			})
			if err != nil {
				t.Fatalf("Identify returned error: %v", err)
			}
			if math.Abs(result.Confidence-tt.want) > 1e-6 {
				t.Errorf("strategy %s: expected confidence %f, got %f", tt.strategy, tt.want, result.Confidence)
			}
		})
	}
}

func TestIdentifySkipsMismatchedTemplates(t *testing.T) {
	db := Database{
		// Wrong dimensionality and a zero vector must not score.
		"broken": TemplateSet{{1, 0}, {0, 0, 0}},
		"Hilla":  TemplateSet{{1, 0, 0}},
	}

	result, err := Identify([]float32{1, 0, 0}, db, DefaultOptions())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}

	if result.SpeakerID != "Hilla" {
		t.Errorf("expected Hilla, got %q", result.SpeakerID)
	}
	if len(result.TopMatches) != 1 {
		t.Errorf("expected broken speaker excluded, got %d candidates", len(result.TopMatches))
	}
}

func TestIdentifyOnlyInvalidTemplates(t *testing.T) {
	db := Database{
		"broken": TemplateSet{{0, 0, 0}},
	}

	result, err := Identify([]float32{1, 0, 0}, db, DefaultOptions())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if result.SpeakerID != entities.UnknownSpeaker {
		t.Errorf("expected unknown speaker, got %q", result.SpeakerID)
	}
}

func TestIdentifyInvalidProbe(t *testing.T) {
	db := Database{
		"Hilla": TemplateSet{{1, 0, 0}},
	}

	probes := map[string][]float32{
		"zero":      {0, 0, 0},
		"nonFinite": {float32(math.NaN()), 1, 0},
	}
	for name, probe := range probes {
		t.Run(name, func(t *testing.T) {
			result, err := Identify(probe, db, DefaultOptions())
			if !errors.Is(err, ErrInvalidEmbedding) {
				t.Fatalf("expected ErrInvalidEmbedding, got %v", err)
			}
			if result.SpeakerID != entities.UnknownSpeaker {
				t.Errorf("expected unknown speaker, got %q", result.SpeakerID)
			}
			if result.Confidence != 0 {
				t.Errorf("expected zero confidence, got %f", result.Confidence)
			}
		})
	}
}

func TestIdentifyUnnormalizedInputs(t *testing.T) {
	// Scaling either side must not change cosine similarity.
	db := Database{
		"Hilla": TemplateSet{{10, 0, 0}},
	}

	result, err := Identify([]float32{0.001, 0, 0}, db, DefaultOptions())
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if result.SpeakerID != "Hilla" {
		t.Errorf("expected Hilla, got %q", result.SpeakerID)
	}
	if math.Abs(result.Confidence-1.0) > 1e-4 {
		t.Errorf("expected confidence ~1.0, got %f", result.Confidence)
	}
}
