package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// MockVoiceEmbedder derives a deterministic pseudo-embedding from the payload
// bytes, for tests and local runs without the embedding service. Identical
// audio always maps to the identical vector.
type MockVoiceEmbedder struct {
	Dim    int
	Vector []float32
	Err    error
}

// NewMockVoiceEmbedder returns a hash-based mock of the given dimension.
func NewMockVoiceEmbedder(dim int) *MockVoiceEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &MockVoiceEmbedder{Dim: dim}
}

// Embed implements repositories.VoiceEmbedder.
func (m *MockVoiceEmbedder) Embed(ctx context.Context, wav []byte) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Vector != nil {
		return m.Vector, nil
	}

	out := make([]float32, m.Dim)
	sum := sha256.Sum256(wav)
	seed := sum[:]
	for i := range out {
		if len(seed) < 4 {
			next := sha256.Sum256(seed)
			seed = next[:]
		}
		out[i] = float32(binary.LittleEndian.Uint32(seed[:4])%2000)/1000 - 1
		seed = seed[4:]
	}
	return out, nil
}

// Dimension returns the mock's vector length.
func (m *MockVoiceEmbedder) Dimension() int {
	return m.Dim
}
