package repositories

import "context"

// VoiceEmbedder maps a waveform to a fixed-length voice embedding. The
// returned vector may carry non-finite components that callers must sanitize.
type VoiceEmbedder interface {
	Embed(ctx context.Context, wav []byte) ([]float32, error)
	Dimension() int
}

// TextEmbedder maps text to a vector for similarity search.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
