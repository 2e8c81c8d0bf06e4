package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultDimension matches the ECAPA voxceleb speaker model dimension.
const DefaultDimension = 192

// HTTPVoiceEmbedder calls the external speaker-embedding service, which maps
// a WAV payload to a fixed-length voice embedding.
type HTTPVoiceEmbedder struct {
	client    *resty.Client
	dimension int
	logger    *zap.Logger
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewHTTPVoiceEmbedder creates a client for the embedding service at baseURL.
func NewHTTPVoiceEmbedder(baseURL string, dimension int, logger *zap.Logger) *HTTPVoiceEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2)

	return &HTTPVoiceEmbedder{client: client, dimension: dimension, logger: logger}
}

// Embed posts the waveform and returns the service's embedding.
func (e *HTTPVoiceEmbedder) Embed(ctx context.Context, wav []byte) ([]float32, error) {
	var out embedResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "audio/wav").
		SetBody(wav).
		SetResult(&out).
		Post("/embed")
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding service returned %s", resp.Status())
	}
	if len(out.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(out.Embedding), e.dimension)
	}

	e.logger.Debug("Voice embedding computed",
		zap.Int("audioBytes", len(wav)),
		zap.Int("dimension", len(out.Embedding)))
	return out.Embedding, nil
}

// Dimension returns the expected embedding length.
func (e *HTTPVoiceEmbedder) Dimension() int {
	return e.dimension
}
