package stt

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MockSpeechToText returns a scripted transcript, for tests and local runs
// without Google credentials.
type MockSpeechToText struct {
	Transcript string
	Err        error
	Delay      time.Duration

	logger *zap.Logger
}

// NewMockSpeechToText returns a mock with a fixed transcript.
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		Transcript: "Hello PeepaPoop, can you tell me a joke?",
		logger:     logger,
	}
}

// Transcribe implements repositories.SpeechToText.
func (m *MockSpeechToText) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.logger != nil {
		m.logger.Info("Mock transcription", zap.Int("audioBytes", len(wav)))
	}
	return m.Transcript, nil
}
