package llm

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/domain/repositories"
)

// MockLLM replays scripted deltas, for tests and local runs without a Gemini
// API key.
type MockLLM struct {
	Deltas   []string
	StartErr error
	RecvErr  error

	// RecvDelay pauses before every delta, simulating a slow collaborator.
	RecvDelay time.Duration

	logger *zap.Logger
}

// NewMockLLM returns a mock that answers every input with a short greeting.
func NewMockLLM(logger *zap.Logger) *MockLLM {
	return &MockLLM{
		Deltas: []string{"Boop! ", "Hello my friend. ", "What shall we play today?"},
		logger: logger,
	}
}

// GenerateStream implements repositories.LanguageModel.
func (m *MockLLM) GenerateStream(ctx context.Context, systemPrompt, userInput string) (repositories.ReplyStream, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	if m.logger != nil {
		m.logger.Info("Mock generation started", zap.String("input", userInput))
	}
	return &mockStream{deltas: m.Deltas, recvErr: m.RecvErr, recvDelay: m.RecvDelay}, nil
}

type mockStream struct {
	deltas    []string
	idx       int
	recvErr   error
	recvDelay time.Duration
}

func (s *mockStream) Recv() (string, error) {
	if s.recvDelay > 0 {
		time.Sleep(s.recvDelay)
	}
	if s.idx < len(s.deltas) {
		delta := s.deltas[s.idx]
		s.idx++
		return delta, nil
	}
	if s.recvErr != nil {
		return "", s.recvErr
	}
	return "", io.EOF
}

func (s *mockStream) Close() {}
