package llm

import (
	"context"
	"fmt"
	"io"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/peepalabs/peepa-server/domain/repositories"
)

const defaultModel = "gemini-2.0-flash"

// GeminiLLM implements repositories.LanguageModel using Google's Gemini API.
type GeminiLLM struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiLLM creates a new Gemini LLM instance.
func NewGeminiLLM(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	return &GeminiLLM{client: client, logger: logger, model: model}, nil
}

// GenerateStream starts a streamed completion and adapts the response
// iterator to a pull-style ReplyStream.
func (g *GeminiLLM) GenerateStream(ctx context.Context, systemPrompt, userInput string) (repositories.ReplyStream, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userInput, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	seq := g.client.Models.GenerateContentStream(ctx, g.model, contents, config)
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}, nil
}

type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

// Recv returns the next text delta, or io.EOF once the stream is exhausted.
// Responses without text (housekeeping, safety metadata) are skipped.
func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}

		var delta string
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				delta += part.Text
			}
		}
		if delta != "" {
			return delta, nil
		}
	}
}

func (s *geminiStream) Close() {
	s.stop()
}
