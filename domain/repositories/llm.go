package repositories

import "context"

// LanguageModel abstracts the reply-generation collaborator.
type LanguageModel interface {
	// GenerateStream starts a streamed completion for the given system prompt
	// and user input.
	GenerateStream(ctx context.Context, systemPrompt, userInput string) (ReplyStream, error)
}

// ReplyStream yields incremental text deltas in order. Recv returns io.EOF
// once the collaborator signals completion.
type ReplyStream interface {
	Recv() (string, error)
	Close()
}
