package repositories

import "context"

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Transcribe converts one WAV payload to text. An empty transcript is a
	// valid result, not an error.
	Transcribe(ctx context.Context, wav []byte) (string, error)
}
