package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
)

// RecognitionConfig carries the audio parameters for recognition.
type RecognitionConfig struct {
	SampleRate int
	Language   string
}

// GoogleSpeechToText implements repositories.SpeechToText with Google Cloud
// Speech-to-Text synchronous recognition over whole WAV payloads.
type GoogleSpeechToText struct {
	client *speech.Client
	config RecognitionConfig
	logger *zap.Logger
}

// NewGoogleSpeechToText creates a Google Cloud Speech client. Credentials
// come from the standard GOOGLE_APPLICATION_CREDENTIALS discovery.
func NewGoogleSpeechToText(ctx context.Context, config RecognitionConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	if config.Language == "" {
		config.Language = "en-US"
	}

	return &GoogleSpeechToText{client: client, config: config, logger: logger}, nil
}

// Transcribe runs synchronous recognition and joins the best alternative of
// every result. No speech detected yields an empty transcript, not an error.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, wav []byte) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(g.config.SampleRate),
			LanguageCode:    g.config.Language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var transcript string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript += result.Alternatives[0].Transcript
		}
	}

	g.logger.Info("Transcription completed",
		zap.Int("results", len(resp.Results)),
		zap.Int("chars", len(transcript)))
	return transcript, nil
}

// Close releases the underlying client.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}
