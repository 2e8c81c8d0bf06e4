package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
	"github.com/peepalabs/peepa-server/voiceprint"
)

// ErrMalformedAudio reports a payload without a RIFF/WAVE header.
var ErrMalformedAudio = errors.New("payload is not a valid WAV container")

const minWAVHeader = 12

// LooksLikeWAV reports whether buf begins with a RIFF/WAVE header.
func LooksLikeWAV(buf []byte) bool {
	return len(buf) >= minWAVHeader &&
		bytes.Equal(buf[0:4], []byte("RIFF")) &&
		bytes.Equal(buf[8:12], []byte("WAVE"))
}

// Outcome is the joined perception result for one audio payload.
type Outcome struct {
	// SpeakerPrefix is a display string such as "Hilla said: ", independent
	// of the transcript content.
	SpeakerPrefix  string
	Text           string
	Identification entities.IdentificationResult
}

// PerceptionService runs speaker identification and transcription
// concurrently over one audio payload and joins their results.
type PerceptionService struct {
	embedder repositories.VoiceEmbedder
	stt      repositories.SpeechToText
	store    *voiceprint.Store
	opts     voiceprint.Options
	logger   *zap.Logger
}

// NewPerceptionService creates a perception service.
func NewPerceptionService(
	embedder repositories.VoiceEmbedder,
	stt repositories.SpeechToText,
	store *voiceprint.Store,
	opts voiceprint.Options,
	logger *zap.Logger,
) *PerceptionService {
	return &PerceptionService{
		embedder: embedder,
		stt:      stt,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Perceive validates the payload, then dispatches both collaborators over
// independent copies of the buffer. This is a join, not a race: both
// sub-tasks always run to completion, and a speaker-identification failure
// takes precedence over a transcription failure when both fail. An empty
// transcript is a valid outcome signaling nothing meaningfully spoken.
func (s *PerceptionService) Perceive(ctx context.Context, wav []byte) (Outcome, error) {
	if !LooksLikeWAV(wav) {
		return Outcome{}, ErrMalformedAudio
	}

	spkBuf := bytes.Clone(wav)
	sttBuf := bytes.Clone(wav)

	var (
		wg         sync.WaitGroup
		ident      entities.IdentificationResult
		transcript string
		spkErr     error
		sttErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ident, spkErr = s.identifySpeaker(ctx, spkBuf)
	}()
	go func() {
		defer wg.Done()
		transcript, sttErr = s.stt.Transcribe(ctx, sttBuf)
	}()
	wg.Wait()

	if spkErr != nil {
		return Outcome{}, fmt.Errorf("speaker identification: %w", spkErr)
	}
	if sttErr != nil {
		return Outcome{}, fmt.Errorf("transcription: %w", sttErr)
	}

	speakerID := ident.SpeakerID
	if speakerID == "" {
		speakerID = "Someone"
	}
	return Outcome{
		SpeakerPrefix:  speakerID + " said: ",
		Text:           transcript,
		Identification: ident,
	}, nil
}

func (s *PerceptionService) identifySpeaker(ctx context.Context, wav []byte) (entities.IdentificationResult, error) {
	probe, err := s.embedder.Embed(ctx, wav)
	if err != nil {
		return entities.IdentificationResult{}, err
	}

	db, err := s.store.Load()
	if err != nil {
		// An unreadable database degrades to an unknown speaker; the turn
		// still proceeds.
		s.logger.Warn("Voiceprint database unavailable", zap.Error(err))
		db = voiceprint.Database{}
	}

	result, err := voiceprint.Identify(probe, db, s.opts)
	if err != nil {
		// Degenerate probes are expected, not exceptional.
		s.logger.Warn("Probe embedding rejected", zap.Error(err))
	}

	s.logger.Info("Speaker identification result",
		zap.String("speakerID", result.SpeakerID),
		zap.String("matchedPerson", result.MatchedPerson),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}
