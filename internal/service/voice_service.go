package service

import (
	"context"
	"fmt"
	"io"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// VoiceTurn is the result of one transcription: the transcript plus the
// minutes charged against the daily voice quota.
type VoiceTurn struct {
	Transcript     string  `json:"transcript"`
	DurationMin    float64 `json:"duration_minutes"`
	AssistantReply string  `json:"assistant_reply,omitempty"`
}

type VoiceService interface {
	// Transcribe runs one gated voice turn: check the voice-minute limit,
	// transcribe the audio, then charge the audio duration in minutes.
	// A denied check returns *LimitExceededError.
	Transcribe(ctx context.Context, userID string, audio io.Reader, filename string) (*VoiceTurn, error)
	// TranscribeAndRespond additionally answers the transcript with the
	// assistant, so a voice turn behaves like a spoken chat message.
	TranscribeAndRespond(ctx context.Context, userID string, audio io.Reader, filename string) (*VoiceTurn, error)
}

type voiceService struct {
	usageSvc  UsageService
	assistant AssistantClient
	logger    zerolog.Logger
}

func NewVoiceService(usageSvc UsageService, assistant AssistantClient, logger zerolog.Logger) VoiceService {
	return &voiceService{
		usageSvc:  usageSvc,
		assistant: assistant,
		logger:    logger.With().Str("service", "VoiceService").Logger(),
	}
}

func (s *voiceService) Transcribe(ctx context.Context, userID string, audio io.Reader, filename string) (*VoiceTurn, error) {
	return s.transcribe(ctx, userID, audio, filename, false)
}

func (s *voiceService) TranscribeAndRespond(ctx context.Context, userID string, audio io.Reader, filename string) (*VoiceTurn, error) {
	return s.transcribe(ctx, userID, audio, filename, true)
}

func (s *voiceService) transcribe(ctx context.Context, userID string, audio io.Reader, filename string, respond bool) (*VoiceTurn, error) {
	decision, err := s.usageSvc.CheckLimit(ctx, userID, model.LimitVoice)
	if err != nil {
		return nil, fmt.Errorf("checking voice limit: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitExceededError{Type: model.LimitVoice, Decision: decision}
	}

	transcript, durationSec, err := s.assistant.Transcribe(ctx, audio, filename)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Transcription failed")
		return nil, fmt.Errorf("transcribing audio: %w", err)
	}

	turn := &VoiceTurn{
		Transcript:  transcript,
		DurationMin: durationSec / 60,
	}

	if respond {
		reply, err := s.assistant.Complete(ctx, []ChatMessage{
			{Role: "system", Content: parentingSystemPrompt},
			{Role: "user", Content: transcript},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Assistant reply to voice turn failed")
			return nil, fmt.Errorf("answering voice turn: %w", err)
		}
		turn.AssistantReply = reply
	}

	// Voice usage is charged in minutes, fractional. Charged only after the
	// transcription (and reply, if requested) succeeded.
	if turn.DurationMin > 0 {
		if err := s.usageSvc.IncrementUsage(ctx, userID, model.LimitVoice, turn.DurationMin); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record voice usage")
		}
	}

	return turn, nil
}
