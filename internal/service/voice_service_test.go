package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func TestTranscribeChargesFractionalMinutes(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 10, Limit: 10}}
	assistant := &fakeAssistant{reply: "is it normal for a newborn to hiccup a lot"}
	svc := NewVoiceService(usage, assistant, zerolog.Nop())

	turn, err := svc.Transcribe(context.Background(), "u1", strings.NewReader("audio-bytes"), "note.m4a")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if turn.Transcript == "" {
		t.Fatal("expected a transcript")
	}
	// fakeAssistant reports 90 seconds of audio.
	if turn.DurationMin != 1.5 {
		t.Fatalf("expected 1.5 minutes, got %v", turn.DurationMin)
	}
	if turn.AssistantReply != "" {
		t.Fatal("plain transcription must not include an assistant reply")
	}
	if len(usage.increments) != 1 || usage.increments[0] != 1.5 {
		t.Fatalf("expected one voice increment of 1.5 minutes, got %v", usage.increments)
	}
}

func TestTranscribeDenied(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: false, Remaining: 0, Limit: 10}}
	assistant := &fakeAssistant{reply: "never"}
	svc := NewVoiceService(usage, assistant, zerolog.Nop())

	_, err := svc.Transcribe(context.Background(), "u1", strings.NewReader("audio"), "note.m4a")
	var limitErr *LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitExceededError, got %v", err)
	}
	if limitErr.Type != model.LimitVoice {
		t.Fatalf("expected voice limit type, got %s", limitErr.Type)
	}
	if assistant.calls != 0 {
		t.Fatal("no audio may be processed on a denied turn")
	}
	if len(usage.increments) != 0 {
		t.Fatal("usage must not be incremented on a denied turn")
	}
}

func TestTranscribeAndRespond(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 10, Limit: 10}}
	assistant := &fakeAssistant{reply: "Hiccups are completely normal at this age."}
	svc := NewVoiceService(usage, assistant, zerolog.Nop())

	turn, err := svc.TranscribeAndRespond(context.Background(), "u1", strings.NewReader("audio"), "note.m4a")
	if err != nil {
		t.Fatalf("TranscribeAndRespond returned error: %v", err)
	}
	if turn.AssistantReply == "" {
		t.Fatal("expected an assistant reply")
	}
	if len(usage.increments) != 1 {
		t.Fatalf("expected exactly one increment, got %v", usage.increments)
	}
}

func TestTranscribeFailureDoesNotCharge(t *testing.T) {
	usage := &fakeUsageService{decision: model.LimitDecision{Allowed: true, Remaining: 10, Limit: 10}}
	assistant := &fakeAssistant{err: errors.New("upstream error")}
	svc := NewVoiceService(usage, assistant, zerolog.Nop())

	if _, err := svc.Transcribe(context.Background(), "u1", strings.NewReader("audio"), "note.m4a"); err == nil {
		t.Fatal("expected error when transcription fails")
	}
	if len(usage.increments) != 0 {
		t.Fatal("a failed transcription must not be charged")
	}
}
