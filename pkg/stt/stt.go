// Package stt provides a unified interface for speech-to-text providers.
//
// The package wraps batch transcription behind a Provider interface so the
// pipeline can switch backends without changing caller code. The bundled
// Whisper provider talks to any OpenAI-compatible /audio/transcriptions
// endpoint (OpenAI, Groq, local whisper servers).
//
// Example usage:
//
//	provider, _ := stt.NewWhisper(
//	    stt.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    stt.WithModel("whisper-large-v3"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Transcribe(ctx, audioBytes)
//	// result.Text is the transcript; empty means no speech was detected.
package stt

import (
	"context"
	"strings"
)

// Provider defines the speech-to-text provider interface.
type Provider interface {
	// Transcribe converts an audio recording to text.
	// An empty Text is a valid outcome meaning no speech was detected;
	// provider faults are returned as errors, never as empty transcripts.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcript. May be empty when no speech was detected.
	Text string

	// Language is the detected language code, when the provider reports one.
	Language string

	// DurationSec is the audio duration reported by the provider.
	DurationSec float64

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64
}

// Empty reports whether the transcript contains no speech.
func (r *Result) Empty() bool {
	return r == nil || strings.TrimSpace(r.Text) == ""
}
