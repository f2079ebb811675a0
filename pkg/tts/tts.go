// Package tts provides a unified interface for text-to-speech providers.
//
// The bundled ElevenLabs provider renders speech over HTTP for complete
// audio files, with a WebSocket variant for chunked low-latency streaming.
// All providers implement the Provider interface, enabling switching
// without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice("your-voice-id"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains MP3 audio bytes ready to serve
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to the complete response in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the codec and rate (e.g. mp3_44100_128, pcm_24000).
	Encoding Encoding

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// Encoding represents audio encoding types.
// These match ElevenLabs output format options.
type Encoding string

const (
	// EncodingMP3 is MP3 at 44.1kHz/128kbps, the format served to browsers.
	EncodingMP3 Encoding = "mp3_44100_128"

	// EncodingPCM16 is 16kHz mono PCM16.
	EncodingPCM16 Encoding = "pcm_16000"

	// EncodingPCM24 is 24kHz mono PCM16.
	EncodingPCM24 Encoding = "pcm_24000"

	// EncodingULaw is μ-law 8kHz for telephony.
	EncodingULaw Encoding = "ulaw_8000"
)

// MIME returns the MIME type for the encoding.
func (e Encoding) MIME() string {
	switch e {
	case EncodingMP3:
		return "audio/mpeg"
	case EncodingULaw:
		return "audio/basic"
	default:
		return "audio/pcm"
	}
}

// Ext returns the file extension (without dot) for the encoding.
func (e Encoding) Ext() string {
	switch e {
	case EncodingMP3:
		return "mp3"
	case EncodingULaw:
		return "ulaw"
	default:
		return "pcm"
	}
}

// SampleRate returns the sample rate in Hz for the encoding.
func (e Encoding) SampleRate() int {
	switch e {
	case EncodingPCM16:
		return 16000
	case EncodingPCM24:
		return 24000
	case EncodingULaw:
		return 8000
	default:
		return 44100
	}
}

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	// SpeakerBoost enhances speaker clarity.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
	}
}
