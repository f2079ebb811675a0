package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsStream streams synthesis over the ElevenLabs WebSocket API.
// Each call dials a fresh stream-input socket, so callers get first audio
// bytes before the full utterance is rendered. Use this for clients that
// play audio as it arrives; the pipeline uses the HTTP provider for
// complete files.
type ElevenLabsStream struct {
	config *Config
	logger *slog.Logger
}

// NewElevenLabsStream creates a streaming ElevenLabs TTS adapter.
func NewElevenLabsStream(opts ...Option) (*ElevenLabsStream, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &ElevenLabsStream{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.elevenlabs_ws"),
	}, nil
}

// SynthesizeStream renders text and delivers audio chunks to fn as they
// arrive. It returns after the provider signals the final chunk.
func (e *ElevenLabsStream) SynthesizeStream(ctx context.Context, text string, fn func(chunk []byte)) error {
	if text == "" {
		return WrapError(providerElevenLabs, ErrNoText)
	}

	conn, err := e.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// BOS with voice settings, then the text, then EOS.
	bos := map[string]interface{}{
		"text": " ",
		"voice_settings": map[string]interface{}{
			"stability":        e.config.VoiceSettings.Stability,
			"similarity_boost": e.config.VoiceSettings.SimilarityBoost,
		},
		"generation_config": map[string]interface{}{
			"chunk_length_schedule": []int{120, 160, 250, 290},
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send BOS: %w", err))
	}
	if err := conn.WriteJSON(map[string]string{"text": text + " "}); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send text: %w", err))
	}
	if err := conn.WriteJSON(map[string]string{"text": ""}); err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("send EOS: %w", err))
	}

	start := time.Now()
	firstChunk := true

	for {
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetReadDeadline(deadline)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return WrapError(providerElevenLabs, fmt.Errorf("read: %w", err))
		}

		var resp struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(message, &resp); err != nil {
			e.logger.Warn("unparseable stream message", "error", err)
			continue
		}
		if resp.Error != "" {
			return WrapError(providerElevenLabs, fmt.Errorf("stream error: %s", resp.Error))
		}

		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				e.logger.Warn("undecodable audio chunk", "error", err)
				continue
			}
			if firstChunk {
				e.logger.Debug("first audio chunk",
					"latency_ms", time.Since(start).Milliseconds(),
				)
				firstChunk = false
			}
			fn(chunk)
		}

		if resp.IsFinal {
			return nil
		}
	}
}

// dial opens the stream-input socket for the configured voice.
func (e *ElevenLabsStream) dial(ctx context.Context) (*websocket.Conn, error) {
	base := elevenLabsWSBaseURL
	if e.config.BaseURL != "" {
		base = e.config.BaseURL
	}
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		base, e.config.VoiceID, e.config.ModelID, e.config.OutputFormat)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, WrapError(providerElevenLabs,
				fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err))
		}
		return nil, WrapError(providerElevenLabs, fmt.Errorf("websocket dial failed: %w", err))
	}
	return conn, nil
}
