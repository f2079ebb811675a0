package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/showroomlabs/go-showroom/internal/httpc"
)

const (
	defaultWhisperBaseURL = "https://api.groq.com/openai/v1"
	providerWhisper       = "whisper"
)

// Whisper implements Provider against an OpenAI-compatible
// /audio/transcriptions endpoint. Works with OpenAI, Groq and
// self-hosted whisper servers that speak the same API.
type Whisper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewWhisper creates a new Whisper transcription provider.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultWhisperBaseURL
	}

	return &Whisper{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "stt.whisper"),
		baseURL: baseURL,
	}, nil
}

// Transcribe uploads the audio and returns the transcript.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	if len(audio) == 0 {
		return nil, WrapError(providerWhisper, ErrNoAudio)
	}

	start := time.Now()

	body, contentType, err := w.buildForm(audio)
	if err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("build form: %w", err))
	}

	resp, err := w.doWithRetry(ctx, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, w.parseError(resp)
	}

	var payload struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(payload.Text),
		"latency_ms", latency,
		"model", w.config.Model,
	)

	return &Result{
		Text:        payload.Text,
		Language:    payload.Language,
		DurationSec: payload.Duration,
		LatencyMs:   latency,
	}, nil
}

// Health checks API connectivity and API key validity.
func (w *Whisper) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", w.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}
	req.Header.Set("Authorization", "Bearer "+w.config.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return WrapError(providerWhisper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return w.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// buildForm assembles the multipart upload body.
func (w *Whisper) buildForm(audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", w.config.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("model", w.config.Model); err != nil {
		return nil, "", err
	}
	if w.config.Language != "" {
		if err := mw.WriteField("language", w.config.Language); err != nil {
			return nil, "", err
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

// doWithRetry performs the upload with retry on retryable status codes.
// The body is rebuilt from the buffered bytes on each attempt.
func (w *Whisper) doWithRetry(ctx context.Context, body []byte, contentType string) (*http.Response, error) {
	url := fmt.Sprintf("%s/audio/transcriptions", w.baseURL)

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerWhisper, ctx.Err())
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerWhisper, err)
		}
		req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerWhisper, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = w.parseError(resp)
			w.logger.Warn("retrying transcription",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (w *Whisper) parseError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerWhisper,
	}
}
