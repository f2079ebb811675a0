// Package config provides configuration for the go-showroom server.
// Everything is read from the environment exactly once at startup;
// stage adapters receive their settings through explicit structs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the server and pipeline.
const (
	DefaultPort          = 8000
	DefaultAudioDir      = "public/audio"
	DefaultUploadDir     = "temp_uploads"
	DefaultAudioPrefix   = "/audio"
	DefaultStageTimeout  = 30 * time.Second
	DefaultSTTBaseURL    = "https://api.groq.com/openai/v1"
	DefaultSTTModel      = "whisper-large-v3"
	DefaultLLMBaseURL    = "https://api.groq.com/openai/v1"
	DefaultLLMModel      = "openai/gpt-oss-120b"
	DefaultTTSModel      = "eleven_turbo_v2_5"
	DefaultTTSVoiceID    = "EXAVITQu4vr4xnSDxMaL"
	DefaultHistoryWindow = 0 // full history for the tool-calling agent
)

// Config holds the full server configuration.
type Config struct {
	Port     int
	LogLevel string
	Debug    bool

	// Directories and URL prefixes for audio assets.
	AudioDir    string
	UploadDir   string
	AudioPrefix string
	WebDir      string

	// Pipeline behavior.
	HistoryWindow int
	StageTimeout  time.Duration

	// Transcription (OpenAI-compatible Whisper endpoint).
	STTBaseURL string
	STTAPIKey  string
	STTModel   string

	// Decision agent (OpenAI-compatible chat completions).
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	GeminiAPIKey string // optional fallback provider

	// Synthesis (ElevenLabs).
	TTSAPIKey  string
	TTSVoiceID string
	TTSModel   string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:          EnvInt("PORT", DefaultPort),
		LogLevel:      Env("LOG_LEVEL", "info"),
		Debug:         EnvBool("DEBUG", false),
		AudioDir:      Env("AUDIO_DIR", DefaultAudioDir),
		UploadDir:     Env("UPLOAD_DIR", DefaultUploadDir),
		AudioPrefix:   Env("AUDIO_PREFIX", DefaultAudioPrefix),
		WebDir:        Env("WEB_DIR", ""),
		HistoryWindow: EnvInt("HISTORY_WINDOW", DefaultHistoryWindow),
		StageTimeout:  EnvDuration("STAGE_TIMEOUT", DefaultStageTimeout),
		STTBaseURL:    Env("STT_BASE_URL", DefaultSTTBaseURL),
		STTAPIKey:     Env("STT_API_KEY", os.Getenv("GROQ_API_KEY")),
		STTModel:      Env("STT_MODEL", DefaultSTTModel),
		LLMBaseURL:    Env("LLM_BASE_URL", DefaultLLMBaseURL),
		LLMAPIKey:     Env("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
		LLMModel:      Env("LLM_MODEL", DefaultLLMModel),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		TTSAPIKey:     Env("ELEVENLABS_API_KEY", ""),
		TTSVoiceID:    Env("ELEVENLABS_VOICE_ID", DefaultTTSVoiceID),
		TTSModel:      Env("ELEVENLABS_MODEL", DefaultTTSModel),
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.STTAPIKey == "" {
		return fmt.Errorf("config: STT_API_KEY (or GROQ_API_KEY) is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("config: LLM_API_KEY (or GROQ_API_KEY) is required")
	}
	if c.TTSAPIKey == "" {
		return fmt.Errorf("config: ELEVENLABS_API_KEY is required")
	}
	return nil
}

// Env returns the environment variable or a default.
func Env(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// EnvInt returns an integer environment variable or a default.
func EnvInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvBool returns a boolean environment variable or a default.
func EnvBool(name string, def bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// EnvDuration returns a duration environment variable or a default.
func EnvDuration(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
