// Package config provides configuration for the voice assistant session.
// Values are grouped by pipeline stage and can be loaded from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Defaults for the segmentation engine.
const (
	DefaultSampleRate      = 16000
	DefaultFrameSize       = 512
	DefaultPreRollSeconds  = 0.5
	DefaultGraceWindow     = 1500 * time.Millisecond
	DefaultMinUtterance    = 500 * time.Millisecond
	DefaultConnectTimeout  = 10 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultLLMMaxTokens    = 200
	DefaultASRModelSize    = "small"
	DefaultLanguage        = "auto"
)

// Config holds all tunable parameters for a session.
type Config struct {
	// Audio settings
	SampleRate int // capture sample rate in Hz
	FrameSize  int // samples per frame delivered by the source

	// Segmentation settings
	PreRollSeconds float64       // audio retained before speech is confirmed
	GraceWindow    time.Duration // post-roll debounce after end-of-speech
	MinUtterance   time.Duration // utterances shorter than this are discarded

	// Activity detector
	DetectorURL    string        // websocket endpoint, e.g. ws://127.0.0.1:8001/ws/vad
	ConnectTimeout time.Duration // handshake timeout for the detector connection

	// Transcription service
	ASRURL       string // e.g. http://127.0.0.1:8000/translate
	ASRModelSize string // size/quality hint (tiny..large-v3)
	Language     string // language hint, "auto" to let the service detect

	// Response generation
	LLMURL       string // chat-completions endpoint
	LLMModel     string
	LLMKey       string // bearer credential
	LLMMaxTokens int
	SystemPrompt string // optional leading system instruction

	// Speech synthesis
	TTSURL          string // synthesis endpoint; empty disables spoken replies
	TTSVoice        string
	PlaybackEnabled bool

	// Timeouts for downstream calls
	RequestTimeout time.Duration

	// Status server; empty disables it
	WebPort string

	LogLevel string
}

// Default returns a Config with sensible defaults. Endpoints and
// credentials must still be provided.
func Default() Config {
	return Config{
		SampleRate:     DefaultSampleRate,
		FrameSize:      DefaultFrameSize,
		PreRollSeconds: DefaultPreRollSeconds,
		GraceWindow:    DefaultGraceWindow,
		MinUtterance:   DefaultMinUtterance,
		ConnectTimeout: DefaultConnectTimeout,
		ASRModelSize:   DefaultASRModelSize,
		Language:       DefaultLanguage,
		LLMMaxTokens:   DefaultLLMMaxTokens,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
	}
}

// FromEnv loads a Config from environment variables on top of defaults.
func FromEnv() Config {
	cfg := Default()
	cfg.DetectorURL = envOr("VAD_URL", "ws://127.0.0.1:8001/ws/vad")
	cfg.ASRURL = envOr("ASR_URL", "http://127.0.0.1:8000/translate")
	cfg.ASRModelSize = envOr("ASR_MODEL_SIZE", cfg.ASRModelSize)
	cfg.Language = envOr("ASR_LANGUAGE", cfg.Language)
	cfg.LLMURL = envOr("LLM_URL", "http://127.0.0.1:3001/v1/chat/completions")
	cfg.LLMModel = envOr("LLM_MODEL", "openai/gpt-4.1")
	cfg.LLMKey = os.Getenv("LLM_API_KEY")
	cfg.SystemPrompt = os.Getenv("SYSTEM_PROMPT")
	cfg.TTSURL = os.Getenv("TTS_URL")
	cfg.TTSVoice = os.Getenv("TTS_VOICE")
	cfg.PlaybackEnabled = cfg.TTSURL != ""
	cfg.WebPort = os.Getenv("WEB_PORT")
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("GRACE_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.GraceWindow = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PREROLL_SECONDS"); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil && s >= 0 {
			cfg.PreRollSeconds = s
		}
	}
	if v := os.Getenv("MIN_UTTERANCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.MinUtterance = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("config: SampleRate must be > 0")
	}
	if c.FrameSize <= 0 {
		return errors.New("config: FrameSize must be > 0")
	}
	if c.PreRollSeconds < 0 {
		return errors.New("config: PreRollSeconds must be >= 0")
	}
	if c.GraceWindow <= 0 {
		return errors.New("config: GraceWindow must be > 0")
	}
	if c.MinUtterance < 0 {
		return errors.New("config: MinUtterance must be >= 0")
	}
	if c.DetectorURL == "" {
		return errors.New("config: DetectorURL is required")
	}
	if c.ASRURL == "" {
		return errors.New("config: ASRURL is required")
	}
	if c.LLMURL == "" {
		return errors.New("config: LLMURL is required")
	}
	if c.LLMModel == "" {
		return errors.New("config: LLMModel is required")
	}
	if c.PlaybackEnabled && c.TTSURL == "" {
		return errors.New("config: TTSURL is required when playback is enabled")
	}
	return nil
}

// PreRollSamples returns the pre-roll capacity in samples.
func (c *Config) PreRollSamples() int {
	return int(float64(c.SampleRate) * c.PreRollSeconds)
}

// MinUtteranceSamples returns the minimum utterance length in samples.
func (c *Config) MinUtteranceSamples() int {
	return int(c.MinUtterance.Seconds() * float64(c.SampleRate))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
