// Package asr provides the client for the external transcription service.
// Utterance audio is uploaded as a 16-bit PCM mono WAV file together with a
// model-size hint and an optional language hint.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Nacho7823/voiceAsisstant/internal/httpc"
	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
)

// ErrNoTranscript is returned when the service response lacks the expected
// text field.
var ErrNoTranscript = errors.New("asr: response missing transcript text")

// APIError represents a non-success response from the transcription service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("asr: API error %d: %s", e.StatusCode, e.Message)
}

// Result is a completed transcription.
type Result struct {
	Text     string // transcribed text, whitespace-trimmed
	Language string // detected language, if reported
}

// Client calls the transcription endpoint.
type Client struct {
	url       string
	modelSize string // size/quality hint, e.g. "small"
	language  string // language hint; "auto" lets the service detect
	client    *http.Client
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModelSize sets the model size hint.
func WithModelSize(size string) ClientOption {
	return func(c *Client) {
		if size != "" {
			c.modelSize = size
		}
	}
}

// WithLanguage sets the language hint.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client = httpc.NewClient(d)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a transcription client for the given endpoint URL.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:       url,
		modelSize: "small",
		language:  "auto",
		client:    httpc.Client,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "asr.client")
	return c
}

// Transcribe encodes the samples as WAV and posts them for transcription.
func (c *Client) Transcribe(ctx context.Context, samples []float32, sampleRate int) (*Result, error) {
	wavData, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio_file", "utterance.wav")
	if err != nil {
		return nil, fmt.Errorf("asr: build form: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("asr: write audio part: %w", err)
	}
	if err := mw.WriteField("model_size", c.modelSize); err != nil {
		return nil, fmt.Errorf("asr: write model_size: %w", err)
	}
	if err := mw.WriteField("language", c.language); err != nil {
		return nil, fmt.Errorf("asr: write language: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("asr: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("asr: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var payload struct {
		ResultText       *string `json:"result_text"`
		DetectedLanguage string  `json:"detected_language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("asr: decode response: %w", err)
	}
	if payload.ResultText == nil {
		return nil, ErrNoTranscript
	}

	c.logger.Debug("transcribed utterance",
		"samples", len(samples),
		"latency_ms", time.Since(start).Milliseconds(),
		"language", payload.DetectedLanguage,
	)

	return &Result{
		Text:     strings.TrimSpace(*payload.ResultText),
		Language: payload.DetectedLanguage,
	}, nil
}
