package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nacho7823/voiceAsisstant/internal/httpc"
)

// HTTPSpeaker synthesizes text through an HTTP endpoint returning raw
// PCM16 mono audio and plays it on the default output device.
type HTTPSpeaker struct {
	url        string
	voice      string
	sampleRate int
	client     *http.Client
	player     *Player
	events     Events
	logger     *slog.Logger
}

// HTTPOption configures an HTTPSpeaker.
type HTTPOption func(*HTTPSpeaker)

// WithVoice sets the voice identifier sent to the synthesis service.
func WithVoice(voice string) HTTPOption {
	return func(s *HTTPSpeaker) { s.voice = voice }
}

// WithTimeout sets the synthesis request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSpeaker) {
		if d > 0 {
			s.client = httpc.NewClient(d)
		}
	}
}

// WithEvents sets the playback notification callbacks.
func WithEvents(ev Events) HTTPOption {
	return func(s *HTTPSpeaker) { s.events = ev }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSpeaker) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSpeaker creates a speaker backed by a synthesis endpoint.
// Playback audio is expected as PCM16 mono at sampleRate Hz.
func NewHTTPSpeaker(url string, sampleRate int, opts ...HTTPOption) *HTTPSpeaker {
	s := &HTTPSpeaker{
		url:        url,
		sampleRate: sampleRate,
		client:     httpc.Client,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "synth.http")
	s.player = NewPlayer(sampleRate, s.logger)
	return s
}

// SetEvents replaces the playback notification callbacks. Call before
// the first Speak; callbacks are not synchronized against playback.
func (s *HTTPSpeaker) SetEvents(ev Events) {
	s.events = ev
}

type synthesisRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
}

// Speak requests synthesis and begins playback. The HTTP round trip is
// synchronous; playback completion arrives via the Events callbacks.
func (s *HTTPSpeaker) Speak(ctx context.Context, text, language string) error {
	body, err := json.Marshal(synthesisRequest{Text: text, Voice: s.voice, Language: language})
	if err != nil {
		return fmt.Errorf("synth: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("synth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("synth: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("synth: API error %d: %s", resp.StatusCode, string(raw))
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("synth: read audio: %w", err)
	}
	if len(pcm) == 0 {
		return ErrUnsupported
	}

	if err := s.player.Play(pcm, func() {
		if s.events.OnPlaybackEnd != nil {
			s.events.OnPlaybackEnd()
		}
	}); err != nil {
		return err
	}
	s.logger.Debug("playback started", "chars", len(text), "pcm_bytes", len(pcm))
	if s.events.OnPlaybackStart != nil {
		s.events.OnPlaybackStart()
	}
	return nil
}

// Stop cancels playback immediately.
func (s *HTTPSpeaker) Stop() {
	s.player.Stop()
}

// Close releases resources.
func (s *HTTPSpeaker) Close() error {
	s.player.Stop()
	s.client.CloseIdleConnections()
	return nil
}

// Verify HTTPSpeaker implements Speaker at compile time.
var _ Speaker = (*HTTPSpeaker)(nil)
