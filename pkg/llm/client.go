// Package llm provides the client for the conversational-response service.
// Requests follow the chat-completions wire shape; responses are parsed
// leniently because proxies in front of different model backends disagree
// on where the reply text lives.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Nacho7823/voiceAsisstant/internal/httpc"
)

// Sentinel errors.
var (
	ErrEmptyResponse = errors.New("llm: response contains no reply text")
)

// APIError represents a non-success response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm: API error %d: %s", e.StatusCode, e.Message)
}

// Message is one role/content pair in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client calls the chat-completions endpoint.
type Client struct {
	url       string
	model     string
	apiKey    string
	maxTokens int
	client    *http.Client
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the bearer credential.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
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

// NewClient creates a chat client for the given endpoint and model.
func NewClient(url, model string, opts ...ClientOption) *Client {
	c := &Client{
		url:       url,
		model:     model,
		maxTokens: 200,
		client:    httpc.Client,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "llm.client")
	return c
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Generate sends the ordered conversation and returns the reply text.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	text, err := extractReply(raw)
	if err != nil {
		return "", err
	}

	c.logger.Debug("generated reply",
		"messages", len(messages),
		"latency_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)
	return text, nil
}

// extractReply pulls the reply text out of any of the known response
// shapes: a chat message content field, an alternate completion text
// field, or a top-level output_text field.
func extractReply(raw []byte) (string, error) {
	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
		OutputText string `json:"output_text"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(payload.Choices) > 0 {
		if t := strings.TrimSpace(payload.Choices[0].Message.Content); t != "" {
			return t, nil
		}
		if t := strings.TrimSpace(payload.Choices[0].Text); t != "" {
			return t, nil
		}
	}
	if t := strings.TrimSpace(payload.OutputText); t != "" {
		return t, nil
	}
	return "", ErrEmptyResponse
}
