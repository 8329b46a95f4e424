package vad

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
)

const defaultHandshakeTimeout = 10 * time.Second

// Client is the websocket detector client. Connect it once per session;
// the connection is owned exclusively by that session.
type Client struct {
	url              string
	handshakeTimeout time.Duration
	logger           *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	events chan Event
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHandshakeTimeout overrides the connection establishment timeout.
func WithHandshakeTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.handshakeTimeout = d
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

// NewClient creates a detector client for the given websocket URL.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:              url,
		handshakeTimeout: defaultHandshakeTimeout,
		logger:           slog.Default(),
		events:           make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "vad.client")
	return c
}

// Connect establishes the websocket connection and starts the read loop.
// It fails fast: the handshake is bounded by the configured timeout.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return ErrAlreadyConnected
	}
	if c.closed {
		return ErrNotConnected
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("vad: dial %s (status %d): %w", c.url, resp.StatusCode, err)
		}
		return fmt.Errorf("vad: dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info("detector connected", "url", c.url)

	go c.readLoop()
	return nil
}

// SendFrame writes one audio frame as a binary message.
func (c *Client) SendFrame(frame audio.Frame) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Bytes()); err != nil {
		return fmt.Errorf("vad: send frame: %w", err)
	}
	return nil
}

// Events returns the channel of detector events. The channel is closed
// after an EventClosed has been delivered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		c.connected = false
		return c.conn.Close()
	}
	return nil
}

// detectorMessage mirrors the server's JSON payloads.
type detectorMessage struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.connected = false
			c.mu.Unlock()
			if closed {
				c.events <- Event{Kind: EventClosed}
			} else {
				c.logger.Warn("detector read failed", "error", err)
				c.events <- Event{Kind: EventClosed, Err: err}
			}
			return
		}

		var msg detectorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.events <- Event{Kind: EventMessage, Raw: data}
			continue
		}
		switch {
		case msg.Error != "":
			c.events <- Event{Kind: EventError, Err: fmt.Errorf("vad: detector: %s", msg.Error)}
		case msg.Event == "speech_start":
			c.events <- Event{Kind: EventSpeechStart}
		case msg.Event == "speech_end":
			c.events <- Event{Kind: EventSpeechEnd}
		default:
			c.events <- Event{Kind: EventMessage, Raw: data}
		}
	}
}
