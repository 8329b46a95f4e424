// Package web provides a small status and event-stream server for a
// running voice session: current state over REST, the conversation
// record, and live session events over a websocket.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/Nacho7823/voiceAsisstant/pkg/bus"
	"github.com/Nacho7823/voiceAsisstant/pkg/session"
)

// SessionView is the slice of the session the server exposes.
type SessionView interface {
	ID() string
	State() session.State
	Speaking() bool
	History() *session.History
	ResetConversation()
	Notifications() *bus.Bus[session.Notification]
}

// Server exposes the session over HTTP.
type Server struct {
	app    *fiber.App
	port   string
	sess   SessionView
	events *hub
	logger *slog.Logger

	unsubscribe func()
}

// event is the wire form of a session notification.
type event struct {
	Kind  string `json:"kind"`
	State string `json:"state,omitempty"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewServer creates the status server for a session.
func NewServer(port string, sess SessionView, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:   port,
		sess:   sess,
		logger: logger.With("component", "web"),
	}
	s.events = newHub(logger)

	app := fiber.New(fiber.Config{
		AppName:               "voice-assistant",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/conversation", s.handleConversation)
	api.Post("/reset", s.handleReset)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start subscribes to session notifications and serves until Shutdown.
func (s *Server) Start() error {
	go s.events.run()
	s.unsubscribe = s.sess.Notifications().Subscribe(s.publishEvent)
	s.logger.Info("status server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("status server failed", "error", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.app.Shutdown()
}

// App returns the underlying fiber app. Exposed for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) publishEvent(n session.Notification) {
	ev := event{Kind: string(n.Kind), Text: n.Text}
	if n.Kind == session.NoteState {
		ev.State = n.State.String()
	}
	if n.Err != nil {
		ev.Error = n.Err.Error()
	}
	if err := s.events.broadcastJSON(ev); err != nil {
		s.logger.Warn("event broadcast failed", "error", err)
	}
}

type statusResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Speaking  bool   `json:"speaking"`
	Turns     int    `json:"turns"`
	Listeners int    `json:"listeners"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		SessionID: s.sess.ID(),
		State:     s.sess.State().String(),
		Speaking:  s.sess.Speaking(),
		Turns:     s.sess.History().Len(),
		Listeners: s.events.clientCount(),
	})
}

func (s *Server) handleConversation(c *fiber.Ctx) error {
	return c.JSON(s.sess.History().Snapshot())
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	s.sess.ResetConversation()
	s.logger.Info("conversation reset via api")
	return c.JSON(fiber.Map{"reset": true})
}

func (s *Server) handleEventsWS(c *websocket.Conn) {
	newClient(s.events, c).serve()
}
