package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nacho7823/voiceAsisstant/pkg/llm"
)

// Turn is one entry in the conversation history.
type Turn struct {
	ID   string    `json:"id"`
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// History is the append-only conversation record for a session. It is
// reset only by an explicit session reset. Reads may come from outside
// the event loop (status server), hence the mutex.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a turn and returns it.
func (h *History) Append(role, text string) Turn {
	turn := Turn{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		At:   time.Now(),
	}
	h.mu.Lock()
	h.turns = append(h.turns, turn)
	h.mu.Unlock()
	return turn
}

// Snapshot returns a copy of all turns in order.
func (h *History) Snapshot() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Messages renders the history as chat messages, with an optional leading
// system instruction.
func (h *History) Messages(systemPrompt string) []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := make([]llm.Message, 0, len(h.turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	for _, t := range h.turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Text})
	}
	return msgs
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Reset clears the history.
func (h *History) Reset() {
	h.mu.Lock()
	h.turns = nil
	h.mu.Unlock()
}
