package session

import (
	"testing"

	"github.com/Nacho7823/voiceAsisstant/pkg/llm"
)

func TestHistory(t *testing.T) {
	t.Run("appends turns in order with unique ids", func(t *testing.T) {
		h := NewHistory()
		h.Append(llm.RoleUser, "hello")
		h.Append(llm.RoleAssistant, "hi there")

		turns := h.Snapshot()
		if len(turns) != 2 {
			t.Fatalf("got %d turns, want 2", len(turns))
		}
		if turns[0].Role != llm.RoleUser || turns[0].Text != "hello" {
			t.Errorf("first turn = %+v", turns[0])
		}
		if turns[1].Role != llm.RoleAssistant || turns[1].Text != "hi there" {
			t.Errorf("second turn = %+v", turns[1])
		}
		if turns[0].ID == "" || turns[0].ID == turns[1].ID {
			t.Error("turn ids must be unique and non-empty")
		}
		if turns[0].At.IsZero() {
			t.Error("turn timestamp not set")
		}
	})

	t.Run("renders messages with a leading system prompt", func(t *testing.T) {
		h := NewHistory()
		h.Append(llm.RoleUser, "what time is it")

		msgs := h.Messages("be brief")
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		if msgs[0].Role != llm.RoleSystem || msgs[0].Content != "be brief" {
			t.Errorf("system message = %+v", msgs[0])
		}
		if msgs[1].Role != llm.RoleUser {
			t.Errorf("user message = %+v", msgs[1])
		}
	})

	t.Run("omits the system message when the prompt is empty", func(t *testing.T) {
		h := NewHistory()
		h.Append(llm.RoleUser, "hi")
		msgs := h.Messages("")
		if len(msgs) != 1 || msgs[0].Role != llm.RoleUser {
			t.Fatalf("messages = %+v", msgs)
		}
	})

	t.Run("reset clears all turns", func(t *testing.T) {
		h := NewHistory()
		h.Append(llm.RoleUser, "a")
		h.Append(llm.RoleAssistant, "b")
		h.Reset()
		if h.Len() != 0 {
			t.Errorf("got %d turns after reset, want 0", h.Len())
		}
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		h := NewHistory()
		h.Append(llm.RoleUser, "original")
		snap := h.Snapshot()
		snap[0].Text = "mutated"
		if h.Snapshot()[0].Text != "original" {
			t.Error("snapshot mutation leaked into the history")
		}
	})
}
