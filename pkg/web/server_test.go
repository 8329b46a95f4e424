package web

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Nacho7823/voiceAsisstant/pkg/bus"
	"github.com/Nacho7823/voiceAsisstant/pkg/llm"
	"github.com/Nacho7823/voiceAsisstant/pkg/session"
)

type stubSession struct {
	id       string
	state    session.State
	speaking bool
	history  *session.History
	notify   *bus.Bus[session.Notification]
}

func newStubSession() *stubSession {
	return &stubSession{
		id:      "test-session",
		state:   session.StateIdle,
		history: session.NewHistory(),
		notify:  bus.New[session.Notification](nil),
	}
}

func (s *stubSession) ID() string { return s.id }

func (s *stubSession) State() session.State { return s.state }

func (s *stubSession) Speaking() bool { return s.speaking }

func (s *stubSession) History() *session.History { return s.history }

func (s *stubSession) ResetConversation() { s.history.Reset() }

func (s *stubSession) Notifications() *bus.Bus[session.Notification] {
	return s.notify
}

func TestServerStatus(t *testing.T) {
	sess := newStubSession()
	sess.state = session.StateActive
	sess.speaking = true
	sess.history.Append(llm.RoleUser, "hello")
	srv := NewServer("0", sess, nil)

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != "test-session" {
		t.Errorf("session_id = %q", got.SessionID)
	}
	if got.State != "active" {
		t.Errorf("state = %q, want active", got.State)
	}
	if !got.Speaking {
		t.Error("speaking not reported")
	}
	if got.Turns != 1 {
		t.Errorf("turns = %d, want 1", got.Turns)
	}
}

func TestServerConversation(t *testing.T) {
	sess := newStubSession()
	sess.history.Append(llm.RoleUser, "what time is it")
	sess.history.Append(llm.RoleAssistant, "half past three")
	srv := NewServer("0", sess, nil)

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/conversation", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var turns []session.Turn
	if err := json.NewDecoder(resp.Body).Decode(&turns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != llm.RoleUser || turns[0].Text != "what time is it" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Role != llm.RoleAssistant {
		t.Errorf("second turn = %+v", turns[1])
	}
}

func TestServerReset(t *testing.T) {
	sess := newStubSession()
	sess.history.Append(llm.RoleUser, "hello")
	srv := NewServer("0", sess, nil)

	resp, err := srv.App().Test(httptest.NewRequest("POST", "/api/reset", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if sess.history.Len() != 0 {
		t.Error("reset did not clear the conversation")
	}
}

func TestServerRejectsPlainEventsRequest(t *testing.T) {
	srv := NewServer("0", newStubSession(), nil)

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/ws/events", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 426 {
		t.Errorf("status = %d, want 426 upgrade required", resp.StatusCode)
	}
}
