package vad_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
	"github.com/Nacho7823/voiceAsisstant/pkg/vad"
)

var upgrader = websocket.Upgrader{}

// fakeDetector upgrades the connection and replies to every binary frame
// with the queued JSON messages, one per frame.
func fakeDetector(t *testing.T, replies []string) *httptest.Server {
	t.Helper()
	i := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			if i < len(replies) {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(replies[i])); err != nil {
					return
				}
				i++
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitEvent(t *testing.T, ch <-chan vad.Event) vad.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for detector event")
		return vad.Event{}
	}
}

func TestClientEvents(t *testing.T) {
	srv := fakeDetector(t, []string{
		`{"event": "speech_start"}`,
		`{"event": "speech_end"}`,
		`{"status": "warmup complete"}`,
		`{"error": "model not loaded"}`,
	})
	defer srv.Close()

	c := vad.NewClient(wsURL(srv))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	frame := make(audio.Frame, 512)
	for i := 0; i < 4; i++ {
		if err := c.SendFrame(frame); err != nil {
			t.Fatalf("send frame %d: %v", i, err)
		}
	}

	if ev := waitEvent(t, c.Events()); ev.Kind != vad.EventSpeechStart {
		t.Errorf("event 0 = %v, want speech_start", ev.Kind)
	}
	if ev := waitEvent(t, c.Events()); ev.Kind != vad.EventSpeechEnd {
		t.Errorf("event 1 = %v, want speech_end", ev.Kind)
	}
	if ev := waitEvent(t, c.Events()); ev.Kind != vad.EventMessage {
		t.Errorf("event 2 = %v, want message", ev.Kind)
	}
	ev := waitEvent(t, c.Events())
	if ev.Kind != vad.EventError {
		t.Errorf("event 3 = %v, want error", ev.Kind)
	}
	if ev.Err == nil || !strings.Contains(ev.Err.Error(), "model not loaded") {
		t.Errorf("error = %v, want detector message", ev.Err)
	}
}

func TestConnectFailsFast(t *testing.T) {
	c := vad.NewClient("ws://127.0.0.1:1/ws/vad", vad.WithHandshakeTimeout(200*time.Millisecond))
	start := time.Now()
	err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("connect took %v, should fail fast", time.Since(start))
	}
}

func TestSendBeforeConnect(t *testing.T) {
	c := vad.NewClient("ws://example.invalid/ws/vad")
	if err := c.SendFrame(make(audio.Frame, 512)); err != vad.ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestCloseDeliversClosedEvent(t *testing.T) {
	srv := fakeDetector(t, nil)
	defer srv.Close()

	c := vad.NewClient(wsURL(srv))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ev := waitEvent(t, c.Events()); ev.Kind != vad.EventClosed {
		t.Errorf("event = %v, want closed", ev.Kind)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
