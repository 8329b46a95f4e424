package synth_test

import (
	"context"
	"testing"

	"github.com/Nacho7823/voiceAsisstant/pkg/synth"
)

func TestMockSpeaker(t *testing.T) {
	var started, ended int
	m := synth.NewMock()
	m.Events = synth.Events{
		OnPlaybackStart: func() { started++ },
		OnPlaybackEnd:   func() { ended++ },
	}

	t.Run("speak starts playback", func(t *testing.T) {
		if err := m.Speak(context.Background(), "hello", "en"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if started != 1 {
			t.Errorf("started = %d, want 1", started)
		}
		if !m.Playing() {
			t.Error("expected playing state")
		}
	})

	t.Run("stop ends playback exactly once", func(t *testing.T) {
		m.Stop()
		m.Stop()
		if ended != 1 {
			t.Errorf("ended = %d, want 1", ended)
		}
		if m.Playing() {
			t.Error("expected stopped state")
		}
	})

	t.Run("stop when idle is safe", func(t *testing.T) {
		before := ended
		m.Stop()
		if ended != before {
			t.Error("stop while idle emitted playback end")
		}
	})

	t.Run("calls are recorded", func(t *testing.T) {
		if m.CallCount("Speak") != 1 {
			t.Errorf("Speak count = %d, want 1", m.CallCount("Speak"))
		}
		calls := m.Calls()
		if calls[0].Text != "hello" || calls[0].Language != "en" {
			t.Errorf("recorded call = %+v", calls[0])
		}
	})
}
