package synth

import (
	"context"
	"sync"
)

// Mock implements Speaker for testing. Behavior can be customized via
// function fields; all calls are recorded.
type Mock struct {
	// SpeakFunc is called when Speak is invoked. If nil, Speak fires
	// OnPlaybackStart and succeeds; call FinishPlayback to emit the end
	// notification.
	SpeakFunc func(ctx context.Context, text, language string) error

	// Events are the notification callbacks the mock drives.
	Events Events

	mu      sync.Mutex
	calls   []MockCall
	playing bool
}

// MockCall records a method invocation.
type MockCall struct {
	Method   string
	Text     string
	Language string
}

// NewMock creates a mock speaker.
func NewMock() *Mock {
	return &Mock{}
}

// Speak records the call and simulates playback start.
func (m *Mock) Speak(ctx context.Context, text, language string) error {
	m.record("Speak", text, language)
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text, language)
	}
	m.mu.Lock()
	m.playing = true
	m.mu.Unlock()
	if m.Events.OnPlaybackStart != nil {
		m.Events.OnPlaybackStart()
	}
	return nil
}

// Stop records the call and ends simulated playback.
func (m *Mock) Stop() {
	m.record("Stop", "", "")
	m.FinishPlayback()
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close", "", "")
	return nil
}

// FinishPlayback emits the playback-end notification if playback was
// simulated as active.
func (m *Mock) FinishPlayback() {
	m.mu.Lock()
	wasPlaying := m.playing
	m.playing = false
	m.mu.Unlock()
	if wasPlaying && m.Events.OnPlaybackEnd != nil {
		m.Events.OnPlaybackEnd()
	}
}

// Playing reports the simulated playback state.
func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times a method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *Mock) record(method, text, language string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Language: language})
}

// Verify Mock implements Speaker at compile time.
var _ Speaker = (*Mock)(nil)
