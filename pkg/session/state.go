package session

// State is the segmentation state of a session. Exactly one instance
// exists per session and only the session event loop mutates it.
type State int

const (
	// StateIdle means no speech is in progress; incoming audio feeds the
	// pre-roll buffer.
	StateIdle State = iota

	// StateActive means speech is confirmed and audio is accumulating in
	// the utterance buffer.
	StateActive

	// StateGrace means end-of-speech was observed and the post-roll
	// debounce timer is running.
	StateGrace

	// StateDispatching means the utterance was finalized and the
	// downstream pipeline is running.
	StateDispatching
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateGrace:
		return "grace"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}
