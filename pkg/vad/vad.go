// Package vad connects to the external voice-activity detector over a
// persistent duplex websocket: raw audio frames go out as binary messages,
// structured speech_start/speech_end events come back as JSON.
package vad

import "errors"

// Sentinel errors.
var (
	ErrNotConnected     = errors.New("vad: not connected")
	ErrAlreadyConnected = errors.New("vad: already connected")
)

// EventKind classifies a detector message.
type EventKind int

const (
	// EventSpeechStart signals detected start of user speech.
	EventSpeechStart EventKind = iota

	// EventSpeechEnd signals detected end of user speech.
	EventSpeechEnd

	// EventError carries a detector-reported or connection error.
	EventError

	// EventMessage carries an unrecognized detector payload. It does not
	// affect segmentation state.
	EventMessage

	// EventClosed signals that the connection is gone and no further
	// events will be delivered.
	EventClosed
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSpeechStart:
		return "speech_start"
	case EventSpeechEnd:
		return "speech_end"
	case EventError:
		return "error"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is one detector notification.
type Event struct {
	Kind EventKind
	Err  error  // set for EventError and EventClosed (when abnormal)
	Raw  []byte // original payload for EventMessage
}
