package session

// NotificationKind classifies session notifications published on the
// session bus.
type NotificationKind string

const (
	// NoteState is published on every segmentation state change.
	NoteState NotificationKind = "state"

	// NoteTranscript carries a finalized user transcript.
	NoteTranscript NotificationKind = "transcript"

	// NoteReply carries a generated assistant reply.
	NoteReply NotificationKind = "reply"

	// NotePlaybackStart and NotePlaybackEnd track assistant speech.
	NotePlaybackStart NotificationKind = "playback_start"
	NotePlaybackEnd   NotificationKind = "playback_end"

	// NoteBargeIn is published when user speech cancels playback.
	NoteBargeIn NotificationKind = "barge_in"

	// NoteShortUtterance records a discarded sub-minimum utterance.
	// This is an outcome, not an error.
	NoteShortUtterance NotificationKind = "short_utterance"

	// NoteDetectorError reports a detector-stream error; the session
	// continues unless the connection became unusable.
	NoteDetectorError NotificationKind = "detector_error"

	// NotePipelineError reports a transcription, generation, or
	// synthesis failure.
	NotePipelineError NotificationKind = "pipeline_error"
)

// Notification is one session event for observers (CLI, status server).
type Notification struct {
	Kind  NotificationKind `json:"kind"`
	State State            `json:"state,omitempty"`
	Text  string           `json:"text,omitempty"`
	Err   error            `json:"-"`
}
