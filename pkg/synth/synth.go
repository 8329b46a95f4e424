// Package synth provides the speech-synthesis capability: turning reply
// text into audible playback. Synthesis backends implement Speaker; the
// session only ever talks to the interface so playback can be disabled or
// mocked without touching the pipeline.
package synth

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	ErrUnsupported = errors.New("synth: speech synthesis not available")
	ErrBusy        = errors.New("synth: playback already in progress")
)

// Events groups the playback notifications. All fields are optional.
type Events struct {
	// OnPlaybackStart fires when audio actually starts playing.
	OnPlaybackStart func()

	// OnPlaybackEnd fires when playback finishes, is stopped, or fails.
	// It fires at most once per Speak.
	OnPlaybackEnd func()

	// OnError fires on asynchronous playback errors.
	OnError func(err error)
}

// Speaker begins asynchronous playback of synthesized speech.
type Speaker interface {
	// Speak synthesizes text and begins playback. The synthesis request
	// itself is synchronous (a failure is returned), playback is not:
	// completion is reported through Events.
	Speak(ctx context.Context, text, language string) error

	// Stop cancels playback immediately. Always safe to call, including
	// when nothing is playing.
	Stop()

	// Close releases backend resources.
	Close() error
}
