// Package session implements the speech-segmentation and pipeline
// coordination engine: pre-roll and utterance buffering, the segmentation
// state machine driven by detector events, the post-roll debounce, and
// dispatch of finalized utterances through transcription, response
// generation, and spoken playback with barge-in cancellation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Nacho7823/voiceAsisstant/internal/config"
	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
	"github.com/Nacho7823/voiceAsisstant/pkg/bus"
	"github.com/Nacho7823/voiceAsisstant/pkg/vad"
)

// Session errors.
var (
	ErrAlreadyStarted = errors.New("session: already started")
	ErrStopped        = errors.New("session: stopped")
)

// Detector is the slice of the activity-detector client the session uses.
type Detector interface {
	Connect(ctx context.Context) error
	SendFrame(frame audio.Frame) error
	Events() <-chan vad.Event
	Close() error
}

// Session owns one live voice interaction: the audio source, the detector
// connection, all segmentation buffers, and the state machine. A single
// event-loop goroutine is the sole mutator of segmentation state; audio
// frames, detector events, timer fires, and pipeline completions are all
// funneled into it.
type Session struct {
	id     string
	cfg    config.Config
	logger *slog.Logger

	source   audio.Source
	detector Detector
	disp     *Dispatcher

	pre     *audio.PreRollBuffer
	utt     *audio.UtteranceBuffer
	deb     *Debouncer
	history *History
	notify  *bus.Bus[Notification]

	// state is written only by the event loop; the mutex guards reads
	// from other goroutines (status server, tests).
	stateMu sync.Mutex
	state   State

	graceGen uint64 // generation of the armed post-roll timer

	loop chan loopEvent

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type loopEventKind int

const (
	evTimerFired loopEventKind = iota
	evPipelineDone
	evPlaybackStarted
	evPlaybackEnded
)

type loopEvent struct {
	kind loopEventKind
	gen  uint64
	err  error
}

// New creates a session from its collaborators. The dispatcher's speaker
// notifications should be wired through BindSpeakerEvents.
func New(cfg config.Config, source audio.Source, detector Detector, disp *Dispatcher, history *History, notify *bus.Bus[Notification], logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		source:   source,
		detector: detector,
		disp:     disp,
		pre:      audio.NewPreRollBuffer(cfg.PreRollSamples()),
		utt:      audio.NewUtteranceBuffer(),
		deb:      NewDebouncer(),
		history:  history,
		notify:   notify,
		state:    StateIdle,
		loop:     make(chan loopEvent, 16),
		done:     make(chan struct{}),
	}
	s.logger = logger.With("component", "session", "session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current segmentation state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// Speaking reports whether assistant speech is playing.
func (s *Session) Speaking() bool {
	return s.disp.Speaking()
}

// History returns the conversation history.
func (s *Session) History() *History {
	return s.history
}

// Notifications returns the session notification bus.
func (s *Session) Notifications() *bus.Bus[Notification] {
	return s.notify
}

// ResetConversation clears the conversation history. Buffered audio and
// segmentation state are unaffected.
func (s *Session) ResetConversation() {
	s.history.Reset()
}

// BindSpeakerEvents returns the playback notification callbacks that
// route speaker events into the session loop. Set these on the speaker
// before starting the session.
func (s *Session) BindSpeakerEvents() func(started bool) {
	return func(started bool) {
		ev := loopEvent{kind: evPlaybackEnded}
		if started {
			ev.kind = evPlaybackStarted
		}
		select {
		case s.loop <- ev:
		case <-s.done:
		}
	}
}

// Start connects the detector, begins audio capture, and launches the
// event loop. Connection-setup failure is fatal: the session aborts
// before capture begins.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.detector.Connect(runCtx); err != nil {
		cancel()
		return fmt.Errorf("session: detector connect: %w", err)
	}
	if err := s.source.Start(runCtx); err != nil {
		_ = s.detector.Close()
		cancel()
		return fmt.Errorf("session: audio source: %w", err)
	}

	s.logger.Info("session started",
		"sample_rate", s.cfg.SampleRate,
		"preroll_samples", s.cfg.PreRollSamples(),
		"grace_window", s.cfg.GraceWindow,
	)
	go s.run(runCtx)
	return nil
}

// Stop tears the session down: playback is cancelled, capture stops, and
// the detector connection is closed. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	s.disp.CancelPlayback()
	if cancel != nil {
		cancel()
	}
	_ = s.detector.Close()
	_ = s.source.Stop()
	if started {
		<-s.done
	} else {
		close(s.done)
	}
	s.logger.Info("session stopped")
}

// run is the single-writer event loop. All segmentation state mutation
// happens here, one event at a time.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	// The loop can also exit on its own (detector connection lost); the
	// session is dead either way, so release capture and the connection.
	defer func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		_ = s.detector.Close()
		_ = s.source.Stop()
	}()

	frames := s.source.Frames()
	detEvents := s.detector.Events()

	for {
		// Detector events take priority over buffered audio so that a
		// barge-in cancellation is observable before the next frame.
		select {
		case ev, ok := <-detEvents:
			if !ok {
				detEvents = nil
				continue
			}
			if s.handleDetectorEvent(ev) {
				return
			}
			continue
		default:
		}

		select {
		case ev, ok := <-detEvents:
			if !ok {
				detEvents = nil
				continue
			}
			if s.handleDetectorEvent(ev) {
				return
			}
		case frame, ok := <-frames:
			if !ok {
				frames = nil
				if detEvents == nil {
					return
				}
				continue
			}
			s.handleFrame(frame)
		case ev := <-s.loop:
			s.handleLoopEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// handleFrame forwards the frame to the detector and routes it to the
// buffer the current state owns.
func (s *Session) handleFrame(frame audio.Frame) {
	if err := s.detector.SendFrame(frame); err != nil {
		s.logger.Debug("frame forward failed", "error", err)
	}

	switch s.State() {
	case StateActive, StateGrace:
		// Trailing audio during the grace window stays with the
		// utterance: if speech resumes, nothing was lost.
		s.utt.Push(frame)
	default:
		s.pre.Push(frame)
	}
}

// handleDetectorEvent drives the segmentation state machine. It returns
// true when the session must terminate.
func (s *Session) handleDetectorEvent(ev vad.Event) bool {
	switch ev.Kind {
	case vad.EventSpeechStart:
		s.onSpeechStart()
	case vad.EventSpeechEnd:
		s.onSpeechEnd()
	case vad.EventError:
		s.logger.Warn("detector reported error", "error", ev.Err)
		s.publish(Notification{Kind: NoteDetectorError, Err: ev.Err})
	case vad.EventMessage:
		s.logger.Debug("unrecognized detector message", "payload", string(ev.Raw))
	case vad.EventClosed:
		if ev.Err != nil {
			// Connection became unusable; the session cannot continue.
			s.logger.Error("detector connection lost", "error", ev.Err)
			s.publish(Notification{Kind: NoteDetectorError, Err: ev.Err})
			return true
		}
		return true
	}
	return false
}

func (s *Session) onSpeechStart() {
	switch s.State() {
	case StateActive:
		// Duplicate start; accumulation already in progress.
		return
	case StateGrace:
		// Speech resumed inside the grace window: cancel the timer and
		// continue the same utterance. Prior audio is retained.
		s.deb.Cancel()
		s.setState(StateActive)
		return
	default: // StateIdle, StateDispatching
		// Playback may already be audible before its start notification
		// reaches the loop; Stop is always safe, so cancel unconditionally
		// and gate only the barge-in report on the observed flag.
		wasSpeaking := s.disp.Speaking()
		s.disp.CancelPlayback()
		if wasSpeaking {
			s.publish(Notification{Kind: NoteBargeIn})
			s.logger.Info("barge-in: playback cancelled")
		}
		s.deb.Cancel()
		s.utt.Begin()
		s.utt.Seed(s.pre.Drain())
		s.setState(StateActive)
	}
}

func (s *Session) onSpeechEnd() {
	if s.State() != StateActive {
		return
	}
	s.graceGen = s.deb.Schedule(s.cfg.GraceWindow, func(gen uint64) {
		select {
		case s.loop <- loopEvent{kind: evTimerFired, gen: gen}:
		case <-s.done:
		}
	})
	s.setState(StateGrace)
}

func (s *Session) handleLoopEvent(ctx context.Context, ev loopEvent) {
	switch ev.kind {
	case evTimerFired:
		// A fire that raced a cancel or reschedule arrives stale; the
		// state and generation are re-checked here, on the serialized loop.
		if s.State() != StateGrace || ev.gen != s.graceGen {
			return
		}
		samples := s.utt.End()
		s.setState(StateDispatching)
		go func() {
			_, err := s.disp.Run(ctx, samples)
			select {
			case s.loop <- loopEvent{kind: evPipelineDone, err: err}:
			case <-ctx.Done():
			}
		}()

	case evPipelineDone:
		if ev.err != nil {
			s.logger.Warn("pipeline failed", "error", ev.err)
			s.publish(Notification{Kind: NotePipelineError, Err: ev.err})
		}
		// Speech may already have re-started while the pipeline ran; in
		// that case the machine is Active and stays there.
		if s.State() == StateDispatching {
			s.setState(StateIdle)
		}

	case evPlaybackStarted:
		s.disp.SetSpeaking(true)
		s.publish(Notification{Kind: NotePlaybackStart})

	case evPlaybackEnded:
		s.disp.SetSpeaking(false)
		s.publish(Notification{Kind: NotePlaybackEnd})
	}
}

func (s *Session) setState(next State) {
	s.stateMu.Lock()
	prev := s.state
	s.state = next
	s.stateMu.Unlock()
	if prev != next {
		s.logger.Debug("state change", "from", prev.String(), "to", next.String())
		s.publish(Notification{Kind: NoteState, State: next})
	}
}

func (s *Session) publish(n Notification) {
	if s.notify != nil {
		s.notify.Publish(n)
	}
}
