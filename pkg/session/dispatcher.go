package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Nacho7823/voiceAsisstant/pkg/asr"
	"github.com/Nacho7823/voiceAsisstant/pkg/bus"
	"github.com/Nacho7823/voiceAsisstant/pkg/llm"
	"github.com/Nacho7823/voiceAsisstant/pkg/synth"
)

// Transcriber is the slice of the transcription client the dispatcher uses.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (*asr.Result, error)
}

// Generator is the slice of the response-generation client the dispatcher uses.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Outcome summarizes one pipeline run.
type Outcome int

const (
	// OutcomeCompleted means the utterance produced a reply (synthesis
	// may still have failed; that is reported but does not fail the run).
	OutcomeCompleted Outcome = iota

	// OutcomeShortUtterance means the utterance was below the minimum
	// duration and was discarded without dispatching. Not an error.
	OutcomeShortUtterance

	// OutcomeEmptyTranscript means transcription succeeded but returned
	// no text; nothing was dispatched.
	OutcomeEmptyTranscript

	// OutcomeFailed means a pipeline step failed; the error says which.
	OutcomeFailed
)

// Dispatcher runs the downstream pipeline for a finalized utterance:
// minimum-duration gate, transcription, response generation, and optional
// spoken playback. It also owns the "assistant speaking" flag and the
// barge-in cancellation of playback.
type Dispatcher struct {
	transcriber Transcriber
	generator   Generator
	speaker     synth.Speaker // nil when spoken replies are disabled

	history      *History
	notify       *bus.Bus[Notification]
	sampleRate   int
	minSamples   int
	systemPrompt string
	language     string
	logger       *slog.Logger

	mu       sync.Mutex
	speaking bool
}

// DispatcherConfig collects the dispatcher dependencies and tuning.
type DispatcherConfig struct {
	Transcriber  Transcriber
	Generator    Generator
	Speaker      synth.Speaker // optional
	History      *History
	Notify       *bus.Bus[Notification]
	SampleRate   int
	MinSamples   int    // utterances shorter than this are discarded
	SystemPrompt string // optional leading system instruction
	Language     string // language hint forwarded to synthesis
	Logger       *slog.Logger
}

// NewDispatcher creates a pipeline dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		transcriber:  cfg.Transcriber,
		generator:    cfg.Generator,
		speaker:      cfg.Speaker,
		history:      cfg.History,
		notify:       cfg.Notify,
		sampleRate:   cfg.SampleRate,
		minSamples:   cfg.MinSamples,
		systemPrompt: cfg.SystemPrompt,
		language:     cfg.Language,
		logger:       logger.With("component", "session.dispatcher"),
	}
}

// Run executes the pipeline for one finalized utterance. Each step may
// fail independently; a failure aborts the remaining steps.
func (d *Dispatcher) Run(ctx context.Context, samples []float32) (Outcome, error) {
	if len(samples) < d.minSamples {
		d.logger.Debug("discarding short utterance", "samples", len(samples), "min", d.minSamples)
		d.publish(Notification{Kind: NoteShortUtterance})
		return OutcomeShortUtterance, nil
	}

	res, err := d.transcriber.Transcribe(ctx, samples, d.sampleRate)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("transcription: %w", err)
	}
	if res.Text == "" {
		d.logger.Debug("empty transcript, nothing to dispatch")
		return OutcomeEmptyTranscript, nil
	}

	// Speech resuming in the grace window extends the utterance buffer,
	// so one dispatch carries one transcript; it becomes the query as is.
	query := res.Text
	d.history.Append(llm.RoleUser, query)
	d.publish(Notification{Kind: NoteTranscript, Text: query})

	reply, err := d.generator.Generate(ctx, d.history.Messages(d.systemPrompt))
	if err != nil {
		return OutcomeFailed, fmt.Errorf("response generation: %w", err)
	}
	d.history.Append(llm.RoleAssistant, reply)
	d.publish(Notification{Kind: NoteReply, Text: reply})

	if d.speaker != nil {
		lang := res.Language
		if lang == "" {
			lang = d.language
		}
		if err := d.speaker.Speak(ctx, reply, lang); err != nil {
			// The text reply already went out; a synthesis failure is
			// reported but does not fail the pipeline.
			d.logger.Warn("synthesis failed", "error", err)
			d.publish(Notification{Kind: NotePipelineError, Err: fmt.Errorf("synthesis: %w", err)})
		}
	}
	return OutcomeCompleted, nil
}

// CancelPlayback stops assistant speech immediately and clears the
// speaking flag. Invoked on barge-in; safe when nothing is playing.
func (d *Dispatcher) CancelPlayback() {
	d.mu.Lock()
	d.speaking = false
	d.mu.Unlock()
	if d.speaker != nil {
		d.speaker.Stop()
	}
}

// Speaking reports whether assistant speech is currently playing.
func (d *Dispatcher) Speaking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}

// SetSpeaking records playback state; wired to the speaker's start/end
// notifications by the session.
func (d *Dispatcher) SetSpeaking(on bool) {
	d.mu.Lock()
	d.speaking = on
	d.mu.Unlock()
}

func (d *Dispatcher) publish(n Notification) {
	if d.notify != nil {
		d.notify.Publish(n)
	}
}
