// Package assistant wires the full voice pipeline together: microphone
// capture, the activity-detector connection, the segmentation session,
// downstream service clients, and the optional status server.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nacho7823/voiceAsisstant/internal/config"
	"github.com/Nacho7823/voiceAsisstant/internal/log"
	"github.com/Nacho7823/voiceAsisstant/pkg/asr"
	"github.com/Nacho7823/voiceAsisstant/pkg/audio"
	"github.com/Nacho7823/voiceAsisstant/pkg/bus"
	"github.com/Nacho7823/voiceAsisstant/pkg/llm"
	"github.com/Nacho7823/voiceAsisstant/pkg/session"
	"github.com/Nacho7823/voiceAsisstant/pkg/synth"
	"github.com/Nacho7823/voiceAsisstant/pkg/vad"
	"github.com/Nacho7823/voiceAsisstant/pkg/web"
)

// App is the assembled assistant.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	capture  *audio.Capture
	detector *vad.Client
	speaker  synth.Speaker
	sess     *session.Session
	web      *web.Server
}

// New validates the configuration and prepares an App. Components are
// constructed in Init so a configuration error surfaces first.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Init(cfg.LogLevel)
	return &App{cfg: cfg, logger: log.L()}, nil
}

// Init builds every component of the pipeline.
func (a *App) Init() error {
	cfg := a.cfg

	a.capture = audio.NewCapture(cfg.SampleRate, cfg.FrameSize, a.logger)
	a.detector = vad.NewClient(cfg.DetectorURL,
		vad.WithHandshakeTimeout(cfg.ConnectTimeout),
		vad.WithLogger(a.logger),
	)

	transcriber := asr.NewClient(cfg.ASRURL,
		asr.WithModelSize(cfg.ASRModelSize),
		asr.WithLanguage(cfg.Language),
		asr.WithTimeout(cfg.RequestTimeout),
		asr.WithLogger(a.logger),
	)
	generator := llm.NewClient(cfg.LLMURL, cfg.LLMModel,
		llm.WithAPIKey(cfg.LLMKey),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTimeout(cfg.RequestTimeout),
		llm.WithLogger(a.logger),
	)

	history := session.NewHistory()
	notify := bus.New[session.Notification](a.logger)

	var speaker synth.Speaker
	if cfg.PlaybackEnabled && cfg.TTSURL != "" {
		speaker = synth.NewHTTPSpeaker(cfg.TTSURL, cfg.SampleRate,
			synth.WithVoice(cfg.TTSVoice),
			synth.WithTimeout(cfg.RequestTimeout),
			synth.WithLogger(a.logger),
		)
		a.speaker = speaker
	}

	disp := session.NewDispatcher(session.DispatcherConfig{
		Transcriber:  transcriber,
		Generator:    generator,
		Speaker:      speaker,
		History:      history,
		Notify:       notify,
		SampleRate:   cfg.SampleRate,
		MinSamples:   cfg.MinUtteranceSamples(),
		SystemPrompt: cfg.SystemPrompt,
		Language:     cfg.Language,
		Logger:       a.logger,
	})

	a.sess = session.New(cfg, a.capture, a.detector, disp, history, notify, a.logger)

	if hs, ok := speaker.(*synth.HTTPSpeaker); ok {
		playback := a.sess.BindSpeakerEvents()
		hs.SetEvents(synth.Events{
			OnPlaybackStart: func() { playback(true) },
			OnPlaybackEnd:   func() { playback(false) },
		})
	}

	if cfg.WebPort != "" {
		a.web = web.NewServer(cfg.WebPort, a.sess, a.logger)
	}
	return nil
}

// Run starts the session and blocks until the context is cancelled or the
// session ends on its own.
func (a *App) Run(ctx context.Context) error {
	unsubscribe := a.sess.Notifications().Subscribe(a.printNotification)
	defer unsubscribe()

	if err := a.sess.Start(ctx); err != nil {
		return err
	}
	if a.web != nil {
		a.web.StartAsync()
	}

	a.logger.Info("assistant ready",
		"detector", a.cfg.DetectorURL,
		"asr", a.cfg.ASRURL,
		"llm_model", a.cfg.LLMModel,
		"playback", a.cfg.PlaybackEnabled,
	)
	<-ctx.Done()
	return nil
}

// Shutdown stops every component. Safe to call after a failed Init.
func (a *App) Shutdown() {
	if a.sess != nil {
		a.sess.Stop()
	}
	if a.web != nil {
		if err := a.web.Shutdown(); err != nil {
			a.logger.Warn("status server shutdown", "error", err)
		}
	}
	if a.speaker != nil {
		if err := a.speaker.Close(); err != nil {
			a.logger.Warn("speaker shutdown", "error", err)
		}
	}
}

// printNotification mirrors the conversation onto stdout so the assistant
// is usable from a terminal without the status server.
func (a *App) printNotification(n session.Notification) {
	switch n.Kind {
	case session.NoteTranscript:
		fmt.Printf("you:       %s\n", n.Text)
	case session.NoteReply:
		fmt.Printf("assistant: %s\n", n.Text)
	case session.NoteBargeIn:
		fmt.Println("(interrupted)")
	case session.NotePipelineError:
		fmt.Printf("(pipeline error: %v)\n", n.Err)
	case session.NoteDetectorError:
		fmt.Printf("(detector error: %v)\n", n.Err)
	}
}
