// Voice assistant: microphone audio is segmented by an external speech
// detector, transcribed, answered by a language model, and optionally
// spoken back. Talking over the assistant interrupts it.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nacho7823/voiceAsisstant/internal/config"
	"github.com/Nacho7823/voiceAsisstant/pkg/assistant"
)

func main() {
	cfg := parseFlags()

	app, err := assistant.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := app.Init(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

// parseFlags layers command line flags over the environment configuration.
func parseFlags() config.Config {
	cfg := config.FromEnv()

	detectorURL := flag.String("vad-url", "", "Speech detector websocket URL (overrides VAD_URL)")
	asrURL := flag.String("asr-url", "", "Transcription endpoint (overrides ASR_URL)")
	llmURL := flag.String("llm-url", "", "Chat completions endpoint (overrides LLM_URL)")
	llmModel := flag.String("llm-model", "", "Model identifier (overrides LLM_MODEL)")
	ttsURL := flag.String("tts-url", "", "Synthesis endpoint; empty disables spoken replies")
	webPort := flag.String("web-port", "", "Status server port; empty disables it")
	graceMS := flag.Int("grace-ms", 0, "Post-roll grace window in milliseconds")
	noPlayback := flag.Bool("no-playback", false, "Disable spoken replies even when TTS is configured")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	if *detectorURL != "" {
		cfg.DetectorURL = *detectorURL
	}
	if *asrURL != "" {
		cfg.ASRURL = *asrURL
	}
	if *llmURL != "" {
		cfg.LLMURL = *llmURL
	}
	if *llmModel != "" {
		cfg.LLMModel = *llmModel
	}
	if *ttsURL != "" {
		cfg.TTSURL = *ttsURL
		cfg.PlaybackEnabled = true
	}
	if *webPort != "" {
		cfg.WebPort = *webPort
	}
	if *graceMS > 0 {
		cfg.GraceWindow = time.Duration(*graceMS) * time.Millisecond
	}
	if *noPlayback {
		cfg.PlaybackEnabled = false
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg
}
