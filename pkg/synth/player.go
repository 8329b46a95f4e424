package synth

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// Player plays PCM16 mono audio on the default output device. One playback
// at a time; Stop aborts the current one.
type Player struct {
	sampleRate int
	logger     *slog.Logger

	mu      sync.Mutex
	playing bool
	abort   chan struct{}
}

// NewPlayer creates a player for PCM16 mono audio at sampleRate Hz.
func NewPlayer(sampleRate int, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		sampleRate: sampleRate,
		logger:     logger.With("component", "synth.player"),
	}
}

// Play starts asynchronous playback of little-endian PCM16 bytes and
// returns once the device is running. onDone is invoked exactly once when
// playback drains or is stopped.
func (p *Player) Play(pcm []byte, onDone func()) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return ErrBusy
	}
	p.playing = true
	abort := make(chan struct{})
	p.abort = abort
	p.mu.Unlock()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		p.reset()
		return fmt.Errorf("synth: init context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(p.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	var offset int
	drained := make(chan struct{})
	var drainOnce sync.Once

	onSendFrames := func(pOutput, _ []byte, framecount uint32) {
		want := int(framecount) * 2 // PCM16 mono
		n := copy(pOutput, pcm[offset:])
		offset += n
		if n < want {
			for i := n; i < want && i < len(pOutput); i++ {
				pOutput[i] = 0
			}
			drainOnce.Do(func() { close(drained) })
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		p.reset()
		return fmt.Errorf("synth: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		p.reset()
		return fmt.Errorf("synth: start device: %w", err)
	}

	go func() {
		select {
		case <-drained:
		case <-abort:
		}
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		p.finish(onDone)
	}()

	return nil
}

// Stop aborts the current playback. No-op when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing && p.abort != nil {
		close(p.abort)
		p.abort = nil
	}
}

// Playing reports whether audio is currently being played.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) finish(onDone func()) {
	p.reset()
	if onDone != nil {
		onDone()
	}
}

func (p *Player) reset() {
	p.mu.Lock()
	p.playing = false
	p.abort = nil
	p.mu.Unlock()
}
