package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Capture errors.
var (
	ErrAlreadyStarted = errors.New("audio: capture already started")
	ErrNotStarted     = errors.New("audio: capture not started")
)

// Capture implements Source over the default system microphone using malgo.
// It delivers mono float32 frames of a fixed sample count. Frames are
// dropped if the consumer falls behind; capture never blocks the device
// callback.
type Capture struct {
	sampleRate int
	frameSize  int
	logger     *slog.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	started bool
	stopped bool

	frames chan Frame
	pend   []float32
}

// NewCapture creates a microphone source producing frameSize-sample frames
// at sampleRate Hz.
func NewCapture(sampleRate, frameSize int, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		logger:     logger.With("component", "audio.capture"),
		frames:     make(chan Frame, 64),
	}
}

// Start opens the default capture device and begins delivering frames.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if c.stopped {
		return ErrNotStarted
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audio: init context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onRecvFrames := func(_, pSample []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		n := int(framecount)
		for i := 0; i < n; i++ {
			c.pend = append(c.pend, math.Float32frombits(binary.LittleEndian.Uint32(pSample[i*4:])))
		}
		for len(c.pend) >= c.frameSize {
			frame := make(Frame, c.frameSize)
			copy(frame, c.pend[:c.frameSize])
			c.pend = append(c.pend[:0], c.pend[c.frameSize:]...)
			select {
			case c.frames <- frame:
			default:
				// consumer is behind; dropping keeps the device callback realtime-safe
			}
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return fmt.Errorf("audio: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return fmt.Errorf("audio: start device: %w", err)
	}

	c.ctx = mctx
	c.device = device
	c.started = true
	c.logger.Info("capture started", "sample_rate", c.sampleRate, "frame_size", c.frameSize)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// Frames returns the channel of captured frames.
func (c *Capture) Frames() <-chan Frame {
	return c.frames
}

// Stop ends capture and releases the device. The source cannot be
// restarted afterwards.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}
	c.stopped = true
	if !c.started {
		close(c.frames)
		return nil
	}
	c.started = false
	c.device.Uninit()
	_ = c.ctx.Uninit()
	c.ctx.Free()
	close(c.frames)
	c.logger.Info("capture stopped")
	return nil
}

// Verify Capture implements Source at compile time.
var _ Source = (*Capture)(nil)
