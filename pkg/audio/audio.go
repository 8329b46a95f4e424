// Package audio provides the capture source and segmentation buffers for the
// voice assistant: fixed-size microphone frames, the pre-roll ring that keeps
// audio from just before speech is confirmed, and the utterance accumulator.
package audio

import (
	"context"
	"encoding/binary"
	"math"
)

// Frame is one fixed-duration block of mono float32 samples.
// Frames are immutable once produced; consumers must not mutate them.
type Frame []float32

// Bytes encodes the frame as little-endian float32, the wire format the
// activity detector expects.
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f)*4)
	for i, s := range f {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// FrameFromBytes decodes a little-endian float32 buffer into a Frame.
// Trailing bytes that do not form a whole sample are ignored.
func FrameFromBytes(b []byte) Frame {
	n := len(b) / 4
	f := make(Frame, n)
	for i := 0; i < n; i++ {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f
}

// Source produces a continuous sequence of frames from an audio device.
// A source is not restartable: Stop releases the underlying device.
type Source interface {
	// Start begins capture. Frames are delivered on the Frames channel
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Frames returns the channel of captured frames. The channel is
	// closed after Stop.
	Frames() <-chan Frame

	// Stop ends capture and releases the device.
	Stop() error
}
