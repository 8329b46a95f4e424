package audio

// UtteranceBuffer accumulates the audio of exactly one utterance. At most
// one utterance is open at a time; frames pushed while no utterance is
// active are silently dropped (they belong to the pre-roll buffer instead).
type UtteranceBuffer struct {
	samples []float32
	active  bool
}

// NewUtteranceBuffer creates an empty, inactive buffer.
func NewUtteranceBuffer() *UtteranceBuffer {
	return &UtteranceBuffer{}
}

// Begin opens the buffer for accumulation. It is a no-op if an utterance
// is already open, so duplicate start signals are harmless.
func (b *UtteranceBuffer) Begin() {
	if b.active {
		return
	}
	b.active = true
	b.samples = b.samples[:0]
}

// Seed prepends already-captured samples (typically the drained pre-roll)
// to the open utterance. Ignored while inactive.
func (b *UtteranceBuffer) Seed(samples []float32) {
	if !b.active || len(samples) == 0 {
		return
	}
	b.samples = append(b.samples, samples...)
}

// Push appends a frame to the open utterance. Frames are dropped while
// no utterance is active.
func (b *UtteranceBuffer) Push(frame Frame) {
	if !b.active {
		return
	}
	b.samples = append(b.samples, frame...)
}

// End closes the utterance and returns the accumulated samples, clearing
// the buffer. Safe to call with zero buffered frames or while inactive;
// it returns an empty result, never an error.
func (b *UtteranceBuffer) End() []float32 {
	out := b.samples
	b.samples = nil
	b.active = false
	return out
}

// Active reports whether an utterance is currently open.
func (b *UtteranceBuffer) Active() bool {
	return b.active
}

// Len returns the number of accumulated samples.
func (b *UtteranceBuffer) Len() int {
	return len(b.samples)
}
