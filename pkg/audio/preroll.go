package audio

// PreRollBuffer retains the most recent audio while no utterance is active,
// so the first instant of speech is not lost to detector latency. It is a
// bounded FIFO with a fixed sample capacity; oldest frames are evicted as
// new ones arrive.
type PreRollBuffer struct {
	frames   []Frame
	samples  int
	capacity int
}

// NewPreRollBuffer creates a buffer holding at most capacity samples.
func NewPreRollBuffer(capacity int) *PreRollBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &PreRollBuffer{capacity: capacity}
}

// Push appends a frame and evicts whole frames from the front until the
// total length fits the capacity.
func (b *PreRollBuffer) Push(frame Frame) {
	if b.capacity == 0 || len(frame) == 0 {
		return
	}
	b.frames = append(b.frames, frame)
	b.samples += len(frame)
	for b.samples > b.capacity && len(b.frames) > 0 {
		b.samples -= len(b.frames[0])
		b.frames[0] = nil
		b.frames = b.frames[1:]
	}
}

// Drain returns the buffered samples in arrival order and clears the buffer.
func (b *PreRollBuffer) Drain() []float32 {
	if b.samples == 0 {
		b.frames = nil
		return nil
	}
	out := make([]float32, 0, b.samples)
	for _, f := range b.frames {
		out = append(out, f...)
	}
	b.frames = nil
	b.samples = 0
	return out
}

// Len returns the number of buffered samples.
func (b *PreRollBuffer) Len() int {
	return b.samples
}
