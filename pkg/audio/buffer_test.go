package audio

import (
	"testing"
)

func frameOf(values ...float32) Frame {
	return Frame(values)
}

func TestPreRollBuffer(t *testing.T) {
	t.Run("drain returns frames in order", func(t *testing.T) {
		b := NewPreRollBuffer(10)
		b.Push(frameOf(1, 2))
		b.Push(frameOf(3, 4))
		got := b.Drain()
		want := []float32{1, 2, 3, 4}
		if len(got) != len(want) {
			t.Fatalf("got %d samples, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("drain clears the buffer", func(t *testing.T) {
		b := NewPreRollBuffer(10)
		b.Push(frameOf(1, 2))
		b.Drain()
		if b.Len() != 0 {
			t.Errorf("Len = %d after drain, want 0", b.Len())
		}
		if got := b.Drain(); got != nil {
			t.Errorf("second drain returned %v, want nil", got)
		}
	})

	t.Run("pushing beyond capacity evicts oldest first", func(t *testing.T) {
		b := NewPreRollBuffer(4)
		b.Push(frameOf(1, 2))
		b.Push(frameOf(3, 4))
		b.Push(frameOf(5, 6))
		got := b.Drain()
		want := []float32{3, 4, 5, 6}
		if len(got) != len(want) {
			t.Fatalf("got %d samples, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		b := NewPreRollBuffer(100)
		for i := 0; i < 1000; i++ {
			b.Push(make(Frame, 7))
		}
		if b.Len() > 100 {
			t.Errorf("Len = %d, capacity 100", b.Len())
		}
	})

	t.Run("zero capacity stays empty", func(t *testing.T) {
		b := NewPreRollBuffer(0)
		b.Push(frameOf(1, 2, 3))
		if b.Len() != 0 {
			t.Errorf("Len = %d, want 0", b.Len())
		}
	})
}

func TestUtteranceBuffer(t *testing.T) {
	t.Run("frames outside an active utterance are dropped", func(t *testing.T) {
		b := NewUtteranceBuffer()
		b.Push(frameOf(1, 2))
		if b.Len() != 0 {
			t.Errorf("Len = %d, want 0", b.Len())
		}
	})

	t.Run("begin is idempotent", func(t *testing.T) {
		b := NewUtteranceBuffer()
		b.Begin()
		b.Push(frameOf(1, 2))
		b.Begin()
		if b.Len() != 2 {
			t.Errorf("Len = %d after duplicate Begin, want 2", b.Len())
		}
	})

	t.Run("end returns audio then empty", func(t *testing.T) {
		b := NewUtteranceBuffer()
		b.Begin()
		b.Push(frameOf(1, 2, 3))
		first := b.End()
		if len(first) != 3 {
			t.Fatalf("first End returned %d samples, want 3", len(first))
		}
		second := b.End()
		if len(second) != 0 {
			t.Errorf("second End returned %d samples, want 0", len(second))
		}
	})

	t.Run("seed prepends pre-roll audio", func(t *testing.T) {
		b := NewUtteranceBuffer()
		b.Begin()
		b.Seed([]float32{1, 2})
		b.Push(frameOf(3, 4))
		got := b.End()
		want := []float32{1, 2, 3, 4}
		if len(got) != len(want) {
			t.Fatalf("got %d samples, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("seed ignored while inactive", func(t *testing.T) {
		b := NewUtteranceBuffer()
		b.Seed([]float32{1, 2})
		if b.Len() != 0 {
			t.Errorf("Len = %d, want 0", b.Len())
		}
	})
}

func TestFrameBytesRoundTrip(t *testing.T) {
	f := frameOf(0, 0.5, -0.5, 1, -1, 0.123)
	got := FrameFromBytes(f.Bytes())
	if len(got) != len(f) {
		t.Fatalf("got %d samples, want %d", len(got), len(f))
	}
	for i := range f {
		if got[i] != f[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], f[i])
		}
	}
}
