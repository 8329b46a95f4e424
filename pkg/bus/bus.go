// Package bus provides a small typed publish/subscribe channel with
// per-subscriber fault isolation: a panicking handler is reported and does
// not prevent delivery to the remaining subscribers.
package bus

import (
	"log/slog"
	"sort"
	"sync"
)

// Bus delivers values of type T to every subscriber. Handlers run
// synchronously on the publishing goroutine, in subscription order.
type Bus[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
	logger *slog.Logger
}

// New creates a Bus. A nil logger falls back to slog.Default.
func New[T any](logger *slog.Logger) *Bus[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus[T]{
		subs:   make(map[int]func(T)),
		logger: logger.With("component", "bus"),
	}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Bus[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers v to all current subscribers. A panic in one handler
// is logged and swallowed so the others still run.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	// map order is random; deliver in subscription order
	sort.Ints(ids)
	handlers := make([]func(T), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		b.deliver(fn, v)
	}
}

func (b *Bus[T]) deliver(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked", "panic", r)
		}
	}()
	fn(v)
}

// Len returns the current subscriber count.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
