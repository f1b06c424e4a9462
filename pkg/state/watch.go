// Package state holds the vehicle-facing state types and the latest-value
// watch channels that publish them: single writer, many readers, no
// history. A subscriber always observes the current snapshot first, then
// the newest value after each change; slow readers skip intermediates.
package state

import (
	"context"
	"sync"
)

type subscriber struct {
	notify chan struct{}
}

// Watch is a single-writer latest-value channel.
type Watch[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	subs    map[*subscriber]struct{}
	closing chan struct{}
	closed  bool
}

// NewWatch creates a watch seeded with the initial value.
func NewWatch[T any](initial T) *Watch[T] {
	return &Watch[T]{
		value:   initial,
		subs:    make(map[*subscriber]struct{}),
		closing: make(chan struct{}),
	}
}

// Set atomically replaces the stored value and wakes all subscribers.
func (w *Watch[T]) Set(value T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.value = value
	w.version++
	for s := range w.subs {
		select {
		case s.notify <- struct{}{}:
		default:
			// Already has a pending wakeup; it will read the latest value.
		}
	}
}

// Update applies a mutation to a copy of the current value and stores it.
// Only the single writer may call Update.
func (w *Watch[T]) Update(fn func(*T)) {
	w.mu.Lock()
	value := w.value
	w.mu.Unlock()
	fn(&value)
	w.Set(value)
}

// Get returns the current snapshot.
func (w *Watch[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Subscribe returns a channel yielding the current snapshot followed by
// the latest value after every subsequent Set. The channel closes when
// ctx is done or the watch is closed.
func (w *Watch[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T, 1)
	s := &subscriber{notify: make(chan struct{}, 1)}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(out)
		return out
	}
	w.subs[s] = struct{}{}
	w.mu.Unlock()

	// Prime with the current snapshot.
	s.notify <- struct{}{}

	go func() {
		defer close(out)
		defer w.unsubscribe(s)
		var lastSent uint64
		var sentAny bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.closing:
				// No further writes can happen; deliver the terminal
				// value if the reader has not seen it yet.
				w.deliverFinal(ctx, out, lastSent, sentAny)
				return
			case <-s.notify:
			}

			w.mu.Lock()
			value := w.value
			version := w.version
			w.mu.Unlock()
			if sentAny && version == lastSent {
				continue
			}

			select {
			case out <- value:
				lastSent = version
				sentAny = true
			case <-ctx.Done():
				return
			case <-w.closing:
				w.deliverFinal(ctx, out, lastSent, sentAny)
				return
			case <-s.notify:
				// A newer value arrived while the reader was slow; abandon
				// the stale send and loop to pick up the latest.
				select {
				case s.notify <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

// Close terminates all subscriptions. Further Sets are ignored.
func (w *Watch[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.closing)
	w.subs = make(map[*subscriber]struct{})
}

// deliverFinal pushes the last value written before Close to a reader
// that has not observed it yet.
func (w *Watch[T]) deliverFinal(ctx context.Context, out chan T, lastSent uint64, sentAny bool) {
	w.mu.Lock()
	value := w.value
	version := w.version
	w.mu.Unlock()
	if sentAny && version == lastSent {
		return
	}
	select {
	case out <- value:
	case <-ctx.Done():
	}
}

func (w *Watch[T]) unsubscribe(s *subscriber) {
	w.mu.Lock()
	delete(w.subs, s)
	w.mu.Unlock()
}
