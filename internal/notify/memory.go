package notify

import (
	"context"
	"sync"
	"time"
)

// MemoryBus is the in-process Notifier used by tests and single-node runs.
// Each subscriber drains its own buffered channel; when a slow subscriber's
// buffer is full the oldest pending signal is dropped in favor of the newest,
// since listeners re-fetch full state on every signal anyway.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[chan string]struct{}
	done   map[chan string]chan struct{}
	lastID string
	lastAt time.Time
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[chan string]struct{}),
		done: make(map[chan string]chan struct{}),
	}
}

func (b *MemoryBus) Notify(_ context.Context, couponID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID = couponID
	b.lastAt = time.Now()
	for ch := range b.subs {
		select {
		case ch <- couponID:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- couponID
		}
	}
}

// LastSignal reports the most recent change signal. Like the Redis notifier's
// last-signal key it is a best-effort marker for inspection, not a replay
// source; ok is false before the first signal.
func (b *MemoryBus) LastSignal() (couponID string, at time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastID, b.lastAt, !b.lastAt.IsZero()
}

func (b *MemoryBus) Subscribe(fn func(couponID string)) func() {
	ch := make(chan string, 8)
	stop := make(chan struct{})

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.done[ch] = stop
	b.mu.Unlock()

	go func() {
		for {
			select {
			case couponID := <-ch:
				fn(couponID)
			case <-stop:
				return
			}
		}
	}()

	return func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			delete(b.done, ch)
			close(stop)
		}
		b.mu.Unlock()
	}
}
