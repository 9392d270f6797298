// Package tracking delivers hand tracking frames to subscribers.
//
// A Source pushes one hand.Update per tracking frame, on its own goroutine,
// to every subscriber. Subscribers must not block.
package tracking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ayusman/thumbstick/internal/hand"
)

// ErrTrackingUnavailable is returned by Start when the underlying tracker
// cannot be started.
var ErrTrackingUnavailable = errors.New("tracking: unavailable")

// Source is a stream of hand tracking frames.
type Source interface {
	// Subscribe registers fn for every future update. The returned func
	// removes the subscription and is safe to call more than once.
	Subscribe(fn func(hand.Update)) (unsubscribe func())
	// Start begins delivering updates. It returns an error wrapping
	// ErrTrackingUnavailable when tracking cannot start.
	Start(ctx context.Context) error
	// Stop halts delivery and waits for the delivery goroutine to exit.
	// Stop is idempotent.
	Stop()
}

// hub fans updates out to subscribers.
type hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(hand.Update)
}

func (h *hub) Subscribe(fn func(hand.Update)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(hand.Update))
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
		})
	}
}

// publish delivers u to subscribers in subscription order.
func (h *hub) publish(u hand.Update) {
	h.mu.RLock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(hand.Update), len(ids))
	for i, id := range ids {
		fns[i] = h.subs[id]
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
