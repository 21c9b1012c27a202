package api

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-rtkit/events"
	"github.com/b0bbywan/go-rtkit/logger"
)

const subscriberBuffer = 32

// Broadcaster fans out events from a single upstream channel to all subscribers.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan events.Event]events.Filter
}

// NewBroadcaster starts a broadcaster that reads from upstream and fans out to
// all subscribers. It stops when ctx is cancelled or upstream is closed.
func NewBroadcaster(ctx context.Context, upstream <-chan events.Event) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[chan events.Event]events.Filter),
	}
	go b.run(ctx, upstream)
	return b
}

// SubscribeFunc registers a subscriber receiving the events f passes. A nil
// f passes everything.
func (b *Broadcaster) SubscribeFunc(f events.Filter) chan events.Event {
	ch := make(chan events.Event, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = f
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan events.Event) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *Broadcaster) broadcast(e events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, f := range b.clients {
		if f != nil && !f(e) {
			continue
		}
		select {
		case ch <- e:
		default:
			logger.Warn("[sse] client channel full, dropping %s event", e.Type)
		}
	}
}

func (b *Broadcaster) run(ctx context.Context, upstream <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-upstream:
			if !ok {
				return
			}
			b.broadcast(e)
		}
	}
}
