package core

import (
	"context"
	"log/slog"
	"sync"
)

// broker fans session events out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	size   int
	logger *slog.Logger
}

func newBroker(size int, logger *slog.Logger) *broker {
	return &broker{
		subs:   make(map[int]chan Event),
		size:   size,
		logger: logger,
	}
}

func (b *broker) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.size)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("dropping event for slow subscriber", "subscriber", id, "event", e.String())
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
