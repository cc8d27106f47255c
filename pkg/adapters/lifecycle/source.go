package lifecycle

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tickline/pkg/core"
)

type sessionSource struct {
	streams []<-chan core.Event
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that merges session and cache events.
// The output closes once every input stream is closed or the context ends.
func NewSource(streams ...<-chan core.Event) lifecycle.Source {
	return &sessionSource{
		streams: streams,
		out:     make(chan lifecycle.Event),
	}
}

func (s *sessionSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *sessionSource) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(len(s.streams))
	for _, events := range s.streams {
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer wg.Done()
			return s.forward(ctx, events)
		})
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		wg.Wait()
		close(s.out)
		return nil
	})
	return nil
}

func (s *sessionSource) forward(ctx context.Context, events <-chan core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			// core.Event satisfies lifecycle.Event through String().
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
