// Package lifecycle bridges ledger change events into the lifecycle event loop.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/noteledger/pkg/core"
)

// Change reports that the stored ledger changed. Events arriving while the
// previous Change is still unread are folded into it, since a consumer
// reloads the whole ledger anyway.
type Change struct {
	Last  core.Event
	Count int
}

func (c Change) String() string {
	if c.Count <= 1 {
		return c.Last.String()
	}
	return fmt.Sprintf("%s (+%d earlier)", c.Last, c.Count-1)
}

// Source emits a Change for every burst of ledger events.
type Source struct {
	events <-chan core.Event
	types  map[core.EventType]bool
	out    chan lifecycle.Event
}

// NewSource creates a Source over events. When types are given, other
// event types are dropped.
func NewSource(events <-chan core.Event, types ...core.EventType) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	if len(types) > 0 {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	return s
}

func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards changes until ctx is done or the ledger channel closes.
// A pending change is still delivered after the input closes.
func (s *Source) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		in := s.events
		var pending *Change
		for {
			if in == nil && pending == nil {
				return nil
			}
			var out chan lifecycle.Event
			var next lifecycle.Event
			if pending != nil {
				out, next = s.out, *pending
			}
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				if s.types != nil && !s.types[e.Type] {
					continue
				}
				if pending == nil {
					pending = &Change{}
				}
				pending.Last = e
				pending.Count++
			case out <- next:
				pending = nil
			}
		}
	})
	return nil
}

var _ lifecycle.Source = (*Source)(nil)
