package stream

import (
	"sync"

	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

// Subscription is one reader's handle on the live event stream. It stays
// open until Close, which promptly unregisters the subscriber and
// releases its queue.
type Subscription struct {
	hub       *Hub
	sub       *subscriber
	closeOnce sync.Once
}

// Events yields lifecycle events in publish order. The channel is closed
// by Close.
func (s *Subscription) Events() <-chan model.TraceEvent {
	return s.sub.events
}

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s.sub.id)
		s.sub.mu.Lock()
		s.sub.closed = true
		close(s.sub.events)
		s.sub.mu.Unlock()
	})
}
