package stream

import (
	"sync"

	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/metrics"
	"github.com/retrospect-io/retrospect/pkg/event_bus"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

// Hub fans trace lifecycle events out to every active subscriber. Each
// subscriber owns a fixed-capacity queue; when it overflows the oldest
// buffered event is dropped so that a slow reader never blocks or slows
// the publishing ingest path.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	queueSize   int
	metrics     *metrics.CollectorMetrics
	logger      *zap.Logger
}

type subscriber struct {
	id     uint64
	mu     sync.Mutex
	events chan model.TraceEvent
	closed bool
}

func NewHub(
	queueSize int,
	bus event_bus.TraceEventBus[model.TraceEvent],
	collectorMetrics *metrics.CollectorMetrics,
	logger *zap.Logger,
) *Hub {
	if queueSize < 1 {
		queueSize = 1
	}
	hub := &Hub{
		subscribers: make(map[uint64]*subscriber),
		queueSize:   queueSize,
		metrics:     collectorMetrics,
		logger:      logger,
	}
	if bus != nil {
		if err := bus.Subscribe(event_bus.TraceLifecycleTopic, hub.Publish); err != nil {
			logger.Error("Failed to subscribe hub to lifecycle topic", zap.Error(err))
		}
	}
	return hub
}

// Subscribe registers a new subscriber. The subscription only sees events
// generated after this call; earlier events are never replayed.
func (h *Hub) Subscribe() *Subscription {
	sub := &subscriber{
		events: make(chan model.TraceEvent, h.queueSize),
	}
	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	h.metrics.StreamSubscribers.Inc()
	return &Subscription{hub: h, sub: sub}
}

// Publish delivers the event to every subscriber without ever blocking.
// Per-subscriber queues preserve publish order; overflow drops the oldest
// buffered event for that subscriber only.
func (h *Hub) Publish(event model.TraceEvent) {
	h.mu.RLock()
	subscribers := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subscribers = append(subscribers, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subscribers {
		if sub.push(event) {
			h.metrics.EventsDropped.Inc()
		}
	}
	h.metrics.EventsPublished.Inc()
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	_, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		h.metrics.StreamSubscribers.Dec()
	}
}

// push enqueues the event, evicting the oldest buffered event if the
// queue is full. The subscriber mutex serializes pushers, so the retry
// after an eviction always finds room. Reports whether anything was
// dropped.
func (s *subscriber) push(event model.TraceEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	dropped := false
	for {
		select {
		case s.events <- event:
			return dropped
		default:
		}
		select {
		case <-s.events:
			dropped = true
		default:
		}
	}
}
