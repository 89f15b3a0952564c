package event_bus

import (
	"fmt"

	"github.com/asaskevich/EventBus"
)

// TraceLifecycleTopic carries every trace lifecycle event. A single topic
// keeps events for one trace in generation order end to end.
const TraceLifecycleTopic = "trace.lifecycle"

// TraceEventBus decouples the store's mutation path from its consumers.
// Dispatch is synchronous: Publish runs every handler inline, so handlers
// must never block. Anything slow belongs behind a bounded queue on the
// subscriber side.
type TraceEventBus[EventType any] interface {
	Subscribe(topic string, handler func(event EventType)) error
	Publish(topic string, event EventType)
}

type TraceEventBusImpl[EventType any] struct {
	eventBus EventBus.Bus
}

func NewTraceEventBus[EventType any](eventBus EventBus.Bus) TraceEventBus[EventType] {
	return &TraceEventBusImpl[EventType]{
		eventBus: eventBus,
	}
}

func (ev *TraceEventBusImpl[EventType]) Subscribe(
	topic string,
	handler func(event EventType),
) error {
	err := ev.eventBus.Subscribe(topic, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (ev *TraceEventBusImpl[EventType]) Publish(topic string, event EventType) {
	ev.eventBus.Publish(topic, event)
}
