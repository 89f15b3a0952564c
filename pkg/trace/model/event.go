package model

type TraceEventType string

const (
	EventTraceCreated   TraceEventType = "trace_created"
	EventSpanAdded      TraceEventType = "span_added"
	EventTraceCompleted TraceEventType = "trace_completed"
)

// TraceEvent is a lifecycle notification published on the store's
// mutation path. SpanID is set only for span_added. Events are best
// effort: subscribers that connect late never see earlier events.
type TraceEvent struct {
	Type      TraceEventType `json:"type"`
	TraceID   TraceID        `json:"trace_id"`
	SpanID    *SpanID        `json:"span_id,omitempty"`
	Timestamp Timestamp      `json:"timestamp"`
}
