package model

type SpanStatusCode string

const (
	StatusCodeOk    SpanStatusCode = "ok"
	StatusCodeError SpanStatusCode = "error"
)

// SpanStatus is final once set on a span; there are no intermediate states.
type SpanStatus struct {
	Code    SpanStatusCode `json:"code"`
	Message string         `json:"message,omitempty"`
}

func OkStatus() SpanStatus {
	return SpanStatus{Code: StatusCodeOk}
}

func ErrorStatus(message string) SpanStatus {
	return SpanStatus{Code: StatusCodeError, Message: message}
}

func (s SpanStatus) IsError() bool {
	return s.Code == StatusCodeError
}

// SpanEvent is a point-in-time annotation attached to a span. Immutable
// once attached.
type SpanEvent struct {
	Name       string     `json:"name"`
	Timestamp  Timestamp  `json:"timestamp"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Span is one timed operation within a trace. A nil ParentSpanID marks a
// root candidate. A nil EndTime means the operation is still in flight.
// ParentSpanID may reference a span that has not arrived yet; out-of-order
// ingestion is expected and is not an error.
type Span struct {
	TraceID      TraceID     `json:"trace_id"`
	SpanID       SpanID      `json:"span_id"`
	ParentSpanID *SpanID     `json:"parent_span_id,omitempty"`
	Name         string      `json:"name"`
	ServiceName  string      `json:"service_name"`
	StartTime    Timestamp   `json:"start_time"`
	EndTime      *Timestamp  `json:"end_time,omitempty"`
	Attributes   Attributes  `json:"attributes,omitempty"`
	Events       []SpanEvent `json:"events,omitempty"`
	Status       SpanStatus  `json:"status"`
}

func (s Span) IsRoot() bool {
	return s.ParentSpanID == nil
}

// DurationNanos returns the span duration, or false if the span is still
// open. Saturates at zero when the end precedes the start.
func (s Span) DurationNanos() (uint64, bool) {
	if s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// Clone returns a deep copy sharing no mutable state with the original.
func (s Span) Clone() Span {
	clone := s
	if s.ParentSpanID != nil {
		parent := *s.ParentSpanID
		clone.ParentSpanID = &parent
	}
	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}
	clone.Attributes = s.Attributes.Clone()
	if s.Events != nil {
		clone.Events = make([]SpanEvent, len(s.Events))
		for i, event := range s.Events {
			clone.Events[i] = event
			clone.Events[i].Attributes = event.Attributes.Clone()
		}
	}
	return clone
}
