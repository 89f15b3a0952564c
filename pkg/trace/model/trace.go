package model

type TraceType string

const (
	TraceTypeNormal TraceType = "normal"
	TraceTypeFast   TraceType = "fast"
	TraceTypeSlow   TraceType = "slow"
	TraceTypeError  TraceType = "error"
)

// Trace is the materialized view of all spans seen so far for one trace
// id. Spans are sorted by start time ascending, ties broken by span id.
// Incomplete marks a trace without exactly one root candidate; RootSpanID
// is then a best-effort placeholder (the earliest span). Revision counts
// mutations and backs cache invalidation; it is not part of the wire form.
type Trace struct {
	TraceID    TraceID    `json:"trace_id"`
	Spans      []Span     `json:"spans"`
	RootSpanID SpanID     `json:"root_span_id"`
	StartTime  Timestamp  `json:"start_time"`
	EndTime    *Timestamp `json:"end_time,omitempty"`
	Incomplete bool       `json:"incomplete"`
	Type       TraceType  `json:"trace_type,omitempty"`
	Revision   uint64     `json:"-"`
}

func (t *Trace) SpanCount() int {
	return len(t.Spans)
}

func (t *Trace) HasErrors() bool {
	for _, span := range t.Spans {
		if span.Status.IsError() {
			return true
		}
	}
	return false
}

// DurationNanos returns the total trace duration, or false while any span
// is still open.
func (t *Trace) DurationNanos() (uint64, bool) {
	if t.EndTime == nil {
		return 0, false
	}
	return t.EndTime.Sub(t.StartTime), true
}

func (t *Trace) RootSpan() (Span, bool) {
	for _, span := range t.Spans {
		if span.SpanID == t.RootSpanID {
			return span, true
		}
	}
	return Span{}, false
}

// Children returns the spans whose parent is the given span id, in
// assembled order.
func (t *Trace) Children(spanID SpanID) []Span {
	var children []Span
	for _, span := range t.Spans {
		if span.ParentSpanID != nil && *span.ParentSpanID == spanID {
			children = append(children, span)
		}
	}
	return children
}

// Completed reports whether the trace has an unambiguous root and no span
// still open. Stragglers that never arrive are handled by TTL eviction,
// not by this predicate.
func (t *Trace) Completed() bool {
	if t.Incomplete {
		return false
	}
	for _, span := range t.Spans {
		if span.EndTime == nil {
			return false
		}
	}
	return len(t.Spans) > 0
}

// Clone returns a deep copy sharing no mutable state with the original.
func (t *Trace) Clone() *Trace {
	clone := *t
	if t.EndTime != nil {
		end := *t.EndTime
		clone.EndTime = &end
	}
	clone.Spans = make([]Span, len(t.Spans))
	for i, span := range t.Spans {
		clone.Spans[i] = span.Clone()
	}
	return &clone
}

// TraceSummary is the read-only projection of a trace used for listings.
type TraceSummary struct {
	TraceID       TraceID   `json:"trace_id"`
	RootSpanName  string    `json:"root_span_name"`
	ServiceName   string    `json:"service_name"`
	StartTime     Timestamp `json:"start_time"`
	DurationNanos *uint64   `json:"duration_nanos,omitempty"`
	SpanCount     int       `json:"span_count"`
	HasErrors     bool      `json:"has_errors"`
	Incomplete    bool      `json:"incomplete"`
	Type          TraceType `json:"trace_type"`
}
