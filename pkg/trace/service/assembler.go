package service

import (
	"errors"
	"sort"

	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

var (
	// ErrEmptyBatch is returned when a trace is assembled from no spans.
	ErrEmptyBatch = errors.New("cannot assemble a trace from an empty span batch")
	// ErrMixedTraceIDs is returned when one assembly call receives spans
	// from more than one trace. This is a caller bug, not a runtime
	// condition to tolerate.
	ErrMixedTraceIDs = errors.New("span batch contains spans from multiple traces")
)

// AssembleTrace builds a trace from a flat batch of spans sharing one
// trace id. A batch without exactly one root candidate is a normal
// transient state under out-of-order ingestion: the trace is flagged
// incomplete with the earliest span as placeholder root, never rejected.
func AssembleTrace(spans []model.Span) (*model.Trace, error) {
	if len(spans) == 0 {
		return nil, ErrEmptyBatch
	}
	traceID := spans[0].TraceID
	for _, span := range spans[1:] {
		if span.TraceID != traceID {
			return nil, ErrMixedTraceIDs
		}
	}
	return buildTrace(traceID, mergeBySpanID(nil, spans)), nil
}

// MergeTrace merges an incoming batch into an existing trace and returns
// the re-assembled result. The span id is the merge key: a span ingested
// twice keeps the newest attributes, status, and end time (last write
// wins). Merging is commutative over the full span set even though
// individual batches are not.
func MergeTrace(existing *model.Trace, incoming []model.Span) (*model.Trace, error) {
	for _, span := range incoming {
		if span.TraceID != existing.TraceID {
			return nil, ErrMixedTraceIDs
		}
	}
	return buildTrace(existing.TraceID, mergeBySpanID(existing.Spans, incoming)), nil
}

func mergeBySpanID(existing []model.Span, incoming []model.Span) []model.Span {
	merged := make(map[model.SpanID]model.Span, len(existing)+len(incoming))
	for _, span := range existing {
		merged[span.SpanID] = span
	}
	for _, span := range incoming {
		merged[span.SpanID] = span
	}
	spans := make([]model.Span, 0, len(merged))
	for _, span := range merged {
		spans = append(spans, span)
	}
	return spans
}

func buildTrace(traceID model.TraceID, spans []model.Span) *model.Trace {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartTime != spans[j].StartTime {
			return spans[i].StartTime.Before(spans[j].StartTime)
		}
		return spans[i].SpanID.Less(spans[j].SpanID)
	})

	var rootCandidates []model.SpanID
	for _, span := range spans {
		if span.IsRoot() {
			rootCandidates = append(rootCandidates, span.SpanID)
		}
	}
	rootSpanID := spans[0].SpanID
	incomplete := len(rootCandidates) != 1
	if !incomplete {
		rootSpanID = rootCandidates[0]
	}

	var endTime *model.Timestamp
	for _, span := range spans {
		if span.EndTime == nil {
			endTime = nil
			break
		}
		if endTime == nil || span.EndTime.After(*endTime) {
			end := *span.EndTime
			endTime = &end
		}
	}

	return &model.Trace{
		TraceID:    traceID,
		Spans:      spans,
		RootSpanID: rootSpanID,
		StartTime:  spans[0].StartTime,
		EndTime:    endTime,
		Incomplete: incomplete,
	}
}
