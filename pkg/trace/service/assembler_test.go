package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

func TestAssembleTrace(t *testing.T) {
	t.Run("Fails on an empty batch", func(t *testing.T) {
		_, err := AssembleTrace(nil)
		assert.Equal(t, ErrEmptyBatch, err)
	})

	t.Run("Fails on mixed trace ids", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 10),
			newSpan(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "2222222222222222", "", 5, 15),
		}
		_, err := AssembleTrace(spans)
		assert.Equal(t, ErrMixedTraceIDs, err)
	})

	t.Run("Computes bounds and root from a complete batch", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 50),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "3333333333333333", "1111111111111111", 20, 80),
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		assert.False(t, trace.Incomplete)
		assert.Equal(t, "1111111111111111", trace.RootSpanID.String())
		assert.Equal(t, model.Timestamp(0), trace.StartTime)
		assert.Equal(t, model.Timestamp(100), *trace.EndTime)
		assert.Equal(t, 3, trace.SpanCount())
		// Sorted by start time ascending.
		assert.Equal(t, "1111111111111111", trace.Spans[0].SpanID.String())
		assert.Equal(t, "2222222222222222", trace.Spans[1].SpanID.String())
	})

	t.Run("End time is absent while any span is open", func(t *testing.T) {
		open := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 0)
		open.EndTime = nil
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
			open,
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		assert.Nil(t, trace.EndTime)
		assert.False(t, trace.Completed())
	})

	t.Run("Missing root flags the trace incomplete instead of failing", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "3333333333333333", "1111111111111111", 20, 40),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 50),
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		assert.True(t, trace.Incomplete)
		// Placeholder root is the earliest span.
		assert.Equal(t, "2222222222222222", trace.RootSpanID.String())
	})

	t.Run("Multiple root candidates flag the trace incomplete", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "", 10, 50),
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		assert.True(t, trace.Incomplete)
	})

	t.Run("Start time ties break by span id for determinism", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 20),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 10, 20),
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		assert.Equal(t, "1111111111111111", trace.Spans[0].SpanID.String())
		assert.Equal(t, "2222222222222222", trace.Spans[1].SpanID.String())
	})

	t.Run("Children are returned in assembled order", func(t *testing.T) {
		spans := []model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "3333333333333333", "1111111111111111", 20, 80),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 50),
		}
		trace, err := AssembleTrace(spans)
		assert.Nil(t, err)
		children := trace.Children(trace.RootSpanID)
		assert.Len(t, children, 2)
		assert.Equal(t, "2222222222222222", children[0].SpanID.String())
		assert.Equal(t, "3333333333333333", children[1].SpanID.String())
	})
}

func TestMergeTrace(t *testing.T) {
	t.Run("Re-ingesting a span id keeps the newest version", func(t *testing.T) {
		first := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100)
		first.Attributes = model.Attributes{"attempt": model.IntValue(1)}
		trace, err := AssembleTrace([]model.Span{first})
		assert.Nil(t, err)

		second := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100)
		second.Attributes = model.Attributes{"attempt": model.IntValue(2)}
		second.Status = model.ErrorStatus("boom")
		merged, err := MergeTrace(trace, []model.Span{second})
		assert.Nil(t, err)

		assert.Equal(t, 1, merged.SpanCount())
		assert.Equal(t, model.IntValue(2), merged.Spans[0].Attributes["attempt"])
		assert.True(t, merged.HasErrors())
	})

	t.Run("Merging batches in either order yields the same trace", func(t *testing.T) {
		root := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100)
		childA := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 50)
		childB := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "3333333333333333", "1111111111111111", 20, 80)

		forward, err := AssembleTrace([]model.Span{root, childA})
		assert.Nil(t, err)
		forward, err = MergeTrace(forward, []model.Span{childB})
		assert.Nil(t, err)

		backward, err := AssembleTrace([]model.Span{childB})
		assert.Nil(t, err)
		backward, err = MergeTrace(backward, []model.Span{root, childA})
		assert.Nil(t, err)

		assert.Equal(t, forward, backward)
	})

	t.Run("Rejects spans from another trace", func(t *testing.T) {
		trace, err := AssembleTrace([]model.Span{
			newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
		})
		assert.Nil(t, err)
		_, err = MergeTrace(trace, []model.Span{
			newSpan(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "2222222222222222", "", 0, 100),
		})
		assert.Equal(t, ErrMixedTraceIDs, err)
	})

	t.Run("A late root resolves a previously incomplete trace", func(t *testing.T) {
		child := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "2222222222222222", "1111111111111111", 10, 50)
		trace, err := AssembleTrace([]model.Span{child})
		assert.Nil(t, err)
		assert.True(t, trace.Incomplete)

		root := newSpan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100)
		merged, err := MergeTrace(trace, []model.Span{root})
		assert.Nil(t, err)
		assert.False(t, merged.Incomplete)
		assert.Equal(t, "1111111111111111", merged.RootSpanID.String())
		assert.True(t, merged.Completed())
	})
}

// newSpan builds a closed span; pass endNanos 0 together with a manual
// EndTime override to model an open span.
func newSpan(
	t *testing.T,
	traceID string,
	spanID string,
	parentSpanID string,
	startNanos uint64,
	endNanos uint64,
) model.Span {
	t.Helper()
	tid, err := model.TraceIDFromString(traceID)
	assert.Nil(t, err)
	sid, err := model.SpanIDFromString(spanID)
	assert.Nil(t, err)
	span := model.Span{
		TraceID:     tid,
		SpanID:      sid,
		Name:        "operation",
		ServiceName: "test-service",
		StartTime:   model.Timestamp(startNanos),
		Status:      model.OkStatus(),
	}
	if parentSpanID != "" {
		pid, err := model.SpanIDFromString(parentSpanID)
		assert.Nil(t, err)
		span.ParentSpanID = &pid
	}
	end := model.Timestamp(endNanos)
	span.EndTime = &end
	return span
}
