package query

import (
	"context"
	"sort"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/trace_store"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

// TraceQueryService answers filtered listings over the store's current
// index. Read-only: aborting a caller mid-call has no effect on store
// state.
type TraceQueryService interface {
	ListTraces(ctx context.Context, filter model.TraceFilter) []model.TraceSummary
}

type TraceQueryServiceImpl struct {
	store        trace_store.TraceStore
	summaryCache *ristretto.Cache
	logger       *zap.Logger
}

// cachedSummary pins a summary to the trace revision it was computed
// from; a merge bumps the revision and invalidates the cached projection.
type cachedSummary struct {
	revision uint64
	summary  model.TraceSummary
}

func NewTraceQueryServiceImpl(
	store trace_store.TraceStore,
	logger *zap.Logger,
) *TraceQueryServiceImpl {
	summaryCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 16,
		MaxCost:     1 << 14,
		BufferItems: 64,
	})
	if err != nil {
		// Only reachable with an invalid hard-coded config.
		logger.Fatal("Failed to create summary cache", zap.Error(err))
	}
	return &TraceQueryServiceImpl{
		store:        store,
		summaryCache: summaryCache,
		logger:       logger,
	}
}

// ListTraces scans the store's current traces, projects each to a
// summary, keeps those matching every set filter predicate, sorts by
// start time descending, and truncates to the limit if one is set. The
// scan never holds a store-wide lock.
func (qs *TraceQueryServiceImpl) ListTraces(
	ctx context.Context,
	filter model.TraceFilter,
) []model.TraceSummary {
	var summaries []model.TraceSummary
	qs.store.ForEach(func(trace *model.Trace) {
		summary := qs.summarize(trace)
		if filter.Matches(summary) {
			summaries = append(summaries, summary)
		}
	})

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].StartTime != summaries[j].StartTime {
			return summaries[i].StartTime.After(summaries[j].StartTime)
		}
		return summaries[i].TraceID.String() < summaries[j].TraceID.String()
	})

	if filter.Limit != nil && len(summaries) > *filter.Limit {
		summaries = summaries[:*filter.Limit]
	}
	return summaries
}

func (qs *TraceQueryServiceImpl) summarize(trace *model.Trace) model.TraceSummary {
	key := trace.TraceID.String()
	if value, found := qs.summaryCache.Get(key); found {
		if cached, ok := value.(cachedSummary); ok && cached.revision == trace.Revision {
			return cached.summary
		}
	}

	summary := model.TraceSummary{
		TraceID:    trace.TraceID,
		StartTime:  trace.StartTime,
		SpanCount:  trace.SpanCount(),
		HasErrors:  trace.HasErrors(),
		Incomplete: trace.Incomplete,
		Type:       trace.Type,
	}
	if root, ok := trace.RootSpan(); ok {
		summary.RootSpanName = root.Name
		summary.ServiceName = root.ServiceName
	}
	if duration, ok := trace.DurationNanos(); ok {
		summary.DurationNanos = &duration
	}
	qs.summaryCache.Set(key, cachedSummary{revision: trace.Revision, summary: summary}, 1)
	return summary
}
