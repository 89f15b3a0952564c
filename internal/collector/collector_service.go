package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/query"
	"github.com/retrospect-io/retrospect/internal/stream"
	"github.com/retrospect-io/retrospect/internal/trace_store"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

// TraceCollectorService is the boundary contract exposed to the
// transport shell: span ingest, point and filtered queries, the live
// event stream, and a liveness probe. Ingest is deliberately untraced so
// the collector never feeds spans about itself back into its own store.
type TraceCollectorService interface {
	IngestSpans(ctx context.Context, spans []model.Span) int
	GetTrace(ctx context.Context, traceID model.TraceID) (*model.Trace, bool)
	ListTraces(ctx context.Context, filter model.TraceFilter) []model.TraceSummary
	StreamTraces() *stream.Subscription
	Ping() string
}

type TraceCollectorServiceImpl struct {
	store  trace_store.TraceStore
	query  query.TraceQueryService
	hub    *stream.Hub
	logger *zap.Logger
}

func NewTraceCollectorServiceImpl(
	store trace_store.TraceStore,
	queryService query.TraceQueryService,
	hub *stream.Hub,
	logger *zap.Logger,
) *TraceCollectorServiceImpl {
	return &TraceCollectorServiceImpl{
		store:  store,
		query:  queryService,
		hub:    hub,
		logger: logger,
	}
}

func (cs *TraceCollectorServiceImpl) IngestSpans(ctx context.Context, spans []model.Span) int {
	accepted := cs.store.Ingest(spans)
	if accepted < len(spans) {
		cs.logger.Warn("Ingest accepted fewer spans than submitted",
			zap.Int("submitted", len(spans)),
			zap.Int("accepted", accepted),
		)
	}
	return accepted
}

func (cs *TraceCollectorServiceImpl) GetTrace(
	ctx context.Context,
	traceID model.TraceID,
) (*model.Trace, bool) {
	return cs.store.Get(traceID)
}

func (cs *TraceCollectorServiceImpl) ListTraces(
	ctx context.Context,
	filter model.TraceFilter,
) []model.TraceSummary {
	return cs.query.ListTraces(ctx, filter)
}

func (cs *TraceCollectorServiceImpl) StreamTraces() *stream.Subscription {
	return cs.hub.Subscribe()
}

func (cs *TraceCollectorServiceImpl) Ping() string {
	return "pong"
}
