package trace_store

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/metrics"
	"github.com/retrospect-io/retrospect/pkg/event_bus"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
	"github.com/retrospect-io/retrospect/pkg/trace/service"
)

const shardCount = 16

// TraceStore is the authoritative, mutable, concurrent index of in-flight
// and recently completed traces. It exclusively owns every trace value;
// callers always receive deep copies.
type TraceStore interface {
	// Ingest partitions the batch by trace id, merges each partition into
	// its trace entry (creating it if absent), stamps the entry's
	// last-modified time, and publishes lifecycle events. Returns the
	// number of spans accepted; only structurally invalid spans (missing
	// an id) are dropped.
	Ingest(spans []model.Span) int
	// Get returns a snapshot copy of the trace, or false if the id was
	// never ingested or has been evicted.
	Get(traceID model.TraceID) (*model.Trace, bool)
	// ForEach calls fn once per resident trace under that entry's lock.
	// No lock spans the whole scan, so ingestion of unrelated traces is
	// never stalled. fn must not retain or mutate the trace.
	ForEach(fn func(trace *model.Trace))
	// EvictExpired removes every trace whose last-modified time plus the
	// TTL is at or before now, and returns how many were removed. The
	// background sweeper calls this with the store clock; tests may call
	// it directly with any now.
	EvictExpired(now time.Time) int
	// Shutdown stops the background sweeper. The index stays readable.
	Shutdown()
}

type Params struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Thresholds    service.ClassificationThresholds
	Clock         clockz.Clock
	Bus           event_bus.TraceEventBus[model.TraceEvent]
	Metrics       *metrics.CollectorMetrics
	Logger        *zap.Logger
}

type TraceStoreImpl struct {
	shards     [shardCount]*storeShard
	ttl        time.Duration
	thresholds service.ClassificationThresholds
	clock      clockz.Clock
	bus        event_bus.TraceEventBus[model.TraceEvent]
	metrics    *metrics.CollectorMetrics
	logger     *zap.Logger
	stopOnce   sync.Once
	stopCh     chan struct{}
	sweeperDone chan struct{}
}

type storeShard struct {
	mu      sync.RWMutex
	entries map[model.TraceID]*traceEntry
}

// traceEntry serializes concurrent merges for one trace id. The evicted
// flag closes the window between looking an entry up under the shard lock
// and locking the entry itself.
type traceEntry struct {
	mu           sync.Mutex
	trace        *model.Trace
	lastModified time.Time
	completed    bool
	revision     uint64
	evicted      bool
}

func NewTraceStoreImpl(params Params) *TraceStoreImpl {
	clock := params.Clock
	if clock == nil {
		clock = clockz.RealClock
	}
	ts := &TraceStoreImpl{
		ttl:         params.TTL,
		thresholds:  params.Thresholds,
		clock:       clock,
		bus:         params.Bus,
		metrics:     params.Metrics,
		logger:      params.Logger,
		stopCh:      make(chan struct{}),
		sweeperDone: make(chan struct{}),
	}
	for i := range ts.shards {
		ts.shards[i] = &storeShard{entries: make(map[model.TraceID]*traceEntry)}
	}
	if params.SweepInterval > 0 {
		go ts.runSweeper(params.SweepInterval)
	} else {
		close(ts.sweeperDone)
	}
	return ts
}

func (ts *TraceStoreImpl) Ingest(spans []model.Span) int {
	grouped, rejected := groupSpansByTraceID(spans)
	if rejected > 0 {
		ts.logger.Warn("Dropped structurally invalid spans during ingest",
			zap.Int("rejected", rejected),
		)
		ts.metrics.SpansRejected.Add(float64(rejected))
	}
	accepted := 0
	for traceID, group := range grouped {
		accepted += ts.ingestGroup(traceID, group)
	}
	ts.metrics.SpansIngested.Add(float64(accepted))
	return accepted
}

func (ts *TraceStoreImpl) ingestGroup(traceID model.TraceID, group []model.Span) int {
	entry := ts.lockEntry(traceID)
	defer entry.mu.Unlock()

	// Checked under the entry lock so the first merge, not the map
	// insert, decides who announces the trace. Keeps TraceCreated ahead
	// of any SpanAdded for the same trace.
	created := entry.trace == nil

	var merged *model.Trace
	var err error
	if created {
		merged, err = service.AssembleTrace(group)
	} else {
		merged, err = service.MergeTrace(entry.trace, group)
	}
	if err != nil {
		// Unreachable: partitioning guarantees a non-empty single-trace
		// group. Drop the group rather than crash if it ever happens.
		ts.logger.Error("Failed to merge span group",
			zap.String("trace_id", traceID.String()),
			zap.Error(err),
		)
		return 0
	}

	wasCompleted := entry.completed
	entry.trace = merged
	entry.revision++
	merged.Revision = entry.revision
	now := ts.clock.Now()
	entry.lastModified = now

	eventTime := model.TimestampFromTime(now)
	if created {
		ts.publish(model.TraceEvent{
			Type:      model.EventTraceCreated,
			TraceID:   traceID,
			Timestamp: eventTime,
		})
	}
	for _, span := range group {
		spanID := span.SpanID
		ts.publish(model.TraceEvent{
			Type:      model.EventSpanAdded,
			TraceID:   traceID,
			SpanID:    &spanID,
			Timestamp: eventTime,
		})
	}
	if merged.Completed() {
		if !wasCompleted {
			entry.completed = true
			ts.publish(model.TraceEvent{
				Type:      model.EventTraceCompleted,
				TraceID:   traceID,
				Timestamp: eventTime,
			})
		}
	} else {
		// A late open span reopens the trace; completion fires again when
		// it closes.
		entry.completed = false
	}
	return len(group)
}

// lockEntry returns the entry for the trace id with its mutex held,
// creating it if absent. Retries if the sweeper evicted the entry between
// lookup and lock.
func (ts *TraceStoreImpl) lockEntry(traceID model.TraceID) *traceEntry {
	shard := ts.shardFor(traceID)
	for {
		shard.mu.Lock()
		entry, ok := shard.entries[traceID]
		if !ok {
			entry = &traceEntry{}
			shard.entries[traceID] = entry
			ts.metrics.ActiveTraces.Inc()
		}
		shard.mu.Unlock()

		entry.mu.Lock()
		if entry.evicted {
			entry.mu.Unlock()
			continue
		}
		return entry
	}
}

func (ts *TraceStoreImpl) Get(traceID model.TraceID) (*model.Trace, bool) {
	shard := ts.shardFor(traceID)
	shard.mu.RLock()
	entry, ok := shard.entries[traceID]
	shard.mu.RUnlock()
	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.evicted || entry.trace == nil {
		return nil, false
	}
	snapshot := entry.trace.Clone()
	snapshot.Type = service.ClassifyTrace(snapshot, ts.thresholds)
	return snapshot, true
}

func (ts *TraceStoreImpl) ForEach(fn func(trace *model.Trace)) {
	for _, shard := range ts.shards {
		shard.mu.RLock()
		entries := make([]*traceEntry, 0, len(shard.entries))
		for _, entry := range shard.entries {
			entries = append(entries, entry)
		}
		shard.mu.RUnlock()

		for _, entry := range entries {
			entry.mu.Lock()
			if !entry.evicted && entry.trace != nil {
				entry.trace.Type = service.ClassifyTrace(entry.trace, ts.thresholds)
				fn(entry.trace)
			}
			entry.mu.Unlock()
		}
	}
}

func (ts *TraceStoreImpl) EvictExpired(now time.Time) int {
	removed := 0
	for _, shard := range ts.shards {
		shard.mu.Lock()
		for traceID, entry := range shard.entries {
			entry.mu.Lock()
			if !entry.lastModified.Add(ts.ttl).After(now) {
				entry.evicted = true
				delete(shard.entries, traceID)
				removed++
			}
			entry.mu.Unlock()
		}
		shard.mu.Unlock()
	}
	if removed > 0 {
		ts.metrics.TracesEvicted.Add(float64(removed))
		ts.metrics.ActiveTraces.Sub(float64(removed))
		ts.logger.Info("Evicted expired traces", zap.Int("count", removed))
	}
	return removed
}

func (ts *TraceStoreImpl) Shutdown() {
	ts.stopOnce.Do(func() {
		close(ts.stopCh)
	})
	<-ts.sweeperDone
}

func (ts *TraceStoreImpl) runSweeper(interval time.Duration) {
	defer close(ts.sweeperDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ts.stopCh:
			return
		case <-ticker.C:
			ts.EvictExpired(ts.clock.Now())
		}
	}
}

func (ts *TraceStoreImpl) publish(event model.TraceEvent) {
	if ts.bus == nil {
		return
	}
	ts.bus.Publish(event_bus.TraceLifecycleTopic, event)
}

func (ts *TraceStoreImpl) shardFor(traceID model.TraceID) *storeShard {
	return ts.shards[int(traceID[0])%shardCount]
}

func groupSpansByTraceID(spans []model.Span) (map[model.TraceID][]model.Span, int) {
	grouped := make(map[model.TraceID][]model.Span)
	rejected := 0
	for _, span := range spans {
		if span.TraceID.IsZero() || span.SpanID.IsZero() {
			rejected++
			continue
		}
		grouped[span.TraceID] = append(grouped[span.TraceID], span)
	}
	return grouped, rejected
}
