package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CollectorMetrics holds the process-wide instrumentation for the
// collector core.
type CollectorMetrics struct {
	SpansIngested     prometheus.Counter
	SpansRejected     prometheus.Counter
	ActiveTraces      prometheus.Gauge
	TracesEvicted     prometheus.Counter
	EventsPublished   prometheus.Counter
	EventsDropped     prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

func NewCollectorMetrics(registerer prometheus.Registerer) *CollectorMetrics {
	factory := promauto.With(registerer)
	return &CollectorMetrics{
		SpansIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrospect_spans_ingested_total",
			Help: "Spans accepted into the trace store.",
		}),
		SpansRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrospect_spans_rejected_total",
			Help: "Spans rejected as structurally invalid during ingest.",
		}),
		ActiveTraces: factory.NewGauge(prometheus.GaugeOpts{
			Name: "retrospect_active_traces",
			Help: "Traces currently resident in the store.",
		}),
		TracesEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrospect_traces_evicted_total",
			Help: "Traces removed by TTL eviction.",
		}),
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrospect_events_published_total",
			Help: "Trace lifecycle events published to the stream hub.",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "retrospect_events_dropped_total",
			Help: "Events dropped because a subscriber queue overflowed.",
		}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "retrospect_stream_subscribers",
			Help: "Live event stream subscribers.",
		}),
	}
}
