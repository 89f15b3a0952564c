package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/internal/metrics"
	"github.com/retrospect-io/retrospect/internal/query"
	"github.com/retrospect-io/retrospect/internal/stream"
	"github.com/retrospect-io/retrospect/internal/trace_store"
	"github.com/retrospect-io/retrospect/pkg/event_bus"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
	"github.com/retrospect-io/retrospect/pkg/trace/service"
)

func newHandlerRouter(t *testing.T) *mux.Router {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	collectorMetrics := metrics.NewCollectorMetrics(prometheus.NewRegistry())
	bus := event_bus.NewTraceEventBus[model.TraceEvent](EventBus.New())
	hub := stream.NewHub(64, bus, collectorMetrics, logger)
	store := trace_store.NewTraceStoreImpl(trace_store.Params{
		TTL:        time.Minute,
		Thresholds: service.DefaultThresholds(),
		Bus:        bus,
		Metrics:    collectorMetrics,
		Logger:     logger,
	})
	t.Cleanup(store.Shutdown)
	queryService := query.NewTraceQueryServiceImpl(store, logger)
	cs := collector.NewTraceCollectorServiceImpl(store, queryService, hub, logger)

	r := mux.NewRouter()
	r.HandleFunc("/api/ping", PingHandler(cs, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/spans", IngestSpansHandler(ctx, cs, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/traces", ListTracesHandler(ctx, cs, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/traces/{trace_id}", GetTraceHandler(ctx, cs, logger)).Methods(http.MethodGet)
	return r
}

func postSpans(t *testing.T, r *mux.Router, req IngestRequestDTO) IngestResponseDTO {
	t.Helper()
	body, err := json.Marshal(req)
	assert.Nil(t, err)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(
		http.MethodPost, "/api/spans", bytes.NewReader(body),
	))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp IngestResponseDTO
	err = json.NewDecoder(recorder.Body).Decode(&resp)
	assert.Nil(t, err)
	return resp
}

func ingestDTO(traceID, spanID, parentSpanID string, start, end uint64) SpanDTO {
	dto := SpanDTO{
		TraceID:        traceID,
		SpanID:         spanID,
		Name:           "handle-request",
		ServiceName:    "checkout",
		StartTimeNanos: start,
		EndTimeNanos:   &end,
		Status:         SpanStatusDTO{Code: string(model.StatusCodeOk)},
	}
	if parentSpanID != "" {
		dto.ParentSpanID = &parentSpanID
	}
	return dto
}

func TestPingHandler(t *testing.T) {
	t.Run("Responds with pong", func(t *testing.T) {
		r := newHandlerRouter(t)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		var resp PingResponseDTO
		err := json.NewDecoder(recorder.Body).Decode(&resp)
		assert.Nil(t, err)
		assert.Equal(t, "pong", resp.Message)
	})
}

func TestIngestSpansHandler(t *testing.T) {
	const tid = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	t.Run("Accepts a batch and reports the count", func(t *testing.T) {
		r := newHandlerRouter(t)
		resp := postSpans(t, r, IngestRequestDTO{Spans: []SpanDTO{
			ingestDTO(tid, "1111111111111111", "", 0, 100),
			ingestDTO(tid, "2222222222222222", "1111111111111111", 10, 60),
		}})
		assert.Equal(t, 2, resp.Accepted)
	})

	t.Run("Rejects a malformed span id with 400", func(t *testing.T) {
		r := newHandlerRouter(t)
		body, err := json.Marshal(IngestRequestDTO{Spans: []SpanDTO{
			ingestDTO(tid, "not-a-span-id", "", 0, 100),
		}})
		assert.Nil(t, err)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodPost, "/api/spans", bytes.NewReader(body),
		))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Rejects an unparseable payload with 400", func(t *testing.T) {
		r := newHandlerRouter(t)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodPost, "/api/spans", bytes.NewReader([]byte("{not json")),
		))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestGetTraceHandler(t *testing.T) {
	const tid = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	t.Run("Returns the assembled trace after ingest", func(t *testing.T) {
		r := newHandlerRouter(t)
		postSpans(t, r, IngestRequestDTO{Spans: []SpanDTO{
			ingestDTO(tid, "2222222222222222", "1111111111111111", 10, 60),
			ingestDTO(tid, "1111111111111111", "", 0, 100),
		}})

		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/traces/"+tid, nil))
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp GetTraceResponseDTO
		err := json.NewDecoder(recorder.Body).Decode(&resp)
		assert.Nil(t, err)
		assert.Equal(t, tid, resp.Trace.TraceID)
		assert.Equal(t, "1111111111111111", resp.Trace.RootSpanID)
		assert.False(t, resp.Trace.Incomplete)
		assert.Len(t, resp.Trace.Spans, 2)
		assert.Equal(t, "1111111111111111", resp.Trace.Spans[0].SpanID)
		assert.NotNil(t, resp.Trace.EndTimeNanos)
		assert.Equal(t, uint64(100), *resp.Trace.EndTimeNanos)
	})

	t.Run("Unknown trace id yields 404", func(t *testing.T) {
		r := newHandlerRouter(t)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodGet, "/api/traces/ffffffffffffffffffffffffffffffff", nil,
		))
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		var msg ErrorMessage
		err := json.NewDecoder(recorder.Body).Decode(&msg)
		assert.Nil(t, err)
		assert.Equal(t, "Trace not found", msg.Message)
	})

	t.Run("Malformed trace id yields 400", func(t *testing.T) {
		r := newHandlerRouter(t)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/traces/zzzz", nil))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestListTracesHandler(t *testing.T) {
	t.Run("Lists ingested traces with filters applied", func(t *testing.T) {
		r := newHandlerRouter(t)
		postSpans(t, r, IngestRequestDTO{Spans: []SpanDTO{
			ingestDTO("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "1111111111111111", "", 0, 100),
		}})
		failing := ingestDTO("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "3333333333333333", "", 200, 300)
		failing.Status = SpanStatusDTO{Code: string(model.StatusCodeError), Message: "boom"}
		postSpans(t, r, IngestRequestDTO{Spans: []SpanDTO{failing}})

		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/traces", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)

		var all ListTracesResponseDTO
		err := json.NewDecoder(recorder.Body).Decode(&all)
		assert.Nil(t, err)
		assert.Equal(t, 2, all.Total)
		// Newest first.
		assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", all.Traces[0].TraceID)

		recorder = httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodGet, "/api/traces?has_errors=true", nil,
		))
		var errored ListTracesResponseDTO
		err = json.NewDecoder(recorder.Body).Decode(&errored)
		assert.Nil(t, err)
		assert.Equal(t, 1, errored.Total)
		assert.True(t, errored.Traces[0].HasErrors)
		assert.Equal(t, string(model.TraceTypeError), errored.Traces[0].TraceType)
	})

	t.Run("Rejects malformed filter parameters with 400", func(t *testing.T) {
		r := newHandlerRouter(t)
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodGet, "/api/traces?min_duration_nanos=soon", nil,
		))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		recorder = httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(
			http.MethodGet, "/api/traces?limit=-1", nil,
		))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestFilterFromQuery(t *testing.T) {
	t.Run("Parses every supported parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/traces?service=checkout&min_duration_nanos=100&max_duration_nanos=2000&has_errors=false&limit=25",
			nil,
		)
		filter, err := filterFromQuery(req.URL.Query())
		assert.Nil(t, err)
		assert.Equal(t, "checkout", *filter.Service)
		assert.Equal(t, uint64(100), *filter.MinDurationNanos)
		assert.Equal(t, uint64(2000), *filter.MaxDurationNanos)
		assert.False(t, *filter.HasErrors)
		assert.Equal(t, 25, *filter.Limit)
	})

	t.Run("Leaves absent parameters unconstrained", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/traces", nil)
		filter, err := filterFromQuery(req.URL.Query())
		assert.Nil(t, err)
		assert.Nil(t, filter.Service)
		assert.Nil(t, filter.MinDurationNanos)
		assert.Nil(t, filter.MaxDurationNanos)
		assert.Nil(t, filter.HasErrors)
		assert.Nil(t, filter.Limit)
	})
}
