package router

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/internal/query_server/handler"
	"github.com/retrospect-io/retrospect/internal/query_server/ws"
)
import "github.com/gorilla/mux"

func CreateRouter(
	ctx context.Context,
	collectorService collector.TraceCollectorService,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle(
		"/api/ping", handler.PingHandler(
			collectorService,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/api/spans", handler.IngestSpansHandler(
			ctx,
			collectorService,
			logger,
		),
	).Methods("POST")

	r.Handle(
		"/api/traces", handler.ListTracesHandler(
			ctx,
			collectorService,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/api/traces/stream", ws.StreamTracesHandler(
			collectorService,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/api/traces/{trace_id}", handler.GetTraceHandler(
			ctx,
			collectorService,
			logger,
		),
	).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
