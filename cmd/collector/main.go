package main

import (
	"context"
	"net"
	"net/http"

	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/internal/config"
	"github.com/retrospect-io/retrospect/internal/metrics"
	traceServer "github.com/retrospect-io/retrospect/internal/otel_server/trace/server"
	"github.com/retrospect-io/retrospect/internal/query"
	"github.com/retrospect-io/retrospect/internal/query_server/router"
	"github.com/retrospect-io/retrospect/internal/seed"
	"github.com/retrospect-io/retrospect/internal/stream"
	"github.com/retrospect-io/retrospect/internal/trace_store"
	"github.com/retrospect-io/retrospect/pkg/event_bus"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
	"github.com/retrospect-io/retrospect/pkg/trace/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	opts := config.Options{}
	opts.InitFromViper(viper.New())
	cfg := opts.Configuration

	collectorMetrics := metrics.NewCollectorMetrics(prometheus.DefaultRegisterer)
	bus := event_bus.NewTraceEventBus[model.TraceEvent](EventBus.New())
	hub := stream.NewHub(cfg.SubscriberQueueSize, bus, collectorMetrics, logger)

	store := trace_store.NewTraceStoreImpl(trace_store.Params{
		TTL:           cfg.TraceTTL,
		SweepInterval: cfg.SweepInterval,
		Thresholds: service.ClassificationThresholds{
			Slow: cfg.SlowThreshold,
			Fast: cfg.FastThreshold,
		},
		Bus:     bus,
		Metrics: collectorMetrics,
		Logger:  logger,
	})
	defer store.Shutdown()

	queryService := query.NewTraceQueryServiceImpl(store, logger)
	collectorService := collector.NewTraceCollectorServiceImpl(store, queryService, hub, logger)

	ctx := context.Background()
	if cfg.SeedDemoData {
		seed.LoadSeedData(ctx, collectorService, logger)
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("Failed to listen on gRPC address", zap.Error(err))
	}

	srv := grpc.NewServer()
	traceServiceServer := traceServer.NewTraceServiceServerImpl(logger, collectorService)
	protoTrace.RegisterTraceServiceServer(srv, traceServiceServer)
	go func() {
		logger.Info("gRPC ingest started, listening for OpenTelemetry traces...",
			zap.String("addr", cfg.GRPCAddr),
		)
		if err := srv.Serve(listener); err != nil {
			logger.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	r := router.CreateRouter(ctx, collectorService, logger)
	logger.Info("Starting query server", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		logger.Fatal("Failed to serve: %v", zap.Error(err))
	}
}
