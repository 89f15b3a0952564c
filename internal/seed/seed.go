// Package seed loads a handful of demo traces through the normal ingest
// path, so dashboards have realistic data to render without a running
// instrumented client.
package seed

import (
	"context"

	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

func LoadSeedData(
	ctx context.Context,
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) {
	spans := generateSeedSpans(model.Now())
	accepted := cs.IngestSpans(ctx, spans)
	logger.Info("Loaded seed traces", zap.Int("spans", accepted))
}

func generateSeedSpans(now model.Timestamp) []model.Span {
	var spans []model.Span

	// Fast successful HTTP request.
	{
		traceID := mustTraceID("a1b2c3d4e5f6789012345678901234ab")
		rootID := mustSpanID("1234567890abcdef")
		start := now - 50_000_000
		spans = append(spans,
			model.Span{
				TraceID:     traceID,
				SpanID:      rootID,
				Name:        "GET /api/users",
				ServiceName: "api-gateway",
				StartTime:   start,
				EndTime:     at(start + 12_000_000),
				Attributes: model.Attributes{
					"http.method":      model.StringValue("GET"),
					"http.url":         model.StringValue("/api/users"),
					"http.status_code": model.IntValue(200),
				},
				Status: model.OkStatus(),
			},
			model.Span{
				TraceID:      traceID,
				SpanID:       mustSpanID("abcdef1234567890"),
				ParentSpanID: &rootID,
				Name:         "db.query users",
				ServiceName:  "api-gateway",
				StartTime:    start + 2_000_000,
				EndTime:      at(start + 10_000_000),
				Attributes: model.Attributes{
					"db.system":    model.StringValue("postgresql"),
					"db.statement": model.StringValue("SELECT * FROM users LIMIT 10"),
				},
				Status: model.OkStatus(),
			},
		)
	}

	// Slow request stuck behind a database transaction.
	{
		traceID := mustTraceID("deadbeef12345678901234567890abcd")
		rootID := mustSpanID("fedcba9876543210")
		start := now - 2_500_000_000
		spans = append(spans,
			model.Span{
				TraceID:     traceID,
				SpanID:      rootID,
				Name:        "POST /api/orders",
				ServiceName: "order-service",
				StartTime:   start,
				EndTime:     at(start + 2_345_000_000),
				Attributes: model.Attributes{
					"http.method":      model.StringValue("POST"),
					"http.url":         model.StringValue("/api/orders"),
					"http.status_code": model.IntValue(200),
				},
				Status: model.OkStatus(),
			},
			model.Span{
				TraceID:      traceID,
				SpanID:       mustSpanID("1111222233334444"),
				ParentSpanID: &rootID,
				Name:         "db.transaction",
				ServiceName:  "order-service",
				StartTime:    start + 50_000_000,
				EndTime:      at(start + 2_340_000_000),
				Attributes: model.Attributes{
					"db.system":    model.StringValue("postgresql"),
					"db.operation": model.StringValue("INSERT"),
				},
				Events: []model.SpanEvent{
					{
						Name:      "lock.acquired",
						Timestamp: start + 2_000_000_000,
						Attributes: model.Attributes{
							"lock.wait_ms": model.IntValue(1950),
						},
					},
				},
				Status: model.OkStatus(),
			},
		)
	}

	// Failed request with an errored downstream call.
	{
		traceID := mustTraceID("0badc0de0badc0de0badc0de0badc0de")
		rootID := mustSpanID("aaaabbbbccccdddd")
		start := now - 800_000_000
		spans = append(spans,
			model.Span{
				TraceID:     traceID,
				SpanID:      rootID,
				Name:        "GET /api/checkout",
				ServiceName: "checkout-service",
				StartTime:   start,
				EndTime:     at(start + 95_000_000),
				Attributes: model.Attributes{
					"http.method":      model.StringValue("GET"),
					"http.status_code": model.IntValue(502),
				},
				Status: model.ErrorStatus("upstream payment provider unavailable"),
			},
			model.Span{
				TraceID:      traceID,
				SpanID:       mustSpanID("eeeeffff00001111"),
				ParentSpanID: &rootID,
				Name:         "payment.authorize",
				ServiceName:  "payment-service",
				StartTime:    start + 5_000_000,
				EndTime:      at(start + 90_000_000),
				Attributes: model.Attributes{
					"retry":            model.BoolValue(true),
					"payment.provider": model.StringValue("acme-pay"),
				},
				Status: model.ErrorStatus("connection refused"),
			},
		)
	}

	// In-flight trace whose root has not closed yet.
	{
		traceID := mustTraceID("cafebabecafebabecafebabecafebabe")
		rootID := mustSpanID("0123456789abcdef")
		start := now - 150_000_000
		spans = append(spans,
			model.Span{
				TraceID:     traceID,
				SpanID:      rootID,
				Name:        "report.generate",
				ServiceName: "report-service",
				StartTime:   start,
				Attributes: model.Attributes{
					"report.rows":     model.IntValue(120000),
					"report.progress": model.FloatValue(0.4),
				},
				Status: model.OkStatus(),
			},
		)
	}

	return spans
}

func at(t model.Timestamp) *model.Timestamp {
	return &t
}

func mustTraceID(s string) model.TraceID {
	id, err := model.TraceIDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

func mustSpanID(s string) model.SpanID {
	id, err := model.SpanIDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}
