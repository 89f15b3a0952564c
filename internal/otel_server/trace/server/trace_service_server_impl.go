package server

import (
	"context"

	protoTrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

const unknownServiceName = "unknown"

// TraceServiceServerImpl accepts OTLP span exports and feeds them into
// the collector. This path must never generate trace data of its own;
// instrumenting it would loop the collector back into itself.
type TraceServiceServerImpl struct {
	protoTrace.UnimplementedTraceServiceServer
	logger    *zap.Logger
	collector collector.TraceCollectorService
}

func NewTraceServiceServerImpl(
	logger *zap.Logger,
	collectorService collector.TraceCollectorService,
) TraceServiceServerImpl {
	logger.Info("Creating new TraceServiceServerImpl")
	return TraceServiceServerImpl{
		logger:    logger,
		collector: collectorService,
	}
}

func (tss TraceServiceServerImpl) Export(
	ctx context.Context,
	req *protoTrace.ExportTraceServiceRequest,
) (*protoTrace.ExportTraceServiceResponse, error) {
	var spans []model.Span
	for _, resourceSpan := range req.ResourceSpans {
		serviceName := getServiceName(resourceSpan)
		if serviceName == unknownServiceName {
			tss.logger.Warn("Service name not found in resource span")
		}
		spans = append(spans, tss.getTypedSpans(resourceSpan, serviceName)...)
	}

	tss.collector.IngestSpans(ctx, spans)
	return &protoTrace.ExportTraceServiceResponse{}, nil
}

func getServiceName(resourceSpan *tracepb.ResourceSpans) string {
	if resourceSpan.Resource == nil {
		return unknownServiceName
	}
	for _, attr := range resourceSpan.Resource.Attributes {
		if attr.Key == "service.name" {
			return attr.Value.GetStringValue()
		}
	}
	return unknownServiceName
}

func (tss TraceServiceServerImpl) getTypedSpans(
	resourceSpan *tracepb.ResourceSpans,
	serviceName string,
) []model.Span {
	var typedSpans []model.Span
	for _, scopeSpan := range resourceSpan.ScopeSpans {
		for _, span := range scopeSpan.Spans {
			typedSpan, err := getTypedSpan(span, serviceName)
			if err != nil {
				tss.logger.Warn("Skipping span with malformed identifiers", zap.Error(err))
				continue
			}
			typedSpans = append(typedSpans, typedSpan)
		}
	}
	return typedSpans
}

func getTypedSpan(span *tracepb.Span, serviceName string) (model.Span, error) {
	traceID, err := model.TraceIDFromBytes(span.TraceId)
	if err != nil {
		return model.Span{}, err
	}
	spanID, err := model.SpanIDFromBytes(span.SpanId)
	if err != nil {
		return model.Span{}, err
	}
	var parentSpanID *model.SpanID
	if len(span.ParentSpanId) > 0 {
		parent, err := model.SpanIDFromBytes(span.ParentSpanId)
		if err != nil {
			return model.Span{}, err
		}
		parentSpanID = &parent
	}

	var endTime *model.Timestamp
	if span.EndTimeUnixNano > 0 {
		end := model.Timestamp(span.EndTimeUnixNano)
		endTime = &end
	}

	return model.Span{
		TraceID:      traceID,
		SpanID:       spanID,
		ParentSpanID: parentSpanID,
		Name:         span.Name,
		ServiceName:  serviceName,
		StartTime:    model.Timestamp(span.StartTimeUnixNano),
		EndTime:      endTime,
		Attributes:   getAttributes(span.Attributes),
		Events:       getEvents(span),
		Status:       getStatus(span),
	}, nil
}

func getStatus(span *tracepb.Span) model.SpanStatus {
	if span.Status != nil && span.Status.Code == tracepb.Status_STATUS_CODE_ERROR {
		return model.ErrorStatus(span.Status.Message)
	}
	return model.OkStatus()
}

func getEvents(span *tracepb.Span) []model.SpanEvent {
	if len(span.Events) == 0 {
		return nil
	}
	events := make([]model.SpanEvent, len(span.Events))
	for i, event := range span.Events {
		events[i] = model.SpanEvent{
			Name:       event.Name,
			Timestamp:  model.Timestamp(event.TimeUnixNano),
			Attributes: getAttributes(event.Attributes),
		}
	}
	return events
}

func getAttributes(attributes []*commonpb.KeyValue) model.Attributes {
	if len(attributes) == 0 {
		return nil
	}
	typed := make(model.Attributes, len(attributes))
	for _, attribute := range attributes {
		if attribute.Value == nil {
			continue
		}
		switch value := attribute.Value.Value.(type) {
		case *commonpb.AnyValue_StringValue:
			typed[attribute.Key] = model.StringValue(value.StringValue)
		case *commonpb.AnyValue_IntValue:
			typed[attribute.Key] = model.IntValue(value.IntValue)
		case *commonpb.AnyValue_DoubleValue:
			typed[attribute.Key] = model.FloatValue(value.DoubleValue)
		case *commonpb.AnyValue_BoolValue:
			typed[attribute.Key] = model.BoolValue(value.BoolValue)
		default:
			// Array, bytes, and kvlist attributes have no counterpart in
			// the store's value model.
		}
	}
	return typed
}
