package handler

import (
	"net/url"
	"strconv"

	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

func spanToDTO(span model.Span) SpanDTO {
	dto := SpanDTO{
		TraceID:        span.TraceID.String(),
		SpanID:         span.SpanID.String(),
		Name:           span.Name,
		ServiceName:    span.ServiceName,
		StartTimeNanos: uint64(span.StartTime),
		Attributes:     span.Attributes,
		Events:         eventsToDTO(span.Events),
		Status: SpanStatusDTO{
			Code:    string(span.Status.Code),
			Message: span.Status.Message,
		},
	}
	if span.ParentSpanID != nil {
		parent := span.ParentSpanID.String()
		dto.ParentSpanID = &parent
	}
	if span.EndTime != nil {
		end := uint64(*span.EndTime)
		dto.EndTimeNanos = &end
	}
	if duration, ok := span.DurationNanos(); ok {
		dto.DurationNanos = &duration
	}
	return dto
}

func eventsToDTO(events []model.SpanEvent) []SpanEventDTO {
	var dtos []SpanEventDTO
	for _, event := range events {
		dtos = append(dtos, SpanEventDTO{
			Name:           event.Name,
			TimestampNanos: uint64(event.Timestamp),
			Attributes:     event.Attributes,
		})
	}
	return dtos
}

func spanFromDTO(dto SpanDTO) (model.Span, error) {
	traceID, err := model.TraceIDFromString(dto.TraceID)
	if err != nil {
		return model.Span{}, err
	}
	spanID, err := model.SpanIDFromString(dto.SpanID)
	if err != nil {
		return model.Span{}, err
	}
	var parentSpanID *model.SpanID
	if dto.ParentSpanID != nil {
		parent, err := model.SpanIDFromString(*dto.ParentSpanID)
		if err != nil {
			return model.Span{}, err
		}
		parentSpanID = &parent
	}
	var endTime *model.Timestamp
	if dto.EndTimeNanos != nil {
		end := model.Timestamp(*dto.EndTimeNanos)
		endTime = &end
	}
	status := model.OkStatus()
	if dto.Status.Code == string(model.StatusCodeError) {
		status = model.ErrorStatus(dto.Status.Message)
	}
	return model.Span{
		TraceID:      traceID,
		SpanID:       spanID,
		ParentSpanID: parentSpanID,
		Name:         dto.Name,
		ServiceName:  dto.ServiceName,
		StartTime:    model.Timestamp(dto.StartTimeNanos),
		EndTime:      endTime,
		Attributes:   dto.Attributes,
		Events:       eventsFromDTO(dto.Events),
		Status:       status,
	}, nil
}

func eventsFromDTO(dtos []SpanEventDTO) []model.SpanEvent {
	var events []model.SpanEvent
	for _, dto := range dtos {
		events = append(events, model.SpanEvent{
			Name:       dto.Name,
			Timestamp:  model.Timestamp(dto.TimestampNanos),
			Attributes: dto.Attributes,
		})
	}
	return events
}

func summaryToDTO(summary model.TraceSummary) TraceSummaryDTO {
	return TraceSummaryDTO{
		TraceID:        summary.TraceID.String(),
		RootSpanName:   summary.RootSpanName,
		ServiceName:    summary.ServiceName,
		StartTimeNanos: uint64(summary.StartTime),
		DurationNanos:  summary.DurationNanos,
		SpanCount:      summary.SpanCount,
		HasErrors:      summary.HasErrors,
		Incomplete:     summary.Incomplete,
		TraceType:      string(summary.Type),
	}
}

func traceToDTO(trace *model.Trace) TraceDTO {
	spans := make([]SpanDTO, len(trace.Spans))
	for i, span := range trace.Spans {
		spans[i] = spanToDTO(span)
	}
	dto := TraceDTO{
		TraceID:        trace.TraceID.String(),
		RootSpanID:     trace.RootSpanID.String(),
		TraceType:      string(trace.Type),
		Incomplete:     trace.Incomplete,
		StartTimeNanos: uint64(trace.StartTime),
		Spans:          spans,
	}
	if trace.EndTime != nil {
		end := uint64(*trace.EndTime)
		dto.EndTimeNanos = &end
	}
	return dto
}

func TraceEventToDTO(event model.TraceEvent) TraceEventDTO {
	dto := TraceEventDTO{
		Type:           string(event.Type),
		TraceID:        event.TraceID.String(),
		TimestampNanos: uint64(event.Timestamp),
	}
	if event.SpanID != nil {
		spanID := event.SpanID.String()
		dto.SpanID = &spanID
	}
	return dto
}

// filterFromQuery builds a trace filter from URL query parameters; an
// absent parameter leaves that predicate unconstrained.
func filterFromQuery(values url.Values) (model.TraceFilter, error) {
	var filter model.TraceFilter
	if service := values.Get("service"); service != "" {
		filter.Service = &service
	}
	if raw := values.Get("min_duration_nanos"); raw != "" {
		minDuration, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MinDurationNanos = &minDuration
	}
	if raw := values.Get("max_duration_nanos"); raw != "" {
		maxDuration, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MaxDurationNanos = &maxDuration
	}
	if raw := values.Get("has_errors"); raw != "" {
		hasErrors, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.HasErrors = &hasErrors
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, strconv.ErrSyntax
		}
		filter.Limit = &limit
	}
	return filter, nil
}
