package handler

import (
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

type SpanStatusDTO struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type SpanEventDTO struct {
	Name           string           `json:"name"`
	TimestampNanos uint64           `json:"timestamp_nanos"`
	Attributes     model.Attributes `json:"attributes,omitempty"`
}

type SpanDTO struct {
	TraceID        string           `json:"trace_id"`
	SpanID         string           `json:"span_id"`
	ParentSpanID   *string          `json:"parent_span_id,omitempty"`
	Name           string           `json:"name"`
	ServiceName    string           `json:"service_name"`
	StartTimeNanos uint64           `json:"start_time_nanos"`
	EndTimeNanos   *uint64          `json:"end_time_nanos,omitempty"`
	DurationNanos  *uint64          `json:"duration_nanos,omitempty"`
	Attributes     model.Attributes `json:"attributes,omitempty"`
	Events         []SpanEventDTO   `json:"events,omitempty"`
	Status         SpanStatusDTO    `json:"status"`
}

type IngestRequestDTO struct {
	Spans []SpanDTO `json:"spans"`
}

type IngestResponseDTO struct {
	Accepted int `json:"accepted"`
}

type TraceSummaryDTO struct {
	TraceID        string  `json:"trace_id"`
	RootSpanName   string  `json:"root_span_name"`
	ServiceName    string  `json:"service_name"`
	StartTimeNanos uint64  `json:"start_time_nanos"`
	DurationNanos  *uint64 `json:"duration_nanos,omitempty"`
	SpanCount      int     `json:"span_count"`
	HasErrors      bool    `json:"has_errors"`
	Incomplete     bool    `json:"incomplete"`
	TraceType      string  `json:"trace_type"`
}

type ListTracesResponseDTO struct {
	Traces []TraceSummaryDTO `json:"traces"`
	Total  int               `json:"total"`
}

type TraceDTO struct {
	TraceID        string    `json:"trace_id"`
	RootSpanID     string    `json:"root_span_id"`
	TraceType      string    `json:"trace_type"`
	Incomplete     bool      `json:"incomplete"`
	StartTimeNanos uint64    `json:"start_time_nanos"`
	EndTimeNanos   *uint64   `json:"end_time_nanos,omitempty"`
	Spans          []SpanDTO `json:"spans"`
}

type GetTraceResponseDTO struct {
	Trace TraceDTO `json:"trace"`
}

type PingResponseDTO struct {
	Message string `json:"message"`
}

type TraceEventDTO struct {
	Type           string  `json:"type"`
	TraceID        string  `json:"trace_id"`
	SpanID         *string `json:"span_id,omitempty"`
	TimestampNanos uint64  `json:"timestamp_nanos"`
}
