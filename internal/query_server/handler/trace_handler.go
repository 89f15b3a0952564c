package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/retrospect-io/retrospect/internal/collector"
	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

// PingHandler creates a handler for the liveness probe. No store
// interaction.
func PingHandler(
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, PingResponseDTO{Message: cs.Ping()}, logger)
	}
}

// IngestSpansHandler creates a handler accepting a JSON span batch and
// returning the number of spans accepted.
func IngestSpansHandler(
	ctx context.Context,
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngestRequestDTO
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			logger.Error("Error encountered when decoding request body", zap.Error(err))
			HttpError(w, "Invalid request payload", http.StatusBadRequest, logger)
			return
		}

		defer func(body io.ReadCloser) {
			err := body.Close()
			if err != nil {
				logger.Error("Error encountered when closing request body", zap.Error(err))
			}
		}(r.Body)

		spans := make([]model.Span, 0, len(req.Spans))
		for _, dto := range req.Spans {
			span, err := spanFromDTO(dto)
			if err != nil {
				logger.Error("Error encountered when converting span", zap.Error(err))
				HttpError(w, err.Error(), http.StatusBadRequest, logger)
				return
			}
			spans = append(spans, span)
		}

		accepted := cs.IngestSpans(ctx, spans)
		writeJSON(w, IngestResponseDTO{Accepted: accepted}, logger)
	}
}

// ListTracesHandler creates a handler for listing trace summaries with
// optional filtering via query parameters.
func ListTracesHandler(
	ctx context.Context,
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r.URL.Query())
		if err != nil {
			logger.Error("Error encountered when parsing filter parameters", zap.Error(err))
			HttpError(w, "Invalid filter parameters", http.StatusBadRequest, logger)
			return
		}

		summaries := cs.ListTraces(ctx, filter)
		traces := make([]TraceSummaryDTO, len(summaries))
		for i, summary := range summaries {
			traces[i] = summaryToDTO(summary)
		}
		writeJSON(w, ListTracesResponseDTO{Traces: traces, Total: len(traces)}, logger)
	}
}

// GetTraceHandler creates a handler for point lookups by trace id. An
// unknown or expired id is an absent result, not an error.
func GetTraceHandler(
	ctx context.Context,
	cs collector.TraceCollectorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID, err := model.TraceIDFromString(mux.Vars(r)["trace_id"])
		if err != nil {
			logger.Error("Error encountered when parsing trace id", zap.Error(err))
			HttpError(w, "Invalid trace id format", http.StatusBadRequest, logger)
			return
		}

		trace, found := cs.GetTrace(ctx, traceID)
		if !found {
			HttpError(w, "Trace not found", http.StatusNotFound, logger)
			return
		}
		writeJSON(w, GetTraceResponseDTO{Trace: traceToDTO(trace)}, logger)
	}
}
