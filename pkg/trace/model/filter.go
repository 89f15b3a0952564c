package model

// TraceFilter narrows a trace listing. Every field is independently
// optional; a nil field leaves that dimension unconstrained. Set
// predicates combine with logical AND.
type TraceFilter struct {
	Service          *string `json:"service,omitempty"`
	MinDurationNanos *uint64 `json:"min_duration_nanos,omitempty"`
	MaxDurationNanos *uint64 `json:"max_duration_nanos,omitempty"`
	HasErrors        *bool   `json:"has_errors,omitempty"`
	Limit            *int    `json:"limit,omitempty"`
}

// Matches applies every set predicate to the summary. A trace that is
// still open has no duration and cannot satisfy a duration bound.
func (f TraceFilter) Matches(summary TraceSummary) bool {
	if f.Service != nil && summary.ServiceName != *f.Service {
		return false
	}
	if f.MinDurationNanos != nil || f.MaxDurationNanos != nil {
		if summary.DurationNanos == nil {
			return false
		}
		if f.MinDurationNanos != nil && *summary.DurationNanos < *f.MinDurationNanos {
			return false
		}
		if f.MaxDurationNanos != nil && *summary.DurationNanos > *f.MaxDurationNanos {
			return false
		}
	}
	if f.HasErrors != nil && summary.HasErrors != *f.HasErrors {
		return false
	}
	return true
}
