package service

import (
	"time"

	"github.com/retrospect-io/retrospect/pkg/trace/model"
)

const (
	// DefaultSlowThreshold marks traces slower than 1s as slow.
	DefaultSlowThreshold = time.Second
	// DefaultFastThreshold marks traces faster than 100ms as fast.
	DefaultFastThreshold = 100 * time.Millisecond
)

// ClassificationThresholds configure the duration cutoffs used to label
// traces. Error classification always takes precedence over duration.
type ClassificationThresholds struct {
	Slow time.Duration
	Fast time.Duration
}

func DefaultThresholds() ClassificationThresholds {
	return ClassificationThresholds{
		Slow: DefaultSlowThreshold,
		Fast: DefaultFastThreshold,
	}
}

// ClassifyTrace derives the categorical label for a trace's current
// state: error if any span failed, then slow/fast/normal by total
// duration. A trace still in flight has no duration and reads as normal
// until it closes.
func ClassifyTrace(trace *model.Trace, thresholds ClassificationThresholds) model.TraceType {
	if trace.HasErrors() {
		return model.TraceTypeError
	}
	duration, ok := trace.DurationNanos()
	if !ok {
		return model.TraceTypeNormal
	}
	if duration > uint64(thresholds.Slow.Nanoseconds()) {
		return model.TraceTypeSlow
	}
	if duration < uint64(thresholds.Fast.Nanoseconds()) {
		return model.TraceTypeFast
	}
	return model.TraceTypeNormal
}
