package model

import "time"

// Timestamp is a wall-clock instant in nanoseconds since the Unix epoch.
type Timestamp uint64

func Now() Timestamp {
	return Timestamp(time.Now().UnixNano())
}

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t))
}

// Sub returns t - other in nanoseconds, saturating at zero when the clock
// ran backwards instead of underflowing.
func (t Timestamp) Sub(other Timestamp) uint64 {
	if t < other {
		return 0
	}
	return uint64(t - other)
}

func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

func (t Timestamp) After(other Timestamp) bool {
	return t > other
}
