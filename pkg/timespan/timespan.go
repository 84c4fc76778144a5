// Package timespan defines the time period attached to every analysis item.
package timespan

import (
	"errors"
	"time"
)

// ErrIntervalOrder is returned when an interval's end precedes its start.
var ErrIntervalOrder = errors.New("interval end must not precede start")

// TimeSpan is either an instant (End is the zero time) or a bounded
// interval. Start is always timezone-aware; naive inputs are assigned UTC
// by the providers that construct spans.
type TimeSpan struct {
	Start time.Time
	End   time.Time
}

// Instant returns a TimeSpan covering a single point in time.
func Instant(t time.Time) TimeSpan {
	return TimeSpan{Start: t.UTC()}
}

// Interval returns a TimeSpan covering [start, end].
func Interval(start, end time.Time) (TimeSpan, error) {
	if end.Before(start) {
		return TimeSpan{}, ErrIntervalOrder
	}

	return TimeSpan{Start: start.UTC(), End: end.UTC()}, nil
}

// IsInstant reports whether the span has no end boundary.
func (ts TimeSpan) IsInstant() bool {
	return ts.End.IsZero()
}

// EffectiveEnd returns End for intervals and Start for instants.
func (ts TimeSpan) EffectiveEnd() time.Time {
	if ts.IsInstant() {
		return ts.Start
	}

	return ts.End
}

// Before orders spans by start time.
func (ts TimeSpan) Before(other TimeSpan) bool {
	return ts.Start.Before(other.Start)
}
