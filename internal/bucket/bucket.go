// Package bucket aligns timestamps to the fixed 10-minute windows that time
// slots are keyed on. Everything here is pure and works in UTC.
package bucket

import (
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
)

const (
	// Size is the width of one bucket.
	Size = 10 * time.Minute
	// MaxSeconds is the upper bound of every slot counter.
	MaxSeconds = int(Size / time.Second)
)

// Align floors t to its bucket start in UTC.
func Align(t time.Time) time.Time {
	return t.UTC().Truncate(Size)
}

// IsAligned reports whether t is already a bucket start.
func IsAligned(t time.Time) bool {
	return Align(t).Equal(t)
}

// Covering lists every bucket start overlapping [start, end). A range that
// ends inside a bucket still yields that bucket.
func Covering(start, end time.Time) ([]time.Time, error) {
	if !end.After(start) {
		return nil, domain.ErrInvalidRange
	}
	end = end.UTC()
	var out []time.Time
	for b := Align(start); b.Before(end); b = b.Add(Size) {
		out = append(out, b)
	}
	return out, nil
}

// Widen expands a raw range to whole buckets: from the bucket holding start up
// to the end of the bucket holding end. The result is half-open.
func Widen(start, end time.Time) (time.Time, time.Time) {
	if end.Before(start) {
		start, end = end, start
	}
	return Align(start), Align(end).Add(Size)
}

// Clamp bounds a slot counter to [0, MaxSeconds].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxSeconds {
		return MaxSeconds
	}
	return v
}

// Span is the part of an interval that falls in one bucket.
type Span struct {
	StartedAt time.Time
	Seconds   int
}

// Generate splits [start, end) into per-bucket spans, each carrying the number
// of seconds of the interval inside that bucket.
func Generate(start, end time.Time) ([]Span, error) {
	starts, err := Covering(start, end)
	if err != nil {
		return nil, err
	}
	start, end = start.UTC(), end.UTC()
	spans := make([]Span, 0, len(starts))
	for _, b := range starts {
		from := b
		if start.After(from) {
			from = start
		}
		to := b.Add(Size)
		if end.Before(to) {
			to = end
		}
		spans = append(spans, Span{
			StartedAt: b,
			Seconds:   Clamp(int(to.Sub(from) / time.Second)),
		})
	}
	return spans, nil
}
