package trigger

import (
	"math"
	"time"
)

// Schedule arithmetic runs on int64 Unix milliseconds. Nanosecond
// durations top out near 292 years, which a long-running indefinite
// schedule can exceed; milliseconds reach far beyond any representable
// calendar date.

// toMillis drops sub-millisecond precision. Every instant a trigger stores
// passes through here so that persisted state replays exactly.
func toMillis(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}

// countFirings returns the number of whole intervals that elapse between
// start and end. The result truncates toward zero, so an end before start
// yields zero or a negative count. A non-positive interval yields zero.
// The count saturates one short of math.MaxInt64 so a caller may add one.
func countFirings(start, end time.Time, interval time.Duration) int64 {
	ms := interval.Milliseconds()
	if ms <= 0 {
		return 0
	}
	s, e := start.UnixMilli(), end.UnixMilli()
	switch {
	case e > s && e-s < 0:
		// Only reachable for instants hundreds of millions of years apart.
		return math.MaxInt64/ms - 1
	case e < s && e-s > 0:
		return math.MinInt64/ms + 1
	}
	return min((e-s)/ms, math.MaxInt64-1)
}

// instantAtIndex returns the index-th scheduled instant of a schedule that
// begins at start and repeats every interval. ok is false when the instant
// is not representable as Unix milliseconds.
func instantAtIndex(start time.Time, index int64, interval time.Duration) (time.Time, bool) {
	ms := interval.Milliseconds()
	if index == 0 || ms <= 0 {
		return start, true
	}
	if index > math.MaxInt64/ms || index < math.MinInt64/ms {
		return time.Time{}, false
	}
	offset := index * ms
	base := start.UnixMilli()
	if (offset > 0 && base > math.MaxInt64-offset) || (offset < 0 && base < math.MinInt64-offset) {
		return time.Time{}, false
	}
	sec, rem := offset/1000, offset%1000
	return time.Unix(start.Unix()+sec, int64(start.Nanosecond())+rem*int64(time.Millisecond)).In(start.Location()), true
}
