package trigger

import "time"

// ComputeFireTimes returns the first n fire instants of the trigger as
// its owner would see them, honoring the calendar. The trigger itself is
// not modified; the computation runs on a fresh clone seeded with
// ComputeFirstFireTime. Returns nil if t is nil or n <= 0.
//
// This is useful for:
//   - Calendar previews showing upcoming executions
//   - Checking a configuration before it is scheduled
//
// Example:
//
//	t, _ := trigger.New(start, 10, 10*time.Second, trigger.WithEndTime(start.Add(55*time.Second)))
//	for _, at := range trigger.ComputeFireTimes(t, nil, 20) {
//	    fmt.Println(at) // six instants, start through start+50s
//	}
func ComputeFireTimes(t *SimpleTrigger, cal Calendar, n int) []time.Time {
	if t == nil || n <= 0 {
		return nil
	}

	c := t.previewClone()
	c.ComputeFirstFireTime(cal)

	times := make([]time.Time, 0, n)
	for range n {
		next, ok := c.NextFireTime()
		if !ok {
			break
		}
		times = append(times, next)
		c.Triggered(cal)
	}
	return times
}

// ComputeFireTimesBetween returns the fire instants in the range
// [from, to], honoring the calendar, up to limit. If limit is 0 or
// negative, no limit is applied; with an unbounded schedule the range
// itself is the only bound. Returns nil if t is nil or from is after to.
func ComputeFireTimesBetween(t *SimpleTrigger, cal Calendar, from, to time.Time, limit int) []time.Time {
	if t == nil || from.After(to) {
		return nil
	}

	c := t.previewClone()
	if from.After(c.startTime) {
		// Jump straight to the grid instead of stepping from the start.
		next, ok := c.fireTimeAfter(from.Add(-time.Nanosecond), true)
		c.SetNextFireTime(c.advance(next, ok, cal))
	} else {
		c.ComputeFirstFireTime(cal)
	}

	var times []time.Time
	if limit > 0 {
		times = make([]time.Time, 0, limit)
	}
	for {
		next, ok := c.NextFireTime()
		if !ok || next.After(to) {
			break
		}
		if !next.Before(from) {
			times = append(times, next)
			if limit > 0 && len(times) >= limit {
				break
			}
		}
		c.Triggered(cal)
	}
	return times
}

// previewClone resets firing progress and detaches hooks so previews do
// not show up as real firings.
func (t *SimpleTrigger) previewClone() *SimpleTrigger {
	c := t.Clone()
	c.hooks = nil
	c.timesTriggered = 0
	c.complete = false
	c.SetNextFireTime(time.Time{}, false)
	c.SetPreviousFireTime(time.Time{}, false)
	return c
}
