package trigger

import "time"

// FireTimeAfter returns the first scheduled instant strictly after the
// given time, ignoring calendars. ok is false when the schedule will
// produce no such instant; that is the normal end of a schedule, not an
// error.
func (t *SimpleTrigger) FireTimeAfter(after time.Time) (time.Time, bool) {
	return t.fireTimeAfter(after, true)
}

// fireTimeAfter substitutes the clock's current instant when the
// reference is absent.
func (t *SimpleTrigger) fireTimeAfter(after time.Time, present bool) (time.Time, bool) {
	if t.complete {
		return time.Time{}, false
	}
	if t.repeatCount != RepeatIndefinitely && t.timesTriggered > t.repeatCount {
		return time.Time{}, false
	}
	if !present {
		after = t.now()
	}
	if t.repeatCount == 0 && !after.Before(t.startTime) {
		return time.Time{}, false
	}
	if t.hasEndTime && !t.endTime.After(after) {
		return time.Time{}, false
	}
	if t.startTime.After(after) {
		return t.startTime, true
	}

	index := countFirings(t.startTime, after, t.repeatInterval) + 1
	if t.repeatCount != RepeatIndefinitely && index > int64(t.repeatCount) {
		return time.Time{}, false
	}
	candidate, ok := instantAtIndex(t.startTime, index, t.repeatInterval)
	if !ok {
		return time.Time{}, false
	}
	if t.hasEndTime && !candidate.Before(t.endTime) {
		return time.Time{}, false
	}
	return candidate, true
}

// FireTimeBefore returns the last scheduled instant at or before end.
//
// Calendars are not consulted here, unlike FireTimeAfter; FinalFireTime
// inherits the same blind spot.
func (t *SimpleTrigger) FireTimeBefore(end time.Time) (time.Time, bool) {
	if end.Before(t.startTime) {
		return time.Time{}, false
	}
	n := countFirings(t.startTime, end, t.repeatInterval)
	return instantAtIndex(t.startTime, n, t.repeatInterval)
}

// FinalFireTime returns the last instant the schedule can produce, or
// false for a schedule without a bound.
func (t *SimpleTrigger) FinalFireTime() (time.Time, bool) {
	switch {
	case t.repeatCount == 0:
		return t.startTime, true
	case t.repeatCount == RepeatIndefinitely:
		if !t.hasEndTime {
			return time.Time{}, false
		}
		return t.FireTimeBefore(t.endTime)
	}

	last, ok := instantAtIndex(t.startTime, int64(t.repeatCount), t.repeatInterval)
	if !t.hasEndTime {
		return last, ok
	}
	if ok && last.Before(t.endTime) {
		return last, true
	}
	return t.FireTimeBefore(t.endTime)
}

// ComputeFirstFireTime seeds the schedule: the next fire time becomes the
// start time, advanced past any instants the calendar excludes. Call it
// once before the trigger is scheduled; every call recomputes from scratch.
func (t *SimpleTrigger) ComputeFirstFireTime(cal Calendar) (time.Time, bool) {
	next, ok := t.advance(t.startTime, true, cal)
	t.SetNextFireTime(next, ok)
	return next, ok
}

// Triggered records that the trigger fired at its next fire time and moves
// the schedule one step forward.
func (t *SimpleTrigger) Triggered(cal Calendar) {
	t.timesTriggered++
	fired, fireOK := t.nextFireTime, t.hasNextFireTime
	t.SetPreviousFireTime(fired, fireOK)

	next, ok := t.fireTimeAfter(fired, fireOK)
	next, ok = t.advance(next, ok, cal)
	t.SetNextFireTime(next, ok)

	t.hooks.callOnFired(t.key, fired, next, ok)
}

// UpdateWithNewCalendar reconciles the schedule after the calendar it
// runs against has changed. The next fire time is recomputed from the
// previous one and moved past excluded instants. If the result already
// lies at least misfireThreshold in the past, it moves exactly one more
// step; it does not loop until a current instant is found.
func (t *SimpleTrigger) UpdateWithNewCalendar(cal Calendar, misfireThreshold time.Duration) {
	next, ok := t.fireTimeAfter(t.prevFireTime, t.hasPrevFireTime)
	next, ok = t.advance(next, ok, cal)

	if now := t.now(); ok && next.Before(now) && now.Sub(next) >= misfireThreshold {
		stale := next
		next, ok = t.fireTimeAfter(next, true)
		t.logger.Info("calendar update left a stale fire time, stepping once",
			"trigger", t.key,
			"stale", stale,
			"threshold", misfireThreshold,
		)
	}
	t.SetNextFireTime(next, ok)
}
