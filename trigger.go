package trigger

import (
	"strconv"
	"time"
)

// RepeatIndefinitely is the repeat count of a trigger that repeats until
// its end time, if any.
const RepeatIndefinitely = -1

// SimpleTrigger fires at startTime and then every repeatInterval, up to
// repeatCount additional times and strictly before endTime.
//
// The trigger is a single-owner mutable record. It performs no locking:
// whichever component currently holds it (a scheduler loop, or a store
// that checked it out) must serialize every compute-then-mutate sequence.
// Every fire-time answer is a pure function of the fields below and the
// injected Clock, so replaying persisted state yields identical results.
type SimpleTrigger struct {
	key string

	startTime      time.Time
	endTime        time.Time
	hasEndTime     bool
	repeatCount    int
	repeatInterval time.Duration

	timesTriggered  int
	nextFireTime    time.Time
	hasNextFireTime bool
	prevFireTime    time.Time
	hasPrevFireTime bool
	complete        bool
	misfireInstr    MisfireInstruction

	clock  Clock
	logger Logger
	hooks  *ObservabilityHooks
}

// New returns a validated trigger that first fires at start and then
// repeats repeatCount more times (or RepeatIndefinitely) every interval.
// The next fire time stays unset until ComputeFirstFireTime runs.
// Schedules have millisecond resolution: start loses any finer part and
// interval must be a whole number of milliseconds.
//
// Configuration mistakes are reported here, never later:
//
//	t, err := trigger.New(start, 10, 10*time.Second,
//	    trigger.WithEndTime(start.Add(55*time.Second)),
//	    trigger.WithMisfireInstruction(trigger.MisfireRescheduleNextWithRemainingCount),
//	)
func New(start time.Time, repeatCount int, interval time.Duration, opts ...Option) (*SimpleTrigger, error) {
	t := &SimpleTrigger{
		startTime:      toMillis(start),
		repeatCount:    repeatCount,
		repeatInterval: interval,
		misfireInstr:   MisfireSmartPolicy,
		clock:          RealClock{},
		logger:         DefaultLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the schedule parameters. A trigger that fails validation
// must never enter a schedule.
func (t *SimpleTrigger) Validate() error {
	if t.startTime.IsZero() {
		return ErrMissingStartTime
	}
	if err := validateRepeatCount(t.repeatCount); err != nil {
		return err
	}
	if t.repeatInterval < 0 {
		return invalid(ErrNegativeInterval, "repeatInterval", t.repeatInterval.String())
	}
	if t.repeatCount != 0 && t.repeatInterval < time.Millisecond {
		return invalid(ErrZeroInterval, "repeatInterval", t.repeatInterval.String())
	}
	if t.repeatInterval%time.Millisecond != 0 {
		return invalid(ErrFractionalInterval, "repeatInterval", t.repeatInterval.String())
	}
	if t.hasEndTime && t.endTime.Before(t.startTime) {
		return invalid(ErrEndBeforeStart, "endTime", t.endTime.Format(time.RFC3339Nano))
	}
	if !t.misfireInstr.valid() {
		return invalid(ErrUnknownMisfireInstruction, "misfireInstruction", strconv.Itoa(int(t.misfireInstr)))
	}
	return nil
}

// Key returns the identifier set with WithKey, used in logs and hooks.
func (t *SimpleTrigger) Key() string { return t.key }

// StartTime returns the reference origin of the schedule.
func (t *SimpleTrigger) StartTime() time.Time { return t.startTime }

// EndTime returns the exclusive upper bound of the schedule, if any.
func (t *SimpleTrigger) EndTime() (time.Time, bool) { return t.endTime, t.hasEndTime }

// RepeatCount returns the number of repeats after the first firing, or
// RepeatIndefinitely.
func (t *SimpleTrigger) RepeatCount() int { return t.repeatCount }

// RepeatInterval returns the time between firings.
func (t *SimpleTrigger) RepeatInterval() time.Duration { return t.repeatInterval }

// TimesTriggered returns how many times the trigger has fired.
func (t *SimpleTrigger) TimesTriggered() int { return t.timesTriggered }

// NextFireTime returns the next instant the trigger is due, if it will
// fire again.
func (t *SimpleTrigger) NextFireTime() (time.Time, bool) { return t.nextFireTime, t.hasNextFireTime }

// PreviousFireTime returns the last instant the trigger fired, if any.
func (t *SimpleTrigger) PreviousFireTime() (time.Time, bool) {
	return t.prevFireTime, t.hasPrevFireTime
}

// MisfireInstruction returns the configured (unresolved) misfire instruction.
func (t *SimpleTrigger) MisfireInstruction() MisfireInstruction { return t.misfireInstr }

// IsComplete reports whether the trigger was marked complete.
func (t *SimpleTrigger) IsComplete() bool { return t.complete }

// MayFireAgain reports whether a next fire time is present.
func (t *SimpleTrigger) MayFireAgain() bool { return t.hasNextFireTime }

// SetStartTime moves the origin of the schedule. Sub-millisecond precision
// is dropped.
func (t *SimpleTrigger) SetStartTime(start time.Time) error {
	start = toMillis(start)
	if start.IsZero() {
		return ErrMissingStartTime
	}
	if t.hasEndTime && t.endTime.Before(start) {
		return invalid(ErrEndBeforeStart, "endTime", t.endTime.Format(time.RFC3339Nano))
	}
	t.startTime = start
	return nil
}

// SetEndTime bounds the schedule; no fire instant may equal or exceed end.
func (t *SimpleTrigger) SetEndTime(end time.Time) error {
	end = toMillis(end)
	if end.Before(t.startTime) {
		return invalid(ErrEndBeforeStart, "endTime", end.Format(time.RFC3339Nano))
	}
	t.endTime, t.hasEndTime = end, true
	return nil
}

// ClearEndTime removes the end bound.
func (t *SimpleTrigger) ClearEndTime() {
	t.endTime, t.hasEndTime = time.Time{}, false
}

// SetRepeatCount sets the number of repeats after the first firing.
func (t *SimpleTrigger) SetRepeatCount(n int) error {
	if err := validateRepeatCount(n); err != nil {
		return err
	}
	t.repeatCount = n
	return nil
}

// SetRepeatInterval sets the time between firings, a whole number of
// milliseconds. The pairing with the repeat count is checked by Validate.
func (t *SimpleTrigger) SetRepeatInterval(d time.Duration) error {
	if d < 0 {
		return invalid(ErrNegativeInterval, "repeatInterval", d.String())
	}
	if d%time.Millisecond != 0 {
		return invalid(ErrFractionalInterval, "repeatInterval", d.String())
	}
	t.repeatInterval = d
	return nil
}

// SetMisfireInstruction selects the misfire recovery behavior.
func (t *SimpleTrigger) SetMisfireInstruction(instr MisfireInstruction) error {
	if !instr.valid() {
		return invalid(ErrUnknownMisfireInstruction, "misfireInstruction", strconv.Itoa(int(instr)))
	}
	t.misfireInstr = instr
	return nil
}

// SetNextFireTime overwrites the next fire time.
//
// This is not intended for general client use. It exists so that a store
// can replay persisted state; schedules should be driven through
// ComputeFirstFireTime, Triggered and UpdateAfterMisfire.
func (t *SimpleTrigger) SetNextFireTime(next time.Time, ok bool) {
	if !ok {
		next = time.Time{}
	}
	t.nextFireTime, t.hasNextFireTime = toMillis(next), ok
}

// SetPreviousFireTime overwrites the previous fire time.
//
// Like SetNextFireTime, this is reserved for stores and recovery replay.
func (t *SimpleTrigger) SetPreviousFireTime(prev time.Time, ok bool) {
	if !ok {
		prev = time.Time{}
	}
	t.prevFireTime, t.hasPrevFireTime = toMillis(prev), ok
}

// SetTimesTriggered overwrites the firing counter. Reserved for stores.
func (t *SimpleTrigger) SetTimesTriggered(n int) {
	t.timesTriggered = n
}

// MarkComplete sets the terminal flag. Once complete, FireTimeAfter never
// produces another instant. Owners call it when ExecutionComplete answers
// InstructionSetTriggerComplete.
func (t *SimpleTrigger) MarkComplete() {
	t.complete = true
}

// Clone returns an independent copy that shares the clock, logger and
// hooks. Previews run on clones so the original state is untouched.
func (t *SimpleTrigger) Clone() *SimpleTrigger {
	c := *t
	return &c
}

func (t *SimpleTrigger) now() time.Time {
	return toMillis(t.clock.Now())
}
