package trigger

import "time"

// State is the persistable snapshot of a SimpleTrigger. Optional instants
// are nil when absent. Stores keep States; owners rebuild triggers from
// them with Restore.
type State struct {
	StartTime          time.Time
	EndTime            *time.Time
	RepeatCount        int
	RepeatInterval     time.Duration
	TimesTriggered     int
	NextFireTime       *time.Time
	PreviousFireTime   *time.Time
	Complete           bool
	MisfireInstruction MisfireInstruction
}

// State captures the trigger's schedule parameters and firing progress.
func (t *SimpleTrigger) State() State {
	return State{
		StartTime:          t.startTime,
		EndTime:            optional(t.endTime, t.hasEndTime),
		RepeatCount:        t.repeatCount,
		RepeatInterval:     t.repeatInterval,
		TimesTriggered:     t.timesTriggered,
		NextFireTime:       optional(t.nextFireTime, t.hasNextFireTime),
		PreviousFireTime:   optional(t.prevFireTime, t.hasPrevFireTime),
		Complete:           t.complete,
		MisfireInstruction: t.misfireInstr,
	}
}

// Restore rebuilds a trigger from a snapshot. The schedule parameters are
// validated exactly as New validates them; firing progress is replayed
// through the owner-only setters.
func Restore(s State, opts ...Option) (*SimpleTrigger, error) {
	if s.EndTime != nil {
		opts = append([]Option{WithEndTime(*s.EndTime)}, opts...)
	}
	opts = append([]Option{WithMisfireInstruction(s.MisfireInstruction)}, opts...)

	t, err := New(s.StartTime, s.RepeatCount, s.RepeatInterval, opts...)
	if err != nil {
		return nil, err
	}
	t.SetTimesTriggered(s.TimesTriggered)
	t.SetNextFireTime(deref(s.NextFireTime))
	t.SetPreviousFireTime(deref(s.PreviousFireTime))
	if s.Complete {
		t.MarkComplete()
	}
	return t, nil
}

func optional(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}

func deref(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}
