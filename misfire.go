package trigger

import (
	"strings"
	"time"
)

// MisfireInstruction selects how a trigger recovers once its owner has
// decided that a scheduled firing was missed by more than the owner's
// misfire threshold. The trigger never detects misfires itself.
type MisfireInstruction int

const (
	// MisfireIgnorePolicy leaves the trigger untouched; the owner fires it
	// as soon as it can and lets the schedule continue normally.
	MisfireIgnorePolicy MisfireInstruction = -1

	// MisfireSmartPolicy picks a concrete instruction from the repeat
	// count at recovery time (see ResolveMisfire). This is the default.
	MisfireSmartPolicy MisfireInstruction = 0

	// MisfireFireNow fires once, immediately. Only meaningful for one-shot
	// triggers; on a repeating trigger it behaves like
	// MisfireRescheduleNowWithRemainingRepeatCount.
	MisfireFireNow MisfireInstruction = 1

	// MisfireRescheduleNowWithExistingRepeatCount restarts the schedule
	// from now, keeping the repeats not yet fired. Missed firings are
	// made up for.
	MisfireRescheduleNowWithExistingRepeatCount MisfireInstruction = 2

	// MisfireRescheduleNowWithRemainingRepeatCount restarts the schedule
	// from now and charges the missed firings against the repeat budget.
	MisfireRescheduleNowWithRemainingRepeatCount MisfireInstruction = 3

	// MisfireRescheduleNextWithRemainingCount waits for the next regular
	// instant and charges the missed firings against the repeat budget.
	MisfireRescheduleNextWithRemainingCount MisfireInstruction = 4

	// MisfireRescheduleNextWithExistingCount waits for the next regular
	// instant and forgets the missed firings.
	MisfireRescheduleNextWithExistingCount MisfireInstruction = 5
)

// endTimeGrace is how far reschedule-now-with-remaining-count pushes an
// end time that is already due, so the immediate re-fire is accepted.
const endTimeGrace = 50 * time.Millisecond

var misfireNames = map[MisfireInstruction]string{
	MisfireIgnorePolicy:                          "ignore-misfire-policy",
	MisfireSmartPolicy:                           "smart-policy",
	MisfireFireNow:                               "fire-now",
	MisfireRescheduleNowWithExistingRepeatCount:  "reschedule-now-existing-count",
	MisfireRescheduleNowWithRemainingRepeatCount: "reschedule-now-remaining-count",
	MisfireRescheduleNextWithRemainingCount:      "reschedule-next-remaining-count",
	MisfireRescheduleNextWithExistingCount:       "reschedule-next-existing-count",
}

// String returns the kebab-case name of the instruction.
func (m MisfireInstruction) String() string {
	if name, ok := misfireNames[m]; ok {
		return name
	}
	return "Unknown"
}

func (m MisfireInstruction) valid() bool {
	_, ok := misfireNames[m]
	return ok
}

// ParseMisfireInstruction returns the instruction named s. Matching is
// case-insensitive and accepts underscores in place of hyphens.
func ParseMisfireInstruction(s string) (MisfireInstruction, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for m, n := range misfireNames {
		if n == name {
			return m, nil
		}
	}
	return MisfireSmartPolicy, invalid(ErrUnknownMisfireInstruction, "misfireInstruction", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m MisfireInstruction) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, invalid(ErrUnknownMisfireInstruction, "misfireInstruction", m.String())
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MisfireInstruction) UnmarshalText(text []byte) error {
	parsed, err := ParseMisfireInstruction(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ResolveMisfire maps an instruction to the concrete action that recovery
// applies for a trigger with the given repeat count. The smart policy
// becomes fire-now for a one-shot trigger, reschedule-next-with-remaining
// for an indefinite one and reschedule-now-with-existing otherwise.
// Fire-now on a repeating trigger becomes reschedule-now-with-remaining.
// Every other instruction resolves to itself.
func ResolveMisfire(instr MisfireInstruction, repeatCount int) MisfireInstruction {
	switch instr {
	case MisfireSmartPolicy:
		switch repeatCount {
		case 0:
			return MisfireFireNow
		case RepeatIndefinitely:
			return MisfireRescheduleNextWithRemainingCount
		default:
			return MisfireRescheduleNowWithExistingRepeatCount
		}
	case MisfireFireNow:
		if repeatCount != 0 {
			return MisfireRescheduleNowWithRemainingRepeatCount
		}
	}
	return instr
}

// UpdateAfterMisfire applies the trigger's misfire instruction relative to
// the clock's current instant and returns the concrete instruction that
// was applied. It never fails on a validated trigger.
func (t *SimpleTrigger) UpdateAfterMisfire(cal Calendar) MisfireInstruction {
	requested := t.misfireInstr
	if requested == MisfireIgnorePolicy {
		return requested
	}

	applied := ResolveMisfire(requested, t.repeatCount)
	now := t.now()
	missed, hadNext := t.nextFireTime, t.hasNextFireTime

	switch applied {
	case MisfireFireNow:
		t.SetNextFireTime(now, true)

	case MisfireRescheduleNextWithExistingCount:
		next, ok := t.fireTimeAfter(now, true)
		next, ok = t.advance(next, ok, cal)
		t.SetNextFireTime(next, ok)

	case MisfireRescheduleNextWithRemainingCount:
		next, ok := t.fireTimeAfter(now, true)
		next, ok = t.advance(next, ok, cal)
		if ok && hadNext {
			t.timesTriggered += int(countFirings(missed, next, t.repeatInterval))
		}
		t.SetNextFireTime(next, ok)

	case MisfireRescheduleNowWithExistingRepeatCount:
		if t.isFiniteRepeat() {
			t.repeatCount = max(0, t.repeatCount-t.timesTriggered)
			t.timesTriggered = 0
		}
		if t.hasEndTime && t.endTime.Before(now) {
			// Already past the end; there is nothing left to restart.
			// An end equal to now still restarts, so start never passes end.
			t.SetNextFireTime(time.Time{}, false)
			break
		}
		t.startTime = now
		t.SetNextFireTime(now, true)

	case MisfireRescheduleNowWithRemainingRepeatCount:
		var skipped int
		if hadNext {
			skipped = int(countFirings(missed, now, t.repeatInterval))
		}
		if t.isFiniteRepeat() {
			t.repeatCount = max(0, t.repeatCount-(t.timesTriggered+skipped))
			t.timesTriggered = 0
		}
		if t.hasEndTime && !t.endTime.After(now) {
			t.endTime = now.Add(endTimeGrace)
		}
		t.startTime = now
		t.SetNextFireTime(now, true)
	}

	next, ok := t.NextFireTime()
	t.logger.Info("recovered misfired trigger",
		"trigger", t.key,
		"requested", requested.String(),
		"applied", applied.String(),
		"missed", missed,
		"next", next,
		"mayFireAgain", ok,
	)
	t.hooks.callOnMisfire(t.key, requested, applied, lateness(missed, hadNext, now), next, ok)
	return applied
}

func (t *SimpleTrigger) isFiniteRepeat() bool {
	return t.repeatCount != 0 && t.repeatCount != RepeatIndefinitely
}

func lateness(missed time.Time, ok bool, now time.Time) time.Duration {
	if !ok || !missed.Before(now) {
		return 0
	}
	return now.Sub(missed)
}
