/*
Package trigger implements repeating interval triggers: schedules that fire
at a start time and then every fixed interval, a bounded or unbounded
number of times, optionally up to an end time.

# Installation

To download the package, run:

	go get github.com/netresearch/go-trigger

Import it in your program as:

	import "github.com/netresearch/go-trigger"

It requires Go 1.25 or later.

# Usage

A trigger is created and validated once, seeded, and then driven by its
owner, typically a scheduler loop or a worker that checked it out of a
store:

	t, err := trigger.New(start, 10, 10*time.Second,
		trigger.WithEndTime(start.Add(55*time.Second)),
		trigger.WithKey("report"),
	)
	if err != nil {
		return err // configuration mistakes surface here
	}
	t.ComputeFirstFireTime(cal)
	..
	// When the next fire time arrives:
	t.Triggered(cal)
	instr := t.ExecutionComplete(outcome)
	..
	// When the owner decides a firing was missed:
	t.UpdateAfterMisfire(cal)

The trigger performs no locking. Whoever holds it must serialize every
compute-then-mutate sequence; the store package hands triggers out under
an exclusive lease for exactly that reason.

# Schedule

Fire instants are start + k*interval for k = 0, 1, .., repeatCount, all
strictly before the end time when one is set. A repeat count of
RepeatIndefinitely removes the count bound. The k-th instant is computed
directly from elapsed time, so looking far into the future costs the same
as looking one interval ahead.

	FireTimeAfter(t)   first instant strictly after t
	FireTimeBefore(t)  last instant at or before t
	FinalFireTime()    last instant of a bounded schedule

FireTimeAfter ignores calendars. ComputeFirstFireTime, Triggered,
UpdateWithNewCalendar and UpdateAfterMisfire consult one and skip the
instants it excludes. FireTimeBefore and FinalFireTime never do, so a
final fire time may name an instant the calendar will suppress.

# Calendars

A Calendar excludes instants. CronCalendar excludes every second matched
by a cron expression:

	lunch, _ := trigger.NewCronCalendar("* * 12-13 * * MON-FRI", nil)

A calendar that excludes everything cannot stall an unbounded schedule:
the search gives up once a candidate lies more than 100 years past where
it started.

# Misfires

Detecting a misfire is the owner's job. Once it has decided a firing was
missed, UpdateAfterMisfire applies the trigger's MisfireInstruction
relative to the Clock's current instant. MisfireSmartPolicy resolves per
repeat count (see ResolveMisfire); MisfireIgnorePolicy leaves the trigger
untouched.

# Configuration

Triggers can be described in YAML or TOML and built with LoadFile and
Definition.Build; see File for the layout. The firetimes command previews
such files.

# Logging

Triggers log misfire recovery and calendar edge cases through the Logger
interface, a subset of go-logr/logr. PrintfLogger, SlogLogger and
ZerologLogger adapt the common backends.

# Testing

Inject a FakeClock with WithClock to make every "now"-dependent
operation deterministic:

	clock := trigger.NewFakeClock(start)
	t, _ := trigger.New(start, trigger.RepeatIndefinitely, time.Minute, trigger.WithClock(clock))
	clock.Advance(time.Hour)
	t.UpdateAfterMisfire(nil)
*/
package trigger
