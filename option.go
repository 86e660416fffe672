package trigger

import (
	"time"
)

// Option represents a modification to the default configuration of a
// SimpleTrigger. Options are applied before validation, so a bad value
// surfaces as an error from New or Restore.
type Option func(*SimpleTrigger)

// WithKey names the trigger in log lines and observability hooks.
func WithKey(key string) Option {
	return func(t *SimpleTrigger) {
		t.key = key
	}
}

// WithEndTime bounds the schedule. No fire instant may equal or exceed end.
// Like the start time, end is kept at millisecond precision.
func WithEndTime(end time.Time) Option {
	return func(t *SimpleTrigger) {
		t.endTime, t.hasEndTime = toMillis(end), true
	}
}

// WithMisfireInstruction selects how UpdateAfterMisfire recovers a missed
// firing. The default is MisfireSmartPolicy.
func WithMisfireInstruction(instr MisfireInstruction) Option {
	return func(t *SimpleTrigger) {
		t.misfireInstr = instr
	}
}

// WithClock uses the provided Clock implementation instead of the default RealClock.
// This is useful for testing time-dependent behavior without waiting.
//
// Example usage:
//
//	clock := trigger.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
//	t, _ := trigger.New(start, trigger.RepeatIndefinitely, time.Minute, trigger.WithClock(clock))
//	clock.Advance(time.Hour)
//	t.UpdateAfterMisfire(nil) // recovers relative to the fake "now"
func WithClock(clock Clock) Option {
	return func(t *SimpleTrigger) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLogger uses the provided logger.
func WithLogger(logger Logger) Option {
	return func(t *SimpleTrigger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithObservability configures observability hooks for monitoring the
// trigger. Hooks are called synchronously from the owning goroutine.
//
// All hook callbacks are optional; nil callbacks are safely ignored.
//
// Example with Prometheus metrics:
//
//	collector := metrics.NewCollector(prometheus.DefaultRegisterer, nil)
//	t, _ := trigger.New(start, 5, time.Minute, trigger.WithObservability(collector.Hooks()))
func WithObservability(hooks ObservabilityHooks) Option {
	return func(t *SimpleTrigger) {
		t.hooks = &hooks
	}
}
