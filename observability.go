package trigger

import "time"

// ObservabilityHooks provides callbacks for monitoring a trigger.
// All callbacks are optional; nil callbacks are safely ignored.
//
// Hooks are called synchronously by whichever goroutine owns the trigger,
// so implementations should be lightweight or dispatch to a separate
// goroutine for expensive operations.
type ObservabilityHooks struct {
	// OnFired is called by Triggered after the schedule has moved on.
	// Parameters:
	//   - key: the trigger key (see WithKey), or empty string
	//   - fired: the instant that was delivered
	//   - next: the new next fire time, valid only when ok is true
	OnFired func(key string, fired, next time.Time, ok bool)

	// OnMisfire is called by UpdateAfterMisfire after recovery.
	// Parameters:
	//   - key: the trigger key, or empty string
	//   - requested: the configured instruction
	//   - applied: the concrete instruction that was applied
	//   - late: how far the missed fire time lay behind now
	//   - next: the new next fire time, valid only when ok is true
	OnMisfire func(key string, requested, applied MisfireInstruction, late time.Duration, next time.Time, ok bool)

	// OnComplete is called by ExecutionComplete with its answer.
	OnComplete func(key string, instr CompletedExecutionInstruction)
}

func (h *ObservabilityHooks) callOnFired(key string, fired, next time.Time, ok bool) {
	if h != nil && h.OnFired != nil {
		h.OnFired(key, fired, next, ok)
	}
}

func (h *ObservabilityHooks) callOnMisfire(key string, requested, applied MisfireInstruction, late time.Duration, next time.Time, ok bool) {
	if h != nil && h.OnMisfire != nil {
		h.OnMisfire(key, requested, applied, late, next, ok)
	}
}

func (h *ObservabilityHooks) callOnComplete(key string, instr CompletedExecutionInstruction) {
	if h != nil && h.OnComplete != nil {
		h.OnComplete(key, instr)
	}
}
