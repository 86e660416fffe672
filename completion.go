package trigger

// ExecutionOutcome carries the signals a finished job execution hands
// back to the trigger. A nil outcome means none of them were raised.
type ExecutionOutcome struct {
	// RefireImmediately asks for the job to run again right away.
	RefireImmediately bool
	// UnscheduleFiringTrigger retires the trigger that fired.
	UnscheduleFiringTrigger bool
	// UnscheduleAllTriggers retires every trigger of the job.
	UnscheduleAllTriggers bool
}

// CompletedExecutionInstruction tells the owner what to do with the
// trigger after an execution.
type CompletedExecutionInstruction int

const (
	// InstructionNoop leaves the trigger scheduled.
	InstructionNoop CompletedExecutionInstruction = iota
	// InstructionReExecuteJob runs the job again immediately.
	InstructionReExecuteJob
	// InstructionSetTriggerComplete marks this trigger complete.
	InstructionSetTriggerComplete
	// InstructionDeleteTrigger removes the trigger; it will not fire again.
	InstructionDeleteTrigger
	// InstructionSetAllJobTriggersComplete marks every trigger of the job
	// complete.
	InstructionSetAllJobTriggersComplete
)

// String returns a human-readable representation of the instruction.
func (i CompletedExecutionInstruction) String() string {
	switch i {
	case InstructionNoop:
		return "Noop"
	case InstructionReExecuteJob:
		return "ReExecuteJob"
	case InstructionSetTriggerComplete:
		return "SetTriggerComplete"
	case InstructionDeleteTrigger:
		return "DeleteTrigger"
	case InstructionSetAllJobTriggersComplete:
		return "SetAllJobTriggersComplete"
	default:
		return "Unknown"
	}
}

// ExecutionComplete decides, once per execution, what the owner should do
// with the trigger next. Signals from the outcome win in the order
// refire, unschedule this trigger, unschedule all triggers; otherwise an
// exhausted trigger is deleted and a live one left alone.
func (t *SimpleTrigger) ExecutionComplete(outcome *ExecutionOutcome) CompletedExecutionInstruction {
	instr := t.resolveCompletion(outcome)
	t.hooks.callOnComplete(t.key, instr)
	return instr
}

func (t *SimpleTrigger) resolveCompletion(outcome *ExecutionOutcome) CompletedExecutionInstruction {
	if outcome != nil {
		switch {
		case outcome.RefireImmediately:
			return InstructionReExecuteJob
		case outcome.UnscheduleFiringTrigger:
			return InstructionSetTriggerComplete
		case outcome.UnscheduleAllTriggers:
			return InstructionSetAllJobTriggersComplete
		}
	}
	if !t.MayFireAgain() {
		return InstructionDeleteTrigger
	}
	return InstructionNoop
}
