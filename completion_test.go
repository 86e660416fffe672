package trigger

import (
	"testing"
	"time"
)

func TestExecutionComplete(t *testing.T) {
	tests := []struct {
		name      string
		exhausted bool
		outcome   *ExecutionOutcome
		want      CompletedExecutionInstruction
	}{
		{"nil outcome on a live trigger", false, nil, InstructionNoop},
		{"empty outcome on a live trigger", false, &ExecutionOutcome{}, InstructionNoop},
		{"nil outcome on an exhausted trigger", true, nil, InstructionDeleteTrigger},
		{"refire", false, &ExecutionOutcome{RefireImmediately: true}, InstructionReExecuteJob},
		{"refire wins over unschedule", true, &ExecutionOutcome{RefireImmediately: true, UnscheduleFiringTrigger: true, UnscheduleAllTriggers: true}, InstructionReExecuteJob},
		{"unschedule firing trigger", false, &ExecutionOutcome{UnscheduleFiringTrigger: true}, InstructionSetTriggerComplete},
		{"unschedule firing wins over all", false, &ExecutionOutcome{UnscheduleFiringTrigger: true, UnscheduleAllTriggers: true}, InstructionSetTriggerComplete},
		{"unschedule all", true, &ExecutionOutcome{UnscheduleAllTriggers: true}, InstructionSetAllJobTriggersComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := mustNew(t, 1, time.Minute)
			tr.ComputeFirstFireTime(nil)
			if tt.exhausted {
				fireAll(tr, nil, 10)
			}
			if got := tr.ExecutionComplete(tt.outcome); got != tt.want {
				t.Errorf("ExecutionComplete() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExecutionCompleteDoesNotMutate(t *testing.T) {
	tr, _ := mustNew(t, 1, time.Minute)
	tr.ComputeFirstFireTime(nil)
	before := tr.State()
	tr.ExecutionComplete(&ExecutionOutcome{UnscheduleFiringTrigger: true})
	if !statesEqual(before, tr.State()) {
		t.Error("ExecutionComplete changed trigger state")
	}
}

func TestCompletedExecutionInstructionString(t *testing.T) {
	tests := []struct {
		instr CompletedExecutionInstruction
		want  string
	}{
		{InstructionNoop, "Noop"},
		{InstructionReExecuteJob, "ReExecuteJob"},
		{InstructionSetTriggerComplete, "SetTriggerComplete"},
		{InstructionDeleteTrigger, "DeleteTrigger"},
		{InstructionSetAllJobTriggersComplete, "SetAllJobTriggersComplete"},
		{CompletedExecutionInstruction(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.instr.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.instr), got, tt.want)
		}
	}
}
