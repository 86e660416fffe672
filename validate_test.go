package trigger

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		repeat   int
		interval time.Duration
		opts     []Option
		wantErr  error
		field    string
	}{
		{name: "one-shot", start: epoch, repeat: 0, interval: 0},
		{name: "one-shot ignores interval", start: epoch, repeat: 0, interval: time.Hour},
		{name: "finite", start: epoch, repeat: 3, interval: time.Millisecond},
		{name: "indefinite", start: epoch, repeat: RepeatIndefinitely, interval: time.Minute},
		{name: "end equal to start", start: epoch, repeat: 3, interval: time.Second, opts: []Option{WithEndTime(epoch)}},
		{name: "missing start", repeat: 0, wantErr: ErrMissingStartTime},
		{name: "negative repeat count", start: epoch, repeat: -2, interval: time.Second, wantErr: ErrNegativeRepeatCount, field: "repeatCount"},
		{name: "negative interval", start: epoch, repeat: 0, interval: -time.Second, wantErr: ErrNegativeInterval, field: "repeatInterval"},
		{name: "repeating with zero interval", start: epoch, repeat: 3, interval: 0, wantErr: ErrZeroInterval, field: "repeatInterval"},
		{name: "repeating below a millisecond", start: epoch, repeat: RepeatIndefinitely, interval: 999 * time.Microsecond, wantErr: ErrZeroInterval, field: "repeatInterval"},
		{name: "fractional millisecond interval", start: epoch, repeat: 5, interval: 1500 * time.Microsecond, wantErr: ErrFractionalInterval, field: "repeatInterval"},
		{name: "fractional interval on a one-shot", start: epoch, repeat: 0, interval: time.Second + time.Nanosecond, wantErr: ErrFractionalInterval, field: "repeatInterval"},
		{
			name: "end before start", start: epoch, repeat: 3, interval: time.Second,
			opts: []Option{WithEndTime(at(-time.Second))}, wantErr: ErrEndBeforeStart, field: "endTime",
		},
		{
			name: "unknown misfire instruction", start: epoch, repeat: 3, interval: time.Second,
			opts: []Option{WithMisfireInstruction(MisfireInstruction(9))}, wantErr: ErrUnknownMisfireInstruction, field: "misfireInstruction",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.start, tt.repeat, tt.interval, tt.opts...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if tr == nil {
					t.Fatal("New() returned nil trigger")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %T is not a *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestValidateAfterSetters(t *testing.T) {
	tr, _ := mustNew(t, 0, 0)

	if err := tr.SetRepeatCount(3); err != nil {
		t.Fatalf("SetRepeatCount: %v", err)
	}
	if err := tr.Validate(); !errors.Is(err, ErrZeroInterval) {
		t.Errorf("repeat 3 with zero interval: Validate() = %v, want ErrZeroInterval", err)
	}
	if err := tr.SetRepeatCount(0); err != nil {
		t.Fatalf("SetRepeatCount: %v", err)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("repeat 0 with zero interval: Validate() = %v", err)
	}
}

func TestSetters(t *testing.T) {
	tr, _ := mustNew(t, 3, time.Minute, WithEndTime(at(time.Hour)))

	if err := tr.SetStartTime(time.Time{}); !errors.Is(err, ErrMissingStartTime) {
		t.Errorf("SetStartTime(zero) = %v", err)
	}
	if err := tr.SetStartTime(at(2 * time.Hour)); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("SetStartTime past end = %v", err)
	}
	if err := tr.SetStartTime(at(time.Minute)); err != nil {
		t.Errorf("SetStartTime = %v", err)
	}
	if err := tr.SetEndTime(epoch); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("SetEndTime before start = %v", err)
	}
	if err := tr.SetRepeatCount(-5); !errors.Is(err, ErrNegativeRepeatCount) {
		t.Errorf("SetRepeatCount(-5) = %v", err)
	}
	if err := tr.SetRepeatInterval(-time.Second); !errors.Is(err, ErrNegativeInterval) {
		t.Errorf("SetRepeatInterval(-1s) = %v", err)
	}
	if err := tr.SetRepeatInterval(1500 * time.Microsecond); !errors.Is(err, ErrFractionalInterval) {
		t.Errorf("SetRepeatInterval(1.5ms) = %v", err)
	}
	if err := tr.SetMisfireInstruction(MisfireInstruction(-7)); !errors.Is(err, ErrUnknownMisfireInstruction) {
		t.Errorf("SetMisfireInstruction(-7) = %v", err)
	}

	// Rejected values leave the trigger as it was.
	if !tr.StartTime().Equal(at(time.Minute)) || tr.RepeatCount() != 3 || tr.RepeatInterval() != time.Minute ||
		tr.MisfireInstruction() != MisfireSmartPolicy {
		t.Errorf("rejected setter modified trigger: %+v", tr.State())
	}

	tr.ClearEndTime()
	if _, ok := tr.EndTime(); ok {
		t.Error("end time still set after ClearEndTime")
	}
	if err := tr.SetStartTime(at(2 * time.Hour)); err != nil {
		t.Errorf("SetStartTime without end = %v", err)
	}
	if err := tr.SetEndTime(at(3*time.Hour + 250*time.Microsecond)); err != nil {
		t.Errorf("SetEndTime = %v", err)
	}
	if end, _ := tr.EndTime(); !end.Equal(at(3 * time.Hour)) {
		t.Errorf("end = %v, want sub-millisecond precision dropped", end)
	}
	if err := tr.SetMisfireInstruction(MisfireIgnorePolicy); err != nil || tr.MisfireInstruction() != MisfireIgnorePolicy {
		t.Errorf("SetMisfireInstruction(ignore) = %v, got %s", err, tr.MisfireInstruction())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	_, err := New(epoch, 3, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "in repeatInterval: 0s") {
		t.Errorf("Error() = %q, want field and value", err.Error())
	}
	if ErrZeroInterval.Error() != ErrZeroInterval.Message {
		t.Errorf("sentinel Error() = %q", ErrZeroInterval.Error())
	}
	if errors.Is(err, ErrNegativeInterval) {
		t.Error("zero-interval error matched a different sentinel")
	}
}
