package trigger

import (
	"slices"
	"testing"
	"time"
)

func TestComputeFireTimes(t *testing.T) {
	tr, _ := mustNew(t, 10, 10*time.Second, WithEndTime(at(55*time.Second)))

	got := ComputeFireTimes(tr, nil, 20)
	want := []time.Time{epoch, at(10 * time.Second), at(20 * time.Second), at(30 * time.Second), at(40 * time.Second), at(50 * time.Second)}
	if !slices.EqualFunc(got, want, time.Time.Equal) {
		t.Errorf("ComputeFireTimes = %v, want %v", got, want)
	}

	if got := ComputeFireTimes(tr, nil, 2); len(got) != 2 {
		t.Errorf("ComputeFireTimes(n=2) returned %d instants", len(got))
	}
	if got := ComputeFireTimes(tr, nil, 0); got != nil {
		t.Errorf("ComputeFireTimes(n=0) = %v, want nil", got)
	}
	if got := ComputeFireTimes(nil, nil, 5); got != nil {
		t.Errorf("ComputeFireTimes(nil) = %v, want nil", got)
	}
}

func TestComputeFireTimesLeavesTriggerAlone(t *testing.T) {
	tr, _ := mustNew(t, 5, time.Minute)
	tr.ComputeFirstFireTime(nil)
	fireAll(tr, nil, 2)
	before := tr.State()

	// Previews start from the schedule origin, not from current progress.
	got := ComputeFireTimes(tr, nil, 10)
	if len(got) != 6 || !got[0].Equal(epoch) {
		t.Errorf("ComputeFireTimes = %v", got)
	}
	if !statesEqual(before, tr.State()) {
		t.Error("preview modified the trigger")
	}
}

func TestComputeFireTimesHonorsCalendar(t *testing.T) {
	cal := CalendarFunc(func(x time.Time) bool { return x.Minute()%2 == 0 })
	tr, _ := mustNew(t, RepeatIndefinitely, time.Minute)

	got := ComputeFireTimes(tr, cal, 3)
	want := []time.Time{epoch, at(2 * time.Minute), at(4 * time.Minute)}
	if !slices.EqualFunc(got, want, time.Time.Equal) {
		t.Errorf("ComputeFireTimes = %v, want %v", got, want)
	}
}

func TestComputeFireTimesBetween(t *testing.T) {
	tests := []struct {
		name   string
		repeat int
		from   time.Time
		to     time.Time
		limit  int
		want   []time.Time
	}{
		{
			name: "inclusive range", repeat: RepeatIndefinitely,
			from: at(time.Minute), to: at(3 * time.Minute),
			want: []time.Time{at(time.Minute), at(2 * time.Minute), at(3 * time.Minute)},
		},
		{
			name: "limit", repeat: RepeatIndefinitely,
			from: at(30 * time.Second), to: at(time.Hour), limit: 2,
			want: []time.Time{at(time.Minute), at(2 * time.Minute)},
		},
		{
			name: "range past the last repeat", repeat: 2,
			from: at(time.Minute), to: at(time.Hour),
			want: []time.Time{at(time.Minute), at(2 * time.Minute)},
		},
		{
			name: "range before start", repeat: RepeatIndefinitely,
			from: at(-time.Hour), to: at(-time.Minute),
			want: nil,
		},
		{
			name: "from after to", repeat: RepeatIndefinitely,
			from: at(time.Hour), to: epoch,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := mustNew(t, tt.repeat, time.Minute)
			got := ComputeFireTimesBetween(tr, nil, tt.from, tt.to, tt.limit)
			if !slices.EqualFunc(got, tt.want, time.Time.Equal) {
				t.Errorf("ComputeFireTimesBetween = %v, want %v", got, tt.want)
			}
		})
	}

	// A range decades after the start is reached without stepping through
	// every earlier firing.
	tr, _ := mustNew(t, RepeatIndefinitely, time.Second)
	from := epoch.AddDate(30, 0, 0).Add(1500 * time.Millisecond)
	got := ComputeFireTimesBetween(tr, nil, from, from.Add(time.Hour), 3)
	want := []time.Time{from.Add(500 * time.Millisecond), from.Add(1500 * time.Millisecond), from.Add(2500 * time.Millisecond)}
	if !slices.EqualFunc(got, want, time.Time.Equal) {
		t.Errorf("distant range = %v, want %v", got, want)
	}

	cal, err := NewCronCalendar("0-29 * * * * *", nil)
	if err != nil {
		t.Fatalf("NewCronCalendar: %v", err)
	}
	from = epoch.AddDate(30, 0, 0)
	got = ComputeFireTimesBetween(tr, cal, from, from.Add(time.Hour), 2)
	want = []time.Time{from.Add(30 * time.Second), from.Add(31 * time.Second)}
	if !slices.EqualFunc(got, want, time.Time.Equal) {
		t.Errorf("distant range with calendar = %v, want %v", got, want)
	}

	if got := ComputeFireTimesBetween(nil, nil, epoch, at(time.Hour), 0); got != nil {
		t.Errorf("nil trigger = %v", got)
	}
}
