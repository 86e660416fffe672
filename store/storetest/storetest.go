// Package storetest provides a conformance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trigger "github.com/netresearch/go-trigger"
	"github.com/netresearch/go-trigger/store"
)

// Epoch is the fixed start instant used by the suite. It has no
// sub-millisecond part so stores with millisecond precision round-trip it.
var Epoch = time.Date(2026, 1, 18, 9, 0, 0, 0, time.UTC)

// Run exercises newStore against the store.Store contract. newStore must
// return an empty store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AddAndGet", testAddAndGet},
		{"GeneratedKey", testGeneratedKey},
		{"DuplicateKey", testDuplicateKey},
		{"CheckoutIsExclusive", testCheckoutIsExclusive},
		{"ReturnPersistsProgress", testReturnPersistsProgress},
		{"ReleaseDiscardsChanges", testReleaseDiscardsChanges},
		{"Due", testDue},
		{"CompletionInstructions", testCompletionInstructions},
		{"RecoverMisfires", testRecoverMisfires},
		{"NotFound", testNotFound},
		{"ReplayMatchesOriginal", testReplayMatchesOriginal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newTrigger(t *testing.T, key string, repeat int, interval time.Duration, opts ...trigger.Option) *trigger.SimpleTrigger {
	t.Helper()
	tr, err := trigger.New(Epoch, repeat, interval, append([]trigger.Option{trigger.WithKey(key)}, opts...)...)
	require.NoError(t, err)
	tr.ComputeFirstFireTime(nil)
	return tr
}

func testAddAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	end := Epoch.Add(55 * time.Second)
	tr := newTrigger(t, "report", 10, 10*time.Second,
		trigger.WithEndTime(end),
		trigger.WithMisfireInstruction(trigger.MisfireRescheduleNextWithExistingCount))

	key, err := s.Add(ctx, "reports", "* * 12 * * *", tr)
	require.NoError(t, err)
	assert.Equal(t, "report", key)

	rec, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "reports", rec.Job)
	assert.Equal(t, "* * 12 * * *", rec.Calendar)
	assert.Empty(t, rec.Owner)
	assert.True(t, rec.State.StartTime.Equal(Epoch))
	require.NotNil(t, rec.State.EndTime)
	assert.True(t, rec.State.EndTime.Equal(end))
	assert.Equal(t, 10, rec.State.RepeatCount)
	assert.Equal(t, 10*time.Second, rec.State.RepeatInterval)
	require.NotNil(t, rec.State.NextFireTime)
	assert.True(t, rec.State.NextFireTime.Equal(Epoch))
	assert.Nil(t, rec.State.PreviousFireTime)
	assert.Equal(t, trigger.MisfireRescheduleNextWithExistingCount, rec.State.MisfireInstruction)

	cal, err := rec.CalendarFor()
	require.NoError(t, err)
	assert.NotNil(t, cal)
}

// A trigger reloaded from the store must produce exactly the instants the
// original would have, even when it was built from sub-millisecond inputs.
func testReplayMatchesOriginal(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := trigger.New(Epoch, 5, 1500*time.Microsecond)
	require.ErrorIs(t, err, trigger.ErrFractionalInterval)

	start := Epoch.Add(123*time.Millisecond + 456*time.Microsecond)
	end := Epoch.Add(10*time.Second + 789*time.Microsecond)
	tr, err := trigger.New(start, trigger.RepeatIndefinitely, 1500*time.Millisecond,
		trigger.WithKey("precise"), trigger.WithEndTime(end))
	require.NoError(t, err)
	tr.ComputeFirstFireTime(nil)
	tr.Triggered(nil)
	tr.Triggered(nil)

	_, err = s.Add(ctx, "job", "", tr)
	require.NoError(t, err)

	rec, err := s.Get(ctx, "precise")
	require.NoError(t, err)
	want := tr.State()
	assert.True(t, rec.State.StartTime.Equal(want.StartTime), "start %v, want %v", rec.State.StartTime, want.StartTime)
	assert.Equal(t, want.RepeatInterval, rec.State.RepeatInterval)
	assert.Equal(t, want.TimesTriggered, rec.State.TimesTriggered)
	for name, pair := range map[string][2]*time.Time{
		"end":  {want.EndTime, rec.State.EndTime},
		"next": {want.NextFireTime, rec.State.NextFireTime},
		"prev": {want.PreviousFireTime, rec.State.PreviousFireTime},
	} {
		require.NotNil(t, pair[1], name)
		assert.True(t, pair[0].Equal(*pair[1]), "%s %v, want %v", name, *pair[1], *pair[0])
	}

	replayed, err := s.Checkout(ctx, "precise", "worker")
	require.NoError(t, err)
	assert.Equal(t, drain(tr), drain(replayed))
}

// drain fires t until it stops and returns the instants as Unix
// milliseconds.
func drain(t *trigger.SimpleTrigger) []int64 {
	var fired []int64
	for {
		next, ok := t.NextFireTime()
		if !ok {
			return fired
		}
		fired = append(fired, next.UnixMilli())
		t.Triggered(nil)
	}
}

func testGeneratedKey(t *testing.T, s store.Store) {
	tr := newTrigger(t, "", 0, 0)
	key, err := s.Add(context.Background(), "job", "", tr)
	require.NoError(t, err)
	assert.Len(t, key, 36)
}

func testDuplicateKey(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Add(ctx, "job", "", newTrigger(t, "dup", 0, 0))
	require.NoError(t, err)
	_, err = s.Add(ctx, "job", "", newTrigger(t, "dup", 0, 0))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func testCheckoutIsExclusive(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Add(ctx, "job", "", newTrigger(t, "t1", 3, time.Minute))
	require.NoError(t, err)

	tr, err := s.Checkout(ctx, "t1", "worker-a")
	require.NoError(t, err)
	assert.Equal(t, "t1", tr.Key())

	_, err = s.Checkout(ctx, "t1", "worker-b")
	assert.ErrorIs(t, err, store.ErrCheckedOut)

	err = s.Return(ctx, "t1", "worker-b", tr)
	assert.ErrorIs(t, err, store.ErrNotCheckedOut)

	require.NoError(t, s.Release(ctx, "t1", "worker-a"))
	_, err = s.Checkout(ctx, "t1", "worker-b")
	assert.NoError(t, err)
}

func testReturnPersistsProgress(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Add(ctx, "job", "", newTrigger(t, "t1", 3, time.Minute))
	require.NoError(t, err)

	tr, err := s.Checkout(ctx, "t1", "worker")
	require.NoError(t, err)
	tr.Triggered(nil)
	tr.Triggered(nil)
	require.NoError(t, s.Return(ctx, "t1", "worker", tr))

	rec, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, rec.Owner)
	assert.Equal(t, 2, rec.State.TimesTriggered)
	require.NotNil(t, rec.State.NextFireTime)
	assert.True(t, rec.State.NextFireTime.Equal(Epoch.Add(2*time.Minute)))
	require.NotNil(t, rec.State.PreviousFireTime)
	assert.True(t, rec.State.PreviousFireTime.Equal(Epoch.Add(time.Minute)))

	again, err := s.Checkout(ctx, "t1", "worker")
	require.NoError(t, err)
	next, ok := again.NextFireTime()
	require.True(t, ok)
	assert.True(t, next.Equal(Epoch.Add(2*time.Minute)))
	assert.Equal(t, 2, again.TimesTriggered())
}

func testReleaseDiscardsChanges(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Add(ctx, "job", "", newTrigger(t, "t1", 3, time.Minute))
	require.NoError(t, err)

	tr, err := s.Checkout(ctx, "t1", "worker")
	require.NoError(t, err)
	tr.Triggered(nil)
	require.NoError(t, s.Release(ctx, "t1", "worker"))

	rec, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.State.TimesTriggered)
}

func testDue(t *testing.T, s store.Store) {
	ctx := context.Background()
	late := newTrigger(t, "late", trigger.RepeatIndefinitely, time.Minute)
	late.Triggered(nil) // next: Epoch+1m
	_, err := s.Add(ctx, "job", "", late)
	require.NoError(t, err)
	_, err = s.Add(ctx, "job", "", newTrigger(t, "early", 0, 0)) // next: Epoch
	require.NoError(t, err)
	done := newTrigger(t, "done", 0, 0)
	done.Triggered(nil) // exhausted
	_, err = s.Add(ctx, "job", "", done)
	require.NoError(t, err)

	keys, err := s.Due(ctx, Epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, keys)

	keys, err = s.Due(ctx, Epoch)
	require.NoError(t, err)
	assert.Equal(t, []string{"early"}, keys)

	_, err = s.Checkout(ctx, "early", "worker")
	require.NoError(t, err)
	keys, err = s.Due(ctx, Epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, keys)
}

func testCompletionInstructions(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		job := "job-1"
		if key == "c" {
			job = "job-2"
		}
		_, err := s.Add(ctx, job, "", newTrigger(t, key, trigger.RepeatIndefinitely, time.Minute))
		require.NoError(t, err)
	}

	a, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, store.Apply(ctx, s, a, trigger.InstructionNoop))
	require.NoError(t, store.Apply(ctx, s, a, trigger.InstructionReExecuteJob))
	rec, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, rec.State.Complete)

	require.NoError(t, store.Apply(ctx, s, a, trigger.InstructionSetTriggerComplete))
	rec, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, rec.State.Complete)

	tr, err := s.Checkout(ctx, "a", "worker")
	require.NoError(t, err)
	assert.True(t, tr.IsComplete())
	_, ok := tr.FireTimeAfter(Epoch)
	assert.False(t, ok, "complete trigger must not produce fire times")
	require.NoError(t, s.Release(ctx, "a", "worker"))

	require.NoError(t, store.Apply(ctx, s, a, trigger.InstructionSetAllJobTriggersComplete))
	b, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, b.State.Complete)
	c, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.False(t, c.State.Complete)

	require.NoError(t, store.Apply(ctx, s, c, trigger.InstructionDeleteTrigger))
	_, err = s.Get(ctx, "c")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRecoverMisfires(t *testing.T, s store.Store) {
	ctx := context.Background()
	clock := trigger.NewFakeClock(Epoch.Add(10*time.Minute + 30*time.Second))

	// Missed Epoch..Epoch+10m; smart policy on an indefinite trigger
	// reschedules to the next regular instant and charges the misses.
	_, err := s.Add(ctx, "job", "", newTrigger(t, "indef", trigger.RepeatIndefinitely, time.Minute))
	require.NoError(t, err)
	// Due 20s ago, inside the threshold: left alone.
	fresh := newTrigger(t, "fresh", 0, 0)
	fresh.SetNextFireTime(clock.Now().Add(-20*time.Second), true)
	_, err = s.Add(ctx, "job", "", fresh)
	require.NoError(t, err)

	keys, err := store.RecoverMisfires(ctx, s, "recoverer", time.Minute, clock)
	require.NoError(t, err)
	assert.Equal(t, []string{"indef"}, keys)

	rec, err := s.Get(ctx, "indef")
	require.NoError(t, err)
	assert.Empty(t, rec.Owner)
	require.NotNil(t, rec.State.NextFireTime)
	assert.True(t, rec.State.NextFireTime.Equal(Epoch.Add(11*time.Minute)))
	assert.Equal(t, 11, rec.State.TimesTriggered)

	rec, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, rec.State.NextFireTime)
	assert.True(t, rec.State.NextFireTime.Equal(clock.Now().Add(-20*time.Second)))
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Checkout(ctx, "missing", "worker")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), store.ErrNotFound)
	assert.ErrorIs(t, s.MarkComplete(ctx, "missing"), store.ErrNotFound)
	assert.ErrorIs(t, s.Release(ctx, "missing", "worker"), store.ErrNotFound)
}
