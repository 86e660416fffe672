package trigger

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// epoch is the start instant shared by most tests.
var epoch = time.Date(2026, 1, 18, 9, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return epoch.Add(d) }

// mustNew builds a trigger with a fake clock set to epoch and a discard
// logger, failing the test on a configuration error.
func mustNew(t *testing.T, repeat int, interval time.Duration, opts ...Option) (*SimpleTrigger, *FakeClock) {
	t.Helper()
	clock := NewFakeClock(epoch)
	base := []Option{WithClock(clock), WithLogger(DiscardLogger), WithKey("test")}
	tr, err := New(epoch, repeat, interval, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr, clock
}

// fireAll drives a seeded trigger until it stops, collecting at most limit
// delivered instants.
func fireAll(tr *SimpleTrigger, cal Calendar, limit int) []time.Time {
	var fired []time.Time
	for range limit {
		next, ok := tr.NextFireTime()
		if !ok {
			break
		}
		fired = append(fired, next)
		tr.Triggered(cal)
	}
	return fired
}

func assertInstant(t *testing.T, what string, got time.Time, ok bool, want time.Time) {
	t.Helper()
	if !ok {
		t.Errorf("%s: got none, want %v", what, want)
		return
	}
	if !got.Equal(want) {
		t.Errorf("%s: got %v, want %v", what, got, want)
	}
}

func assertNone(t *testing.T, what string, got time.Time, ok bool) {
	t.Helper()
	if ok {
		t.Errorf("%s: got %v, want none", what, got)
	}
}

// recordingLogger keeps every Info message.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) Info(msg string, keysAndValues ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, fmt.Sprintf("%s: %v", msg, err))
}

func (r *recordingLogger) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}
