package trigger

import (
	"sync"
	"time"
)

// Clock supplies the current instant wherever a trigger needs "now":
// when FireTimeAfter is asked about an absent reference, during misfire
// recovery and while reconciling a changed calendar.
//
// Injecting a Clock keeps those operations deterministic under test.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
// This is the default clock used in production.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ClockFunc adapts an ordinary function to the Clock interface.
//
//	t, _ := trigger.New(start, 3, time.Minute, trigger.WithClock(trigger.ClockFunc(time.Now)))
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// FakeClock provides a controllable clock for testing.
// It is safe for concurrent use, so a test may advance it while another
// goroutine owns the trigger that reads it.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a new FakeClock initialized to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the fake clock's current time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set sets the fake clock to the specified time.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the fake clock by the specified duration. Negative
// durations move it backwards.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
