package trigger

import (
	"math"
	"testing"
	"time"
)

func TestCountFirings(t *testing.T) {
	tests := []struct {
		name     string
		end      time.Time
		interval time.Duration
		want     int64
	}{
		{"same instant", epoch, time.Second, 0},
		{"just short of one interval", at(999 * time.Millisecond), time.Second, 0},
		{"exactly one interval", at(time.Second), time.Second, 1},
		{"truncates", at(25 * time.Second), 10 * time.Second, 2},
		{"end before start truncates toward zero", at(-5 * time.Second), 10 * time.Second, 0},
		{"end well before start", at(-25 * time.Second), 10 * time.Second, -2},
		{"zero interval", at(time.Hour), 0, 0},
		{"negative interval", at(time.Hour), -time.Second, 0},
		{"long horizon", at(24 * 365 * time.Hour), time.Millisecond, 24 * 365 * 3600 * 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countFirings(epoch, tt.end, tt.interval); got != tt.want {
				t.Errorf("countFirings = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInstantAtIndex(t *testing.T) {
	tests := []struct {
		index    int64
		interval time.Duration
		want     time.Time
		wantOK   bool
	}{
		{0, 10 * time.Second, epoch, true},
		{1, 10 * time.Second, at(10 * time.Second), true},
		{6, 10 * time.Second, at(time.Minute), true},
		{-1, 10 * time.Second, at(-10 * time.Second), true},
		{1_000_000, 24 * time.Hour, epoch.AddDate(0, 0, 1_000_000), true},
		{24 << 30, time.Hour, epoch.AddDate(0, 0, 1<<30), true},
		{math.MaxInt64 / 1000, time.Second, time.Time{}, false},
		{math.MaxInt64, time.Millisecond, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := instantAtIndex(epoch, tt.index, tt.interval)
		if ok != tt.wantOK {
			t.Errorf("instantAtIndex(%d, %v) ok = %v, want %v", tt.index, tt.interval, ok, tt.wantOK)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("instantAtIndex(%d, %v) = %v, want %v", tt.index, tt.interval, got, tt.want)
		}
	}
}

func TestInstantAtIndexKeepsLocation(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	start := epoch.In(cet)
	got, ok := instantAtIndex(start, 3, time.Hour)
	if !ok || got.Location() != cet || !got.Equal(at(3*time.Hour)) {
		t.Errorf("instantAtIndex = %v, %v; want %v in CET", got, ok, at(3*time.Hour))
	}
}

func TestCountFiringsBeyondDurationRange(t *testing.T) {
	tests := []struct {
		name     string
		end      time.Time
		interval time.Duration
		want     int64
	}{
		{"four centuries of hours", time.Date(2426, 1, 18, 9, 0, 0, 0, time.UTC), time.Hour, hoursBetween(epoch, time.Date(2426, 1, 18, 9, 0, 0, 0, time.UTC))},
		{"a million days", epoch.AddDate(0, 0, 1_000_000), 24 * time.Hour, 1_000_000},
		{"sub-millisecond end floors", at(1500 * time.Microsecond), time.Millisecond, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countFirings(epoch, tt.end, tt.interval); got != tt.want {
				t.Errorf("countFirings = %d, want %d", got, tt.want)
			}
		})
	}
}

// hoursBetween counts whole hours using calendar days, avoiding Duration.
func hoursBetween(from, to time.Time) int64 {
	days := int64(0)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days * 24
}

func TestToMillis(t *testing.T) {
	in := at(123*time.Millisecond + 456*time.Microsecond)
	if got := toMillis(in); !got.Equal(at(123 * time.Millisecond)) {
		t.Errorf("toMillis(%v) = %v", in, got)
	}
	if got := toMillis(time.Time{}); !got.IsZero() {
		t.Errorf("toMillis(zero) = %v, want zero", got)
	}
}
