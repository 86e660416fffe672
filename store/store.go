// Package store keeps trigger state between firings and serializes access
// to it. A trigger is only ever mutated by the owner that checked it out;
// everyone else sees the last returned snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	trigger "github.com/netresearch/go-trigger"
)

var (
	// ErrNotFound is returned when no trigger is stored under a key.
	ErrNotFound = errors.New("store: trigger not found")
	// ErrDuplicateKey is returned by Add for a key that is already stored.
	ErrDuplicateKey = errors.New("store: duplicate trigger key")
	// ErrCheckedOut is returned when another owner holds the trigger.
	ErrCheckedOut = errors.New("store: trigger checked out by another owner")
	// ErrNotCheckedOut is returned by Return and Release when the caller
	// does not hold the trigger.
	ErrNotCheckedOut = errors.New("store: trigger not checked out by owner")
)

// Record is the stored form of a trigger.
type Record struct {
	Key string
	// Job identifies the unit of work the trigger fires.
	Job string
	// Calendar is an optional cron expression of excluded instants
	// (see trigger.NewCronCalendar).
	Calendar string
	State    trigger.State
	// Owner is the current lease holder, empty when available.
	Owner string
}

// Store persists triggers and hands them out one owner at a time.
type Store interface {
	// Add stores a new trigger for job. The key is the trigger's Key, or
	// a random UUID when that is empty.
	Add(ctx context.Context, job, calendar string, t *trigger.SimpleTrigger) (string, error)
	// Get returns the last returned snapshot without taking a lease.
	Get(ctx context.Context, key string) (Record, error)
	// Checkout leases the trigger to owner and rebuilds it from its
	// snapshot. Options are applied after the stored schedule.
	Checkout(ctx context.Context, key, owner string, opts ...trigger.Option) (*trigger.SimpleTrigger, error)
	// Return persists the owner's mutations and releases the lease.
	Return(ctx context.Context, key, owner string, t *trigger.SimpleTrigger) error
	// Release drops the lease without persisting anything.
	Release(ctx context.Context, key, owner string) error
	// Delete removes the trigger regardless of leases.
	Delete(ctx context.Context, key string) error
	// MarkComplete sets the terminal flag on the stored trigger.
	MarkComplete(ctx context.Context, key string) error
	// MarkJobTriggersComplete sets the terminal flag on every trigger of job.
	MarkJobTriggersComplete(ctx context.Context, job string) error
	// Due lists available, incomplete triggers whose next fire time is at
	// or before the given instant, earliest first.
	Due(ctx context.Context, before time.Time) ([]string, error)
	Close() error
}

// NewKey returns a fresh trigger key.
func NewKey() string {
	return uuid.NewString()
}

// CalendarFor builds the calendar of a record, nil when it has none.
func (r Record) CalendarFor() (trigger.Calendar, error) {
	if r.Calendar == "" {
		return nil, nil
	}
	cal, err := trigger.NewCronCalendar(r.Calendar, nil)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

// Apply carries out a completion instruction against the store. Noop and
// re-execute leave the store untouched; the owner handles re-execution.
func Apply(ctx context.Context, s Store, rec Record, instr trigger.CompletedExecutionInstruction) error {
	switch instr {
	case trigger.InstructionDeleteTrigger:
		return s.Delete(ctx, rec.Key)
	case trigger.InstructionSetTriggerComplete:
		return s.MarkComplete(ctx, rec.Key)
	case trigger.InstructionSetAllJobTriggersComplete:
		return s.MarkJobTriggersComplete(ctx, rec.Job)
	}
	return nil
}

// RecoverMisfires checks out every due trigger whose next fire time lies
// at least threshold before the clock's now, applies its misfire
// instruction and returns it. Triggers held by other owners are skipped.
// It returns the keys that were recovered.
func RecoverMisfires(ctx context.Context, s Store, owner string, threshold time.Duration, clock trigger.Clock, opts ...trigger.Option) ([]string, error) {
	now := clock.Now()
	opts = append([]trigger.Option{trigger.WithClock(clock)}, opts...)

	keys, err := s.Due(ctx, now.Add(-threshold))
	if err != nil {
		return nil, err
	}

	var recovered []string
	for _, key := range keys {
		rec, err := s.Get(ctx, key)
		if err != nil {
			return recovered, err
		}
		cal, err := rec.CalendarFor()
		if err != nil {
			return recovered, fmt.Errorf("trigger %s: %w", key, err)
		}

		t, err := s.Checkout(ctx, key, owner, opts...)
		if errors.Is(err, ErrCheckedOut) || errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return recovered, err
		}

		next, ok := t.NextFireTime()
		if !ok || next.After(now.Add(-threshold)) {
			if err := s.Release(ctx, key, owner); err != nil {
				return recovered, err
			}
			continue
		}

		t.UpdateAfterMisfire(cal)
		if err := s.Return(ctx, key, owner, t); err != nil {
			return recovered, err
		}
		recovered = append(recovered, key)
	}
	return recovered, nil
}
