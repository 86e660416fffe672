package store

import (
	"context"
	"sort"
	"sync"
	"time"

	trigger "github.com/netresearch/go-trigger"
)

// Memory is an in-process Store. Snapshots are copied in and out, so a
// checked-out trigger never aliases stored state.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

// Add implements Store.
func (m *Memory) Add(_ context.Context, job, calendar string, t *trigger.SimpleTrigger) (string, error) {
	key := t.Key()
	if key == "" {
		key = NewKey()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		return "", ErrDuplicateKey
	}
	m.records[key] = &Record{Key: key, Job: job, Calendar: calendar, State: copyState(t.State())}
	return key, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	out := *rec
	out.State = copyState(rec.State)
	return out, nil
}

// Checkout implements Store.
func (m *Memory) Checkout(_ context.Context, key, owner string, opts ...trigger.Option) (*trigger.SimpleTrigger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Owner != "" && rec.Owner != owner {
		return nil, ErrCheckedOut
	}

	t, err := trigger.Restore(copyState(rec.State), append([]trigger.Option{trigger.WithKey(key)}, opts...)...)
	if err != nil {
		return nil, err
	}
	rec.Owner = owner
	return t, nil
}

// Return implements Store.
func (m *Memory) Return(_ context.Context, key, owner string, t *trigger.SimpleTrigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.held(key, owner)
	if err != nil {
		return err
	}
	rec.State = copyState(t.State())
	rec.Owner = ""
	return nil
}

// Release implements Store.
func (m *Memory) Release(_ context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.held(key, owner)
	if err != nil {
		return err
	}
	rec.Owner = ""
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; !ok {
		return ErrNotFound
	}
	delete(m.records, key)
	return nil
}

// MarkComplete implements Store.
func (m *Memory) MarkComplete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	rec.State.Complete = true
	return nil
}

// MarkJobTriggersComplete implements Store.
func (m *Memory) MarkJobTriggersComplete(_ context.Context, job string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.Job == job {
			rec.State.Complete = true
		}
	}
	return nil
}

// Due implements Store.
func (m *Memory) Due(_ context.Context, before time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type due struct {
		key  string
		next time.Time
	}
	var found []due
	for key, rec := range m.records {
		next := rec.State.NextFireTime
		if rec.Owner != "" || rec.State.Complete || next == nil || next.After(before) {
			continue
		}
		found = append(found, due{key: key, next: *next})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].next.Equal(found[j].next) {
			return found[i].key < found[j].key
		}
		return found[i].next.Before(found[j].next)
	})

	keys := make([]string, 0, len(found))
	for _, d := range found {
		keys = append(keys, d.key)
	}
	return keys, nil
}

// Close implements Store. The memory store holds no resources.
func (m *Memory) Close() error { return nil }

// held returns the record if owner holds its lease.
// Must be called with m.mu held.
func (m *Memory) held(key, owner string) (*Record, error) {
	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Owner != owner || owner == "" {
		return nil, ErrNotCheckedOut
	}
	return rec, nil
}

// copyState detaches the optional instants from the source.
func copyState(s trigger.State) trigger.State {
	s.EndTime = copyTime(s.EndTime)
	s.NextFireTime = copyTime(s.NextFireTime)
	s.PreviousFireTime = copyTime(s.PreviousFireTime)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
