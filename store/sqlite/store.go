// Package sqlite implements store.Store on SQLite through the pure-Go
// modernc.org/sqlite driver. Instants and intervals are kept with
// millisecond precision.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	trigger "github.com/netresearch/go-trigger"
	"github.com/netresearch/go-trigger/store"
	"github.com/netresearch/go-trigger/store/sqlite/migrations"
)

// Store is a SQLite-backed store.Store. Leases are taken with a
// conditional UPDATE, so two processes sharing the database file cannot
// check out the same trigger.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at dsn and applies
// migrations. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite prefers a single writer; this also keeps ":memory:" databases
	// on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add implements store.Store.
func (s *Store) Add(ctx context.Context, job, calendar string, t *trigger.SimpleTrigger) (string, error) {
	key := t.Key()
	if key == "" {
		key = store.NewKey()
	}
	st := t.State()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM triggers WHERE key = ?`, key).Scan(&exists)
	if err == nil {
		return "", store.ErrDuplicateKey
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checking trigger %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triggers (key, job, calendar, start_ms, end_ms, repeat_count, interval_ms,
			times_triggered, next_ms, prev_ms, complete, misfire)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key, job, calendar, st.StartTime.UnixMilli(), nullMillis(st.EndTime), st.RepeatCount,
		st.RepeatInterval.Milliseconds(), st.TimesTriggered, nullMillis(st.NextFireTime),
		nullMillis(st.PreviousFireTime), st.Complete, int(st.MisfireInstruction))
	if err != nil {
		return "", fmt.Errorf("inserting trigger %s: %w", key, err)
	}
	return key, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, job, calendar, start_ms, end_ms, repeat_count, interval_ms,
			times_triggered, next_ms, prev_ms, complete, misfire, owner
		FROM triggers WHERE key = ?
	`, key)
	return scanRecord(row)
}

// Checkout implements store.Store.
func (s *Store) Checkout(ctx context.Context, key, owner string, opts ...trigger.Option) (*trigger.SimpleTrigger, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE triggers SET owner = ? WHERE key = ? AND (owner = '' OR owner = ?)`,
		owner, key, owner)
	if err != nil {
		return nil, fmt.Errorf("leasing trigger %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		if _, err := s.Get(ctx, key); err != nil {
			return nil, err
		}
		return nil, store.ErrCheckedOut
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	t, err := trigger.Restore(rec.State, append([]trigger.Option{trigger.WithKey(key)}, opts...)...)
	if err != nil {
		_ = s.Release(ctx, key, owner)
		return nil, err
	}
	return t, nil
}

// Return implements store.Store.
func (s *Store) Return(ctx context.Context, key, owner string, t *trigger.SimpleTrigger) error {
	if owner == "" {
		return store.ErrNotCheckedOut
	}
	st := t.State()
	res, err := s.db.ExecContext(ctx, `
		UPDATE triggers SET start_ms = ?, end_ms = ?, repeat_count = ?, interval_ms = ?,
			times_triggered = ?, next_ms = ?, prev_ms = ?, complete = ?, misfire = ?, owner = ''
		WHERE key = ? AND owner = ?
	`, st.StartTime.UnixMilli(), nullMillis(st.EndTime), st.RepeatCount, st.RepeatInterval.Milliseconds(),
		st.TimesTriggered, nullMillis(st.NextFireTime), nullMillis(st.PreviousFireTime), st.Complete,
		int(st.MisfireInstruction), key, owner)
	if err != nil {
		return fmt.Errorf("returning trigger %s: %w", key, err)
	}
	return s.expectOne(ctx, res, key, store.ErrNotCheckedOut)
}

// Release implements store.Store.
func (s *Store) Release(ctx context.Context, key, owner string) error {
	if owner == "" {
		return store.ErrNotCheckedOut
	}
	res, err := s.db.ExecContext(ctx, `UPDATE triggers SET owner = '' WHERE key = ? AND owner = ?`, key, owner)
	if err != nil {
		return fmt.Errorf("releasing trigger %s: %w", key, err)
	}
	return s.expectOne(ctx, res, key, store.ErrNotCheckedOut)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM triggers WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting trigger %s: %w", key, err)
	}
	return s.expectOne(ctx, res, key, store.ErrNotFound)
}

// MarkComplete implements store.Store.
func (s *Store) MarkComplete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE triggers SET complete = 1 WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("completing trigger %s: %w", key, err)
	}
	return s.expectOne(ctx, res, key, store.ErrNotFound)
}

// MarkJobTriggersComplete implements store.Store.
func (s *Store) MarkJobTriggersComplete(ctx context.Context, job string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE triggers SET complete = 1 WHERE job = ?`, job); err != nil {
		return fmt.Errorf("completing triggers of job %s: %w", job, err)
	}
	return nil
}

// Due implements store.Store.
func (s *Store) Due(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM triggers
		WHERE complete = 0 AND owner = '' AND next_ms IS NOT NULL AND next_ms <= ?
		ORDER BY next_ms, key
	`, before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("querying due triggers: %w", err)
	}
	defer rows.Close()

	var keys []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning due trigger: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating due triggers: %w", err)
	}
	return keys, nil
}

// expectOne maps a zero-row update to missing (ErrNotFound) or to the
// supplied lease error when the row exists.
func (s *Store) expectOne(ctx context.Context, res sql.Result, key string, leaseErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	return leaseErr
}

func scanRecord(row *sql.Row) (store.Record, error) {
	var (
		rec                   store.Record
		startMS, intervalMS   int64
		endMS, nextMS, prevMS sql.NullInt64
		misfire               int
	)
	err := row.Scan(&rec.Key, &rec.Job, &rec.Calendar, &startMS, &endMS, &rec.State.RepeatCount,
		&intervalMS, &rec.State.TimesTriggered, &nextMS, &prevMS, &rec.State.Complete, &misfire, &rec.Owner)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("scanning trigger: %w", err)
	}

	rec.State.StartTime = time.UnixMilli(startMS).UTC()
	rec.State.EndTime = fromMillis(endMS)
	rec.State.RepeatInterval = time.Duration(intervalMS) * time.Millisecond
	rec.State.NextFireTime = fromMillis(nextMS)
	rec.State.PreviousFireTime = fromMillis(prevMS)
	rec.State.MisfireInstruction = trigger.MisfireInstruction(misfire)
	return rec, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
