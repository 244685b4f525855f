/*
Package sqlite provides the SQLite-backed plan.Store.

PURPOSE:
  Durable persistence for jobs, schedules and the edit history. The
  same patterns apply to PostgreSQL in production - only minor SQL
  dialect differences.

KEY TABLES:
  jobs:           One row per production job
  schedule_weeks: One row per (job, week); the committed split + locks
  edit_log:       Append-only history of commits, lock toggles, resets

ATOMIC SCHEDULE REPLACEMENT:
  SaveSchedule rewrites a job's whole week set inside one database
  transaction. A schedule read never sees half an edit; the sum
  invariant survives crashes mid-save.

APPEND-ONLY ENFORCEMENT:
  There is no UPDATE or DELETE statement for edit_log rows anywhere
  in this package. The history only goes away when its job does.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: readers don't block, one writer at a time, better
  crash recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/planboard.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - plan/store.go: Interface definition
  - plan/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/shopfloor/planboard/plan"
	"github.com/shopfloor/planboard/split"
)

// Store implements plan.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Jobs
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		part_number TEXT,
		customer TEXT,
		total_quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL DEFAULT '0',
		start_week TEXT NOT NULL,
		weeks INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Committed weekly split + locks, one row per (job, week).
	-- SaveSchedule replaces a job's rows atomically.
	CREATE TABLE IF NOT EXISTS schedule_weeks (
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		week_index INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (job_id, week_index)
	);

	-- Edit history (append-only; removed only with the job)
	CREATE TABLE IF NOT EXISTS edit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		week_index INTEGER NOT NULL,
		old_value INTEGER NOT NULL,
		new_value INTEGER NOT NULL,
		direction TEXT NOT NULL,
		residual INTEGER NOT NULL,
		actor TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edit_log_job
		ON edit_log(job_id, id);
	CREATE INDEX IF NOT EXISTS idx_jobs_created
		ON jobs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOBS
// =============================================================================

// SaveJob inserts or replaces a job record.
func (s *Store) SaveJob(ctx context.Context, job plan.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO jobs (id, name, part_number, customer, total_quantity,
			unit_price, start_week, weeks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			part_number = excluded.part_number,
			customer = excluded.customer,
			total_quantity = excluded.total_quantity,
			unit_price = excluded.unit_price,
			start_week = excluded.start_week,
			weeks = excluded.weeks,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		job.PartNumber,
		job.Customer,
		job.TotalQuantity,
		job.UnitPrice.String(),
		job.StartWeek.UTC().Format(time.RFC3339),
		job.Weeks,
		job.CreatedAt.UTC().Format(time.RFC3339),
		job.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id plan.JobID) (*plan.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, part_number, customer, total_quantity,
		       unit_price, start_week, weeks, created_at, updated_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns all jobs ordered by creation time.
func (s *Store) ListJobs(ctx context.Context) ([]plan.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, part_number, customer, total_quantity,
		       unit_price, start_week, weeks, created_at, updated_at
		FROM jobs ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []plan.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes the job, its schedule and its history in one
// transaction. The schedule rows go via the foreign key cascade.
func (s *Store) DeleteJob(ctx context.Context, id plan.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM edit_log WHERE job_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return plan.ErrJobNotFound
	}

	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*plan.Job, error) {
	var (
		job        plan.Job
		partNumber sql.NullString
		customer   sql.NullString
		unitPrice  string
		startWeek  string
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(
		&job.ID, &job.Name, &partNumber, &customer, &job.TotalQuantity,
		&unitPrice, &startWeek, &job.Weeks, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.PartNumber = partNumber.String
	job.Customer = customer.String
	job.UnitPrice, err = decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit price %q: %w", unitPrice, err)
	}
	job.StartWeek, _ = time.Parse(time.RFC3339, startWeek)
	job.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &job, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

// SaveSchedule atomically replaces the job's committed weeks.
func (s *Store) SaveSchedule(ctx context.Context, sched plan.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sched.Split) != len(sched.Locks) {
		return split.ErrLengthMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_weeks WHERE job_id = ?", sched.JobID); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	updatedAt := sched.UpdatedAt.UTC().Format(time.RFC3339)
	for i, qty := range sched.Split {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_weeks (job_id, week_index, quantity, locked, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			sched.JobID, i, qty, sched.Locks[i], updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to write week %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetSchedule loads the committed weeks for a job.
func (s *Store) GetSchedule(ctx context.Context, id plan.JobID) (*plan.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT week_index, quantity, locked, updated_at
		FROM schedule_weeks
		WHERE job_id = ?
		ORDER BY week_index ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	sched := plan.Schedule{JobID: id}
	var updatedAt string
	for rows.Next() {
		var (
			index  int
			qty    int
			locked bool
		)
		if err := rows.Scan(&index, &qty, &locked, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		sched.Split = append(sched.Split, qty)
		sched.Locks = append(sched.Locks, locked)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sched.Split) == 0 {
		return nil, plan.ErrScheduleNotFound
	}

	sched.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sched, nil
}

// =============================================================================
// EDIT HISTORY (append-only)
// =============================================================================

// AppendEdit appends one history entry. Append-only.
func (s *Store) AppendEdit(ctx context.Context, rec plan.EditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit_log (job_id, kind, week_index, old_value, new_value,
			direction, residual, actor, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID,
		string(rec.Kind),
		rec.Week,
		rec.OldValue,
		rec.NewValue,
		string(rec.Direction),
		rec.Residual,
		rec.Actor,
		rec.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append edit: %w", err)
	}
	return nil
}

// ListEdits returns a job's history, oldest first.
func (s *Store) ListEdits(ctx context.Context, id plan.JobID) ([]plan.EditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, kind, week_index, old_value, new_value,
		       direction, residual, actor, at
		FROM edit_log
		WHERE job_id = ?
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []plan.EditRecord
	for rows.Next() {
		var (
			rec       plan.EditRecord
			kind      string
			direction string
			actor     sql.NullString
			at        string
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &kind, &rec.Week,
			&rec.OldValue, &rec.NewValue, &direction, &rec.Residual,
			&actor, &at); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		rec.Kind = plan.RecordKind(kind)
		rec.Direction = split.Direction(direction)
		rec.Actor = actor.String
		rec.At, _ = time.Parse(time.RFC3339, at)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// RESET (dev/demo only)
// =============================================================================

// Reset wipes everything. Demo scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edit_log", "schedule_weeks", "jobs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
