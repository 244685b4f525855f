/*
store.go - Persistence contract for jobs, schedules and history

PURPOSE:
  One interface, two implementations: SQLite for the real thing,
  memory for tests and dev. The contract mirrors the record
  lifecycles: jobs and schedules are replaced whole, history is
  append-only.

ATOMICITY:
  SaveSchedule replaces the job's entire week set in one shot. A
  half-written split would silently break the sum invariant, so
  implementations must make the replacement all-or-nothing.

SEE ALSO:
  - store/memory.go: Test/dev implementation
  - store/sqlite: Durable implementation
*/
package plan

import (
	"context"
	"errors"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidJob is returned when a job fails validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrJobNotFound is returned when a job id resolves to nothing.
	ErrJobNotFound = errors.New("job not found")

	// ErrScheduleNotFound is returned when a job exists but its
	// schedule row set is missing. Seen only on corrupted stores.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrScheduleNotFound)
}

// =============================================================================
// STORE - Jobs, schedules, append-only history
// =============================================================================

type Store interface {
	// SaveJob inserts or replaces a job record.
	SaveJob(ctx context.Context, job Job) error

	// GetJob returns ErrJobNotFound for unknown ids.
	GetJob(ctx context.Context, id JobID) (*Job, error)

	// ListJobs returns all jobs ordered by creation time.
	ListJobs(ctx context.Context) ([]Job, error)

	// DeleteJob removes the job, its schedule and its history.
	DeleteJob(ctx context.Context, id JobID) error

	// SaveSchedule atomically replaces the job's committed weeks.
	SaveSchedule(ctx context.Context, s Schedule) error

	// GetSchedule returns ErrScheduleNotFound when no weeks exist.
	GetSchedule(ctx context.Context, id JobID) (*Schedule, error)

	// AppendEdit appends one history entry and assigns its ID.
	// There is no update or delete; the history only grows.
	AppendEdit(ctx context.Context, rec EditRecord) error

	// ListEdits returns a job's history, oldest first.
	ListEdits(ctx context.Context, id JobID) ([]EditRecord, error)

	// Reset wipes everything. Demo scenario loading only.
	Reset(ctx context.Context) error
}
