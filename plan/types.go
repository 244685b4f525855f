/*
types.go - Job and schedule records for the production plan

PURPOSE:
  The dashboard plans production jobs. A job is a part order with a
  total quantity and a span of calendar weeks; its schedule is the
  committed weekly split plus the lock flags. This file defines those
  records and the append-only edit history entry.

KEY CONCEPTS:
  Job:
    The order being planned. TotalQuantity is the number the schedule
    must sum to; UnitPrice turns quantities into money for the value
    summary. StartWeek is Monday-normalized so week index arithmetic
    stays trivial.

  Schedule:
    One per job, same lifetime as the job. Split and Locks are the
    committed state; only engine commit outcomes (and the explicit
    lock toggles) may replace them.

  EditRecord:
    Append-only history. Every commit, lock toggle and reset appends
    one; nothing ever updates or deletes them. Corrections are new
    edits.

SEE ALSO:
  - schedule.go: Seeding, applying commit outcomes, residual
  - session.go: The editing flow that produces EditRecords
  - store.go: Persistence contract for all three records
*/
package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// JOB - The order being planned
// =============================================================================

// JobID identifies a job. Chosen by the caller (slug or UUID).
type JobID string

// Job is a part order spread across consecutive calendar weeks.
type Job struct {
	ID         JobID
	Name       string
	PartNumber string
	Customer   string

	// TotalQuantity is the committed-sum target for the schedule.
	TotalQuantity int

	// UnitPrice prices one unit for the value summary. Zero is fine
	// for jobs planned without a commercial value.
	UnitPrice decimal.Decimal

	// StartWeek is the Monday of the first schedule week, UTC.
	StartWeek time.Time

	// Weeks is the schedule length. Fixed at creation; changing it
	// reseeds the schedule.
	Weeks int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a schedule cannot be built without.
func (j Job) Validate() error {
	if strings.TrimSpace(string(j.ID)) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidJob)
	}
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidJob)
	}
	if j.TotalQuantity < 0 {
		return fmt.Errorf("%w: negative total quantity %d", ErrInvalidJob, j.TotalQuantity)
	}
	if j.Weeks < 1 {
		return fmt.Errorf("%w: schedule needs at least one week, got %d", ErrInvalidJob, j.Weeks)
	}
	if j.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price %s", ErrInvalidJob, j.UnitPrice)
	}
	if j.StartWeek.IsZero() {
		return fmt.Errorf("%w: missing start week", ErrInvalidJob)
	}
	return nil
}

// =============================================================================
// SCHEDULE - Committed weekly state for one job
// =============================================================================

// Schedule is the committed split and locks for a job. Created with
// the job, replaced on reset, removed with the job.
type Schedule struct {
	JobID     JobID
	Split     split.Split
	Locks     split.Locks
	UpdatedAt time.Time
}

// Clone returns a deep copy. Sessions hand copies outward so callers
// can never reach the committed arrays.
func (s Schedule) Clone() Schedule {
	return Schedule{
		JobID:     s.JobID,
		Split:     s.Split.Clone(),
		Locks:     s.Locks.Clone(),
		UpdatedAt: s.UpdatedAt,
	}
}

// Residual is the quantity the committed split currently misses the
// total by: positive means under-planned, negative over-planned. It
// is the standing warning the dashboard shows, never a failure.
func (s Schedule) Residual(total int) int {
	return total - s.Split.Sum()
}

// Balanced reports whether the committed sum matches the total.
func (s Schedule) Balanced(total int) bool {
	return s.Residual(total) == 0
}

// =============================================================================
// EDIT RECORD - Append-only history
// =============================================================================

// RecordKind classifies a history entry.
type RecordKind string

const (
	// RecordEdit is a committed week edit with redistribution.
	RecordEdit RecordKind = "edit"

	// RecordLock and RecordUnlock are explicit lock toggles.
	RecordLock   RecordKind = "lock"
	RecordUnlock RecordKind = "unlock"

	// RecordReset is a whole-schedule reseed. Week is -1.
	RecordReset RecordKind = "reset"
)

// EditRecord is one appended history entry. ID is assigned by the
// store on append.
type EditRecord struct {
	ID    int64
	JobID JobID
	Kind  RecordKind

	// Week the entry touches; -1 for whole-schedule entries.
	Week     int
	OldValue int
	NewValue int

	// Direction and Residual echo the commit outcome for edits.
	Direction split.Direction
	Residual  int

	Actor string
	At    time.Time
}
