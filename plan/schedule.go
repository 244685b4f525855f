/*
schedule.go - Schedule lifecycle: seed, apply commits, reseed

PURPOSE:
  A schedule exists exactly as long as its job. It is born as the
  fair even spread of the job total, changes only by absorbing engine
  commit outcomes or explicit lock toggles, and is rebuilt from
  scratch on reset.

INVARIANT OWNERSHIP:
  Nothing in this file does redistribution arithmetic. The engine is
  the only component that restores the sum invariant; this file just
  moves its outcomes into the record and stamps the clock.

SEE ALSO:
  - session.go: Decides when commits and resets happen
  - split/engine.go: Produces the outcomes applied here
*/
package plan

import (
	"time"

	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

// NewSchedule seeds the fair even spread for a job. All weeks start
// unlocked.
func NewSchedule(job Job, now time.Time) Schedule {
	return Schedule{
		JobID:     job.ID,
		Split:     split.Even(job.TotalQuantity, job.Weeks),
		Locks:     make(split.Locks, job.Weeks),
		UpdatedAt: now,
	}
}

// ApplyOutcome replaces the committed state with an engine commit.
// Callers must not pass a suspended outcome; nothing was committed in
// that case and there is nothing to apply.
func (s *Schedule) ApplyOutcome(out *split.CommitOutcome, now time.Time) {
	if out == nil || out.RequiresConfirmation {
		return
	}
	s.Split = out.Split.Clone()
	s.Locks = out.Locks.Clone()
	s.UpdatedAt = now
}

// SetLock flips one week's lock. This is the operator's explicit
// toggle; it writes committed state immediately, confirmation flow
// or not.
func (s *Schedule) SetLock(week int, locked bool, now time.Time) error {
	if week < 0 || week >= len(s.Locks) {
		return split.ErrWeekOutOfRange
	}
	s.Locks[week] = locked
	s.UpdatedAt = now
	return nil
}

// Reset reseeds the even spread and clears every lock. Used when the
// operator starts over and when the job's total or week count is
// changed.
func (s *Schedule) Reset(job Job, now time.Time) {
	s.Split = split.Even(job.TotalQuantity, job.Weeks)
	s.Locks = make(split.Locks, job.Weeks)
	s.UpdatedAt = now
}
