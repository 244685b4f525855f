/*
session.go - The editing flow for one job's schedule

PURPOSE:
  Everything an operator does to a schedule goes through a session:
  week edits, the confirmation flow for backward moves, lock toggles,
  resets. The session owns the committed state, runs the engine, and
  hands every commit to a caller-supplied callback before making it
  visible.

COMMIT CALLBACK:
  onCommit receives the new committed schedule and the history entry
  in one call. If it fails (persistence down), the session keeps its
  previous state, so the in-memory view never runs ahead of the
  store.

SINGLE ACTIVE EDIT:
  While an edit awaits confirmation, new edits are refused with
  ErrConfirmationActive. Lock toggles are the exception: unlocking an
  earlier week is how the operator escapes a dead-end confirmation,
  so they write committed state immediately, pending edit or not.

CONCURRENCY:
  A session is single-threaded by contract. The HTTP layer owns one
  session per job and serializes access to it.

SEE ALSO:
  - split/confirm.go: The state machine this session drives
  - api/sessions.go: Registry that owns and serializes sessions
*/
package plan

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// EDIT SESSION
// =============================================================================

// CommitFunc persists one committed schedule with its history entry.
// Both writes belong to the same logical commit.
type CommitFunc func(Schedule, EditRecord) error

// EditSession drives all edits for one job. Not safe for concurrent
// use.
type EditSession struct {
	// Clock stamps commits. Tests override it.
	Clock func() time.Time

	job      Job
	schedule Schedule
	conf     *split.Confirmation
	onCommit CommitFunc
}

// NewEditSession wraps a job's committed schedule. The session works
// on its own copy; the caller's schedule value is never touched.
func NewEditSession(job Job, schedule Schedule, onCommit CommitFunc) *EditSession {
	return &EditSession{
		Clock:    time.Now,
		job:      job,
		schedule: schedule.Clone(),
		conf:     split.NewConfirmation(),
		onCommit: onCommit,
	}
}

// Job returns the job being edited.
func (s *EditSession) Job() Job {
	return s.job
}

// Schedule returns a copy of the current committed state.
func (s *EditSession) Schedule() Schedule {
	return s.schedule.Clone()
}

// Residual is the committed sum gap, the standing warning value.
func (s *EditSession) Residual() int {
	return s.schedule.Residual(s.job.TotalQuantity)
}

// State exposes the confirmation flow state.
func (s *EditSession) State() split.ConfirmationState {
	return s.conf.State()
}

// Pending returns the suspended edit, if any.
func (s *EditSession) Pending() (split.PendingEdit, bool) {
	return s.conf.Pending()
}

// Values prices the current committed schedule.
func (s *EditSession) Values() ValueSummary {
	return ComputeValueSummary(s.job, s.schedule)
}

// =============================================================================
// EDIT RESULT
// =============================================================================

// EditResult reports what an operation did. Committed results carry
// the new schedule and the appended history entry; suspended results
// carry the pending edit and its backward preview instead.
type EditResult struct {
	Committed bool
	Schedule  Schedule
	Record    *EditRecord

	Pending *split.PendingEdit
	Preview *split.Preview
}

// =============================================================================
// WEEK EDITS
// =============================================================================

// Apply edits one week. Either the engine commits (forward or
// zero-difference) and the callback persists it, or the edit suspends
// into the confirmation flow and the result carries the preview the
// operator decides on.
func (s *EditSession) Apply(week, value int, actor string) (*EditResult, error) {
	if _, awaiting := s.conf.Pending(); awaiting {
		return nil, split.ErrConfirmationActive
	}

	out, err := split.CommitEdit(split.CommitInput{
		Split: s.schedule.Split,
		Locks: s.schedule.Locks,
		Week:  week,
		Value: value,
		Total: s.job.TotalQuantity,
	})
	if err != nil {
		return nil, err
	}

	if out.RequiresConfirmation {
		if err := s.conf.Open(out.Pending); err != nil {
			return nil, err
		}
		pv, err := s.conf.Preview(s.schedule.Split, s.schedule.Locks, s.job.TotalQuantity)
		if err != nil {
			return nil, err
		}
		return &EditResult{
			Schedule: s.schedule.Clone(),
			Pending:  &out.Pending,
			Preview:  &pv,
		}, nil
	}

	return s.commitEdit(out, week, s.schedule.Split[week], actor)
}

// commitEdit swaps in a committed outcome after the callback accepts
// it.
func (s *EditSession) commitEdit(out *split.CommitOutcome, week, oldValue int, actor string) (*EditResult, error) {
	now := s.Clock()
	next := s.schedule.Clone()
	next.ApplyOutcome(out, now)

	rec := EditRecord{
		JobID:     s.job.ID,
		Kind:      RecordEdit,
		Week:      week,
		OldValue:  oldValue,
		NewValue:  next.Split[week],
		Direction: out.Direction,
		Residual:  out.Residual,
		Actor:     actor,
		At:        now,
	}

	if s.onCommit != nil {
		if err := s.onCommit(next.Clone(), rec); err != nil {
			return nil, err
		}
	}

	s.schedule = next
	return &EditResult{Committed: true, Schedule: s.schedule.Clone(), Record: &rec}, nil
}

// =============================================================================
// CONFIRMATION FLOW
// =============================================================================

// PendingPreview recomputes the backward projection for the
// suspended edit against the schedule as it stands now.
func (s *EditSession) PendingPreview() (*split.Preview, error) {
	pv, err := s.conf.Preview(s.schedule.Split, s.schedule.Locks, s.job.TotalQuantity)
	if err != nil {
		return nil, err
	}
	return &pv, nil
}

// UpdatePending replaces the suspended edit's proposed value and
// returns the fresh preview.
func (s *EditSession) UpdatePending(value int) (*split.Preview, error) {
	if err := s.conf.SetValue(value); err != nil {
		return nil, err
	}
	return s.PendingPreview()
}

// ConfirmPending commits the suspended edit backward. Refused while
// the preview shows clamped weeks.
func (s *EditSession) ConfirmPending(actor string) (*EditResult, error) {
	pending, ok := s.conf.Pending()
	if !ok {
		return nil, split.ErrNoPendingEdit
	}
	oldValue := s.schedule.Split[pending.Week]

	out, err := s.conf.Confirm(s.schedule.Split, s.schedule.Locks, s.job.TotalQuantity)
	if err != nil {
		return nil, err
	}
	return s.commitEdit(out, pending.Week, oldValue, actor)
}

// CancelPending abandons the suspended edit. Committed state is
// untouched; lock toggles made while deciding stay.
func (s *EditSession) CancelPending() (split.PendingEdit, bool) {
	return s.conf.Cancel()
}

// =============================================================================
// LOCK TOGGLES AND RESET
// =============================================================================

// SetLock flips one week's lock and persists immediately. Allowed
// during a pending confirmation: this is the escape hatch that frees
// up targets for a stuck backward edit.
func (s *EditSession) SetLock(week int, locked bool, actor string) (*EditResult, error) {
	now := s.Clock()
	next := s.schedule.Clone()
	if err := next.SetLock(week, locked, now); err != nil {
		return nil, err
	}

	kind := RecordUnlock
	if locked {
		kind = RecordLock
	}
	qty := next.Split[week]
	rec := EditRecord{
		JobID:     s.job.ID,
		Kind:      kind,
		Week:      week,
		OldValue:  qty,
		NewValue:  qty,
		Direction: split.DirectionNone,
		Residual:  next.Residual(s.job.TotalQuantity),
		Actor:     actor,
		At:        now,
	}

	if s.onCommit != nil {
		if err := s.onCommit(next.Clone(), rec); err != nil {
			return nil, err
		}
	}

	s.schedule = next
	return &EditResult{Committed: true, Schedule: s.schedule.Clone(), Record: &rec}, nil
}

// Reset reseeds the even spread, clears all locks and abandons any
// pending edit.
func (s *EditSession) Reset(actor string) (*EditResult, error) {
	s.conf.Cancel()

	now := s.Clock()
	next := s.schedule.Clone()
	next.Reset(s.job, now)

	rec := EditRecord{
		JobID:     s.job.ID,
		Kind:      RecordReset,
		Week:      -1,
		Direction: split.DirectionNone,
		Residual:  next.Residual(s.job.TotalQuantity),
		Actor:     actor,
		At:        now,
	}

	if s.onCommit != nil {
		if err := s.onCommit(next.Clone(), rec); err != nil {
			return nil, err
		}
	}

	s.schedule = next
	return &EditResult{Committed: true, Schedule: s.schedule.Clone(), Record: &rec}, nil
}

// =============================================================================
// INPUT COERCION
// =============================================================================

// ParseQuantity coerces raw week-editor input to a quantity. The
// editor sends whatever was typed; anything that does not parse as
// an integer becomes 0 rather than an error.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
