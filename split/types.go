/*
types.go - Core value types for weekly quantity splits

PURPOSE:
  A production job carries a total quantity spread across the calendar
  weeks it spans. This file defines the two parallel sequences that
  describe that spread and the pending edit the confirmation flow holds.

KEY CONCEPTS:
  Split:
    Ordered week quantities for one job. Index 0 is the job's first
    week. The committed invariant is Sum() == job total; the engine is
    the only component allowed to restore it after an edit.

  Locks:
    Parallel to Split. A locked week is pinned: redistribution never
    touches it. Editing a week locks it; only an explicit unlock
    releases it.

  Forward / backward targets:
    The unlocked weeks after (respectively before) an edited week.
    Redistribution prefers forward targets; backward targets require
    operator confirmation.

EXAMPLE:
  s := split.Even(500, 4)        // [125 125 125 125]
  locks := make(split.Locks, 4)
  out, _ := split.CommitEdit(split.CommitInput{
      Split: s, Locks: locks, Week: 0, Value: 200, Total: 500,
  })
  fmt.Println(out.Split) // [200 100 100 100]

SEE ALSO:
  - preview.go: Trial projection of an edit before it is applied
  - engine.go: The commit path that restores the sum invariant
  - confirm.go: Suspended edits awaiting backward confirmation
*/
package split

// =============================================================================
// SPLIT - Ordered week quantities
// =============================================================================

// Split is the per-week quantity sequence for a single job.
// Committed splits are non-negative and sum to the job total; trial
// values produced mid-edit may briefly violate both.
type Split []int

// Sum returns the total quantity currently placed across all weeks.
func (s Split) Sum() int {
	total := 0
	for _, qty := range s {
		total += qty
	}
	return total
}

// Clone returns an independent copy. The engine never mutates its
// inputs; every commit path works on a clone.
func (s Split) Clone() Split {
	out := make(Split, len(s))
	copy(out, s)
	return out
}

// Even constructs the fair initial spread of total across weeks:
// every week gets total/weeks and the first total%weeks weeks absorb
// one extra unit each. This is the same fairness rule redistribution
// uses, so a freshly seeded schedule and a rebalanced one look alike.
func Even(total, weeks int) Split {
	if weeks <= 0 {
		return Split{}
	}
	return Split(spread(total, weeks))
}

// =============================================================================
// LOCKS - Pinned weeks
// =============================================================================

// Locks marks which weeks are pinned. Parallel to Split: locks[i]
// guards split[i]. Zero value (all false) means fully editable.
type Locks []bool

// Clone returns an independent copy.
func (l Locks) Clone() Locks {
	out := make(Locks, len(l))
	copy(out, l)
	return out
}

// Unlocked returns the indices of all unlocked weeks in order.
func (l Locks) Unlocked() []int {
	var out []int
	for i, locked := range l {
		if !locked {
			out = append(out, i)
		}
	}
	return out
}

// ForwardTargets returns the unlocked weeks strictly after week.
func (l Locks) ForwardTargets(week int) []int {
	var out []int
	for i := week + 1; i < len(l); i++ {
		if !l[i] {
			out = append(out, i)
		}
	}
	return out
}

// BackwardTargets returns the unlocked weeks strictly before week.
func (l Locks) BackwardTargets(week int) []int {
	var out []int
	for i := 0; i < week && i < len(l); i++ {
		if !l[i] {
			out = append(out, i)
		}
	}
	return out
}

// OpenTargets returns every unlocked week except week itself. Used by
// the confirmed backward path, where the whole schedule rebalances
// around the edited week.
func (l Locks) OpenTargets(week int) []int {
	var out []int
	for i, locked := range l {
		if i == week || locked {
			continue
		}
		out = append(out, i)
	}
	return out
}

// =============================================================================
// PENDING EDIT - What the engine refused to apply silently
// =============================================================================

// PendingEdit is an edit the engine refused to apply silently: no
// forward targets existed, so earlier weeks would have to move. It
// holds the edited week and the operator's current proposed value,
// which the confirmation flow may keep adjusting before committing.
type PendingEdit struct {
	Week  int
	Value int
}

// validate checks the structural preconditions shared by preview and
// commit: parallel sequences and an in-range week index.
func validate(s Split, l Locks, week int) error {
	if len(s) != len(l) {
		return ErrLengthMismatch
	}
	if week < 0 || week >= len(s) {
		return ErrWeekOutOfRange
	}
	return nil
}
