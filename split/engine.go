/*
engine.go - Redistribution engine: the only writer of committed splits

PURPOSE:
  Applies a single-week edit and moves the resulting surplus or
  shortfall onto other unlocked weeks so the schedule keeps summing to
  the job total. Everything here is pure: inputs in, fresh outputs
  out, no I/O, no shared state.

DECISION ORDER:
  1. Set the edited week to the proposed value and lock it.
  2. difference = total - sum(trial). Zero difference commits as-is.
  3. Forward targets (unlocked weeks after the edited one) absorb the
     difference when any exist. This is the silent path: pushing
     quantity into the future never needs permission.
  4. No forward targets and backward movement not allowed: the engine
     refuses and hands back a PendingEdit for the confirmation flow.
  5. Backward movement allowed: every unlocked week except the edited
     one absorbs the difference.

FAIRNESS RULE:
  base = difference / n, rem = difference % n (truncating division,
  rem carries the sign of the difference). Every target gets base;
  the first |rem| targets in index order get one extra signed unit.
  base*n + rem == difference, so the absorbed amount is exact and no
  two adjustments differ by more than one unit.

CLAMPING:
  A target never goes below zero. When the clamp fires the committed
  sum misses the total; the outcome reports Clamped and the signed
  Residual so the caller can show the standing warning. A broken sum
  is displayed, not rejected.

EXAMPLE:
  out, err := split.CommitEdit(split.CommitInput{
      Split: s, Locks: locks, Week: 2, Value: 80, Total: 400,
  })
  if out.RequiresConfirmation {
      // no forward targets; out.Pending feeds the confirmation flow
  }

SEE ALSO:
  - preview.go: The same arithmetic without the commit
  - confirm.go: Drives the backward path after operator approval
*/
package split

// =============================================================================
// DIRECTION - Which way quantity moved
// =============================================================================

// Direction records which target set absorbed an edit's difference.
type Direction string

const (
	// DirectionForward means weeks after the edited one absorbed it.
	DirectionForward Direction = "forward"

	// DirectionBackward means the confirmed whole-schedule rebalance ran.
	DirectionBackward Direction = "backward"

	// DirectionNone means the edit left the sum intact or had no
	// targets to move quantity onto.
	DirectionNone Direction = "none"
)

// =============================================================================
// COMMIT INPUT / OUTCOME
// =============================================================================

// CommitInput carries one edit against one schedule.
type CommitInput struct {
	Split Split
	Locks Locks

	// The edit itself.
	Week  int
	Value int

	// The job total the committed split must sum to.
	Total int

	// AllowBackward permits moving quantity onto weeks before the
	// edited one. Only the confirmation flow sets this.
	AllowBackward bool
}

// CommitOutcome is either a committed schedule or a refusal that needs
// operator confirmation. Exactly one of the two shapes is populated.
type CommitOutcome struct {
	// RequiresConfirmation is true when no forward targets existed and
	// backward movement was not allowed. Nothing was committed;
	// Pending carries the suspended edit.
	RequiresConfirmation bool
	Pending              PendingEdit

	// Committed state. Split and Locks are fresh copies; the caller's
	// inputs are untouched.
	Split Split
	Locks Locks

	// Direction of the redistribution and the per-target changes, in
	// week order. Empty Changes on the zero-difference fast path.
	Direction Direction
	Changes   []TargetChange

	// Clamped is true when at least one target hit the zero floor.
	// Residual = Total - sum(Split): zero on every clean commit,
	// nonzero exactly when clamping (or an empty backward target set)
	// left the sum short. The caller displays it, it is not an error.
	Clamped  bool
	Residual int
}

// =============================================================================
// COMMIT EDIT - The single entry point for mutating a schedule
// =============================================================================

// CommitEdit applies one week edit and rebalances. See the decision
// order in the file header; this function is that list in code.
func CommitEdit(in CommitInput) (*CommitOutcome, error) {
	if err := validate(in.Split, in.Locks, in.Week); err != nil {
		return nil, err
	}

	trial := in.Split.Clone()
	trial[in.Week] = in.Value
	locks := in.Locks.Clone()
	locks[in.Week] = true // editing a week pins it

	difference := in.Total - trial.Sum()
	if difference == 0 {
		return &CommitOutcome{
			Split:     trial,
			Locks:     locks,
			Direction: DirectionNone,
		}, nil
	}

	if forward := locks.ForwardTargets(in.Week); len(forward) > 0 {
		changes, clamped := applyAdjustments(trial, forward, difference)
		return &CommitOutcome{
			Split:     trial,
			Locks:     locks,
			Direction: DirectionForward,
			Changes:   changes,
			Clamped:   clamped,
			Residual:  in.Total - trial.Sum(),
		}, nil
	}

	if !in.AllowBackward {
		return &CommitOutcome{
			RequiresConfirmation: true,
			Pending:              PendingEdit{Week: in.Week, Value: in.Value},
		}, nil
	}

	// Confirmed path: rebalance across every unlocked week. An empty
	// target set still commits; the residual becomes the operator's
	// standing warning until a later edit or unlock absorbs it.
	open := locks.OpenTargets(in.Week)
	if len(open) == 0 {
		return &CommitOutcome{
			Split:     trial,
			Locks:     locks,
			Direction: DirectionNone,
			Residual:  difference,
		}, nil
	}

	changes, clamped := applyAdjustments(trial, open, difference)
	return &CommitOutcome{
		Split:     trial,
		Locks:     locks,
		Direction: DirectionBackward,
		Changes:   changes,
		Clamped:   clamped,
		Residual:  in.Total - trial.Sum(),
	}, nil
}

// =============================================================================
// ADJUSTMENT ARITHMETIC - Shared by commit and preview
// =============================================================================

// applyAdjustments writes the spread difference onto trial at the
// given target indices, clamping each result at zero. Returns the
// per-target changes in week order and whether any clamp fired.
func applyAdjustments(trial Split, targets []int, difference int) ([]TargetChange, bool) {
	adjustments := spread(difference, len(targets))
	changes := make([]TargetChange, 0, len(targets))
	clamped := false

	for i, week := range targets {
		oldValue := trial[week]
		newValue := oldValue + adjustments[i]
		hit := newValue < 0
		if hit {
			newValue = 0
			clamped = true
		}
		trial[week] = newValue
		changes = append(changes, TargetChange{
			Week:     week,
			OldValue: oldValue,
			NewValue: newValue,
			Clamped:  hit,
		})
	}
	return changes, clamped
}

// spread divides amount across n slots: base = amount/n for everyone,
// then the first |rem| slots take one extra unit carrying the sign of
// the remainder. base*n + rem == amount, so the sum is exact, and no
// two slots differ by more than one.
func spread(amount, n int) []int {
	base := amount / n
	rem := amount % n
	step := 1
	if rem < 0 {
		step = -1
	}

	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < abs(rem) {
			out[i] += step
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
