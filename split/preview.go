/*
preview.go - Trial projection of a suspended edit

PURPOSE:
  When an edit cannot move quantity forward, the operator has to see
  what approving it would do to earlier weeks before anything is
  written. ComputePreview answers that question: same arithmetic as
  the engine, zero side effects.

KEY INSIGHT:
  The preview targets only the unlocked weeks BEFORE the edited one.
  It exists solely for the backward case, and in that case the weeks
  after the edited one are all locked, so "earlier unlocked weeks"
  and "all unlocked weeks" are the same set. The numbers shown are
  the numbers a confirmed commit would write.

IDEMPOTENCE:
  Pure function of its inputs. Calling it any number of times with
  the same arguments returns identical results and mutates nothing;
  the confirmation flow recomputes it on every keystroke.

EXAMPLE:
  pv, _ := split.ComputePreview(s, locks, 3, 150, 400)
  if !pv.CanRedistribute {
      // every earlier week is locked; offer the unlock list
  }
  for _, t := range pv.Targets {
      fmt.Printf("week %d: %d -> %d\n", t.Week, t.OldValue, t.NewValue)
  }

SEE ALSO:
  - engine.go: The committing twin of this calculation
  - confirm.go: Recomputes the preview while an edit is pending
*/
package split

// =============================================================================
// PREVIEW - What a confirmed backward commit would write
// =============================================================================

// TargetChange is one week's projected or committed movement.
type TargetChange struct {
	Week     int
	OldValue int
	NewValue int

	// Clamped is true when the raw adjustment would have driven this
	// week below zero and the zero floor absorbed the rest.
	Clamped bool
}

// Preview describes the effect of a proposed single-week edit on the
// unlocked weeks before it.
type Preview struct {
	// Difference is total minus the trial sum: negative when the
	// proposed value overshoots, positive when it undershoots.
	Difference int

	// Targets lists the projected changes in week order. Empty when
	// no earlier week is unlocked.
	Targets []TargetChange

	// HasNegative is true when at least one target was clamped at
	// zero. Confirmation is refused while this holds.
	HasNegative bool

	// CanRedistribute is false when there is nowhere to move the
	// difference. That is operator-facing state (unlock something),
	// not an error.
	CanRedistribute bool
}

// ComputePreview projects the proposed value for week onto the
// unlocked weeks before it without touching the inputs.
func ComputePreview(s Split, l Locks, week, proposed, total int) (Preview, error) {
	if err := validate(s, l, week); err != nil {
		return Preview{}, err
	}

	trial := s.Clone()
	trial[week] = proposed
	difference := total - trial.Sum()

	targets := l.BackwardTargets(week)
	if len(targets) == 0 {
		return Preview{Difference: difference}, nil
	}

	changes, clamped := applyAdjustments(trial, targets, difference)
	return Preview{
		Difference:      difference,
		Targets:         changes,
		HasNegative:     clamped,
		CanRedistribute: true,
	}, nil
}
