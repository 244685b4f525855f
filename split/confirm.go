/*
confirm.go - Confirmation flow for backward redistribution

PURPOSE:
  Moving quantity onto earlier weeks is the disruptive direction:
  those weeks may already be in motion on the floor. The engine
  refuses to do it silently; this state machine holds the refused
  edit while the operator inspects the preview, adjusts the value,
  unlocks weeks, and finally approves or abandons it.

STATES:
  Idle:
    No suspended edit. Every ordinary forward commit happens here.

  AwaitingConfirmation:
    One refused edit is held (week + current proposed value). The
    proposed value is the operator's to keep changing; the preview is
    recomputed against it on demand.

TRANSITIONS:
  Idle -> Awaiting       Open (the engine returned RequiresConfirmation)
  Awaiting -> Awaiting   SetValue / Preview (inspection only)
  Awaiting -> Idle       Confirm (commits backward) or Cancel (discards)

WHAT CANCEL DOES NOT DO:
  Unlocking a week during the flow edits committed state immediately,
  through the session that owns the schedule, not through this
  machine. Cancel discards only the suspended edit; any unlocks made
  while deciding stay.

EXAMPLE:
  conf := split.NewConfirmation()
  out, _ := split.CommitEdit(in)
  if out.RequiresConfirmation {
      conf.Open(out.Pending)
      pv, _ := conf.Preview(s, locks, total)
      if pv.CanRedistribute && !pv.HasNegative {
          committed, _ := conf.Confirm(s, locks, total)
          _ = committed
      }
  }

SEE ALSO:
  - engine.go: Produces the PendingEdit this machine holds
  - preview.go: The projection recomputed during the flow
*/
package split

// =============================================================================
// STATES
// =============================================================================

// ConfirmationState names the two states of the flow.
type ConfirmationState string

const (
	StateIdle     ConfirmationState = "idle"
	StateAwaiting ConfirmationState = "awaiting_confirmation"
)

// =============================================================================
// CONFIRMATION - Holds at most one suspended edit
// =============================================================================

// Confirmation is the per-schedule confirmation flow. Not safe for
// concurrent use; the owning session serializes access.
type Confirmation struct {
	state   ConfirmationState
	pending PendingEdit
}

// NewConfirmation starts in Idle.
func NewConfirmation() *Confirmation {
	return &Confirmation{state: StateIdle}
}

// State returns the current state.
func (c *Confirmation) State() ConfirmationState {
	return c.state
}

// Pending returns the suspended edit and whether one exists.
func (c *Confirmation) Pending() (PendingEdit, bool) {
	return c.pending, c.state == StateAwaiting
}

// Open suspends a refused edit. Only one edit can be pending at a
// time; a second Open is a flow conflict the caller surfaces.
func (c *Confirmation) Open(p PendingEdit) error {
	if c.state == StateAwaiting {
		return ErrConfirmationActive
	}
	c.state = StateAwaiting
	c.pending = p
	return nil
}

// SetValue replaces the proposed value of the suspended edit. The
// next Preview or Confirm uses it.
func (c *Confirmation) SetValue(v int) error {
	if c.state != StateAwaiting {
		return ErrNoPendingEdit
	}
	c.pending.Value = v
	return nil
}

// Preview recomputes the backward projection for the suspended edit
// against the schedule as it stands right now. Unlocks made since the
// edit was suspended show up here immediately.
func (c *Confirmation) Preview(s Split, l Locks, total int) (Preview, error) {
	if c.state != StateAwaiting {
		return Preview{}, ErrNoPendingEdit
	}
	return ComputePreview(s, l, c.pending.Week, c.pending.Value, total)
}

// Confirm commits the suspended edit with backward movement allowed.
// Refused with a NegativeValueError while the live preview shows any
// clamped week; the operator lowers the value or unlocks more weeks
// first. On success the machine returns to Idle.
func (c *Confirmation) Confirm(s Split, l Locks, total int) (*CommitOutcome, error) {
	if c.state != StateAwaiting {
		return nil, ErrNoPendingEdit
	}

	pv, err := ComputePreview(s, l, c.pending.Week, c.pending.Value, total)
	if err != nil {
		return nil, err
	}
	if pv.HasNegative {
		var weeks []int
		for _, t := range pv.Targets {
			if t.Clamped {
				weeks = append(weeks, t.Week)
			}
		}
		return nil, &NegativeValueError{Weeks: weeks}
	}

	out, err := CommitEdit(CommitInput{
		Split:         s,
		Locks:         l,
		Week:          c.pending.Week,
		Value:         c.pending.Value,
		Total:         total,
		AllowBackward: true,
	})
	if err != nil {
		return nil, err
	}

	c.state = StateIdle
	c.pending = PendingEdit{}
	return out, nil
}

// Cancel discards the suspended edit and returns it for logging. The
// schedule is untouched; locks changed during the flow stay changed.
func (c *Confirmation) Cancel() (PendingEdit, bool) {
	if c.state != StateAwaiting {
		return PendingEdit{}, false
	}
	discarded := c.pending
	c.state = StateIdle
	c.pending = PendingEdit{}
	return discarded, true
}
