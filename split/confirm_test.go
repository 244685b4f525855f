package split_test

import (
	"errors"
	"testing"

	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// STATE TRANSITION TESTS
// =============================================================================

func TestConfirmation_StartsIdle(t *testing.T) {
	conf := split.NewConfirmation()

	if conf.State() != split.StateIdle {
		t.Errorf("expected idle, got %q", conf.State())
	}
	if _, ok := conf.Pending(); ok {
		t.Error("idle machine must not report a pending edit")
	}
}

func TestConfirmation_OpenHoldsThePendingEdit(t *testing.T) {
	// GIVEN: An idle machine
	// WHEN: A refused edit is opened
	// THEN: State moves to awaiting and the edit is readable

	conf := split.NewConfirmation()
	if err := conf.Open(split.PendingEdit{Week: 3, Value: 150}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.State() != split.StateAwaiting {
		t.Errorf("expected awaiting, got %q", conf.State())
	}
	p, ok := conf.Pending()
	if !ok || p.Week != 3 || p.Value != 150 {
		t.Errorf("pending edit wrong: %+v (ok=%v)", p, ok)
	}
}

func TestConfirmation_SecondOpenRefused(t *testing.T) {
	// GIVEN: An edit already awaiting confirmation
	// WHEN: Another edit tries to open
	// THEN: ErrConfirmationActive, and the first edit is untouched

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 3, Value: 150})

	err := conf.Open(split.PendingEdit{Week: 1, Value: 10})
	if !errors.Is(err, split.ErrConfirmationActive) {
		t.Fatalf("expected ErrConfirmationActive, got %v", err)
	}
	if !split.IsConflict(err) {
		t.Error("a second open is a conflict")
	}
	p, _ := conf.Pending()
	if p.Week != 3 {
		t.Errorf("original pending edit was replaced: %+v", p)
	}
}

func TestConfirmation_OperationsRequireAPendingEdit(t *testing.T) {
	// GIVEN: An idle machine
	// WHEN: SetValue, Preview or Confirm run
	// THEN: ErrNoPendingEdit every time

	conf := split.NewConfirmation()
	s := split.Split{100, 100}
	l := make(split.Locks, 2)

	if err := conf.SetValue(5); !errors.Is(err, split.ErrNoPendingEdit) {
		t.Errorf("SetValue: expected ErrNoPendingEdit, got %v", err)
	}
	if _, err := conf.Preview(s, l, 200); !errors.Is(err, split.ErrNoPendingEdit) {
		t.Errorf("Preview: expected ErrNoPendingEdit, got %v", err)
	}
	if _, err := conf.Confirm(s, l, 200); !errors.Is(err, split.ErrNoPendingEdit) {
		t.Errorf("Confirm: expected ErrNoPendingEdit, got %v", err)
	}
}

// =============================================================================
// LIVE PREVIEW TESTS
// =============================================================================

func TestConfirmation_SetValueFeedsTheNextPreview(t *testing.T) {
	// GIVEN: A suspended edit of week 2 to 150 on [100 100 100], total 300
	// WHEN: The operator types 120 instead
	// THEN: The preview reflects 120, not the original 150

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 2, Value: 150})

	s := split.Split{100, 100, 100}
	l := lockedAt(3, 1)

	if err := conf.SetValue(120); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pv, err := conf.Preview(s, l, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// difference = 300 - (100+100+120) = -20, all on week 0
	if pv.Difference != -20 {
		t.Errorf("expected difference -20, got %d", pv.Difference)
	}
	if pv.Targets[0].NewValue != 80 {
		t.Errorf("expected week 0 at 80, got %+v", pv.Targets[0])
	}
}

func TestConfirmation_PreviewSeesUnlocksMadeMidFlow(t *testing.T) {
	// GIVEN: A suspended edit whose preview shows nowhere to go
	// WHEN: The operator unlocks an earlier week (committed-state change)
	// THEN: The next preview picks the week up as a target

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 3, Value: 150})

	s := split.Split{100, 100, 100, 100}
	l := lockedAt(4, 0, 1, 2)

	pv, err := conf.Preview(s, l, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pv.CanRedistribute {
		t.Fatal("all earlier weeks locked, nothing to target yet")
	}

	l[1] = false // the unlock affordance writes straight to committed locks

	pv, err = conf.Preview(s, l, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pv.CanRedistribute {
		t.Fatal("week 1 unlocked, redistribution must be possible now")
	}
	if len(pv.Targets) != 1 || pv.Targets[0].Week != 1 {
		t.Errorf("expected week 1 as the only target, got %v", pv.Targets)
	}
}

// =============================================================================
// CONFIRM / CANCEL TESTS
// =============================================================================

func TestConfirmation_ConfirmCommitsBackwardAndResets(t *testing.T) {
	// GIVEN: A suspended raise of the last week with one open earlier week
	// WHEN: The operator confirms
	// THEN: The commit lands backward, the sum closes, and the machine idles

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 3, Value: 150})

	s := split.Split{100, 100, 100, 100}
	l := lockedAt(4, 0, 2)

	out, err := conf.Confirm(s, l, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.RequiresConfirmation {
		t.Fatal("confirm must never re-suspend")
	}
	if got := out.Split.Sum(); got != 400 {
		t.Errorf("expected sum 400, got %d (%v)", got, out.Split)
	}
	if out.Split[3] != 150 || out.Split[1] != 50 {
		t.Errorf("expected week 1 to absorb -50, got %v", out.Split)
	}
	if conf.State() != split.StateIdle {
		t.Errorf("machine must return to idle, got %q", conf.State())
	}
}

func TestConfirmation_ConfirmRefusedWhileNegative(t *testing.T) {
	// GIVEN: A suspended edit whose preview clamps an earlier week
	// WHEN: The operator confirms anyway
	// THEN: NegativeValueError naming the clamped week; still awaiting

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 2, Value: 200})

	s := split.Split{30, 100, 100}
	l := lockedAt(3, 1)

	_, err := conf.Confirm(s, l, 230)
	if !errors.Is(err, split.ErrNegativeValues) {
		t.Fatalf("expected ErrNegativeValues, got %v", err)
	}

	var nve *split.NegativeValueError
	if !errors.As(err, &nve) {
		t.Fatal("expected a NegativeValueError")
	}
	if len(nve.Weeks) != 1 || nve.Weeks[0] != 0 {
		t.Errorf("expected week 0 named, got %v", nve.Weeks)
	}
	if conf.State() != split.StateAwaiting {
		t.Error("a refused confirm must keep the edit pending")
	}
}

func TestConfirmation_CancelDiscardsAndReturnsTheEdit(t *testing.T) {
	// GIVEN: A suspended edit
	// WHEN: The operator cancels
	// THEN: The edit is handed back for logging and the machine idles

	conf := split.NewConfirmation()
	conf.Open(split.PendingEdit{Week: 2, Value: 150})

	discarded, ok := conf.Cancel()
	if !ok {
		t.Fatal("cancel with a pending edit must report true")
	}
	if discarded.Week != 2 || discarded.Value != 150 {
		t.Errorf("discarded edit wrong: %+v", discarded)
	}
	if conf.State() != split.StateIdle {
		t.Errorf("expected idle after cancel, got %q", conf.State())
	}

	if _, ok := conf.Cancel(); ok {
		t.Error("cancel on an idle machine must report false")
	}
}

func TestConfirmation_FullFlow_SuspendInspectUnlockConfirm(t *testing.T) {
	// GIVEN: The last week raised on an otherwise locked schedule
	// WHEN: The flow runs end to end: suspend, see no targets, adjust
	//       the value, unlock a week, confirm
	// THEN: The final schedule sums to total with the adjusted value

	s := split.Split{100, 100, 100, 100}
	l := lockedAt(4, 0, 1, 2)

	out := commit(t, split.CommitInput{Split: s, Locks: l, Week: 3, Value: 150, Total: 400})
	if !out.RequiresConfirmation {
		t.Fatal("expected suspension")
	}

	conf := split.NewConfirmation()
	if err := conf.Open(out.Pending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pv, _ := conf.Preview(s, l, 400)
	if pv.CanRedistribute {
		t.Fatal("everything earlier is locked")
	}

	if err := conf.SetValue(140); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l[0] = false

	pv, _ = conf.Preview(s, l, 400)
	if !pv.CanRedistribute || pv.HasNegative {
		t.Fatalf("expected a clean preview after unlock, got %+v", pv)
	}

	final, err := conf.Confirm(s, l, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := final.Split.Sum(); got != 400 {
		t.Errorf("expected sum 400, got %d (%v)", got, final.Split)
	}
	if final.Split[3] != 140 || final.Split[0] != 60 {
		t.Errorf("expected [60 100 100 140], got %v", final.Split)
	}
	if !final.Locks[3] {
		t.Error("the confirmed week must be locked")
	}
}
