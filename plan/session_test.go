package plan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor/planboard/plan"
	"github.com/shopfloor/planboard/plan/store"
	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testClock = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func testJob(total, weeks int) plan.Job {
	return plan.Job{
		ID:            "job-1",
		Name:          "Bracket run",
		PartNumber:    "BRK-100",
		Customer:      "Acme",
		TotalQuantity: total,
		UnitPrice:     decimal.RequireFromString("12.50"),
		StartWeek:     time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		Weeks:         weeks,
		CreatedAt:     testClock,
		UpdatedAt:     testClock,
	}
}

// newTestSession wires a session to a memory store the way the HTTP
// layer does: every commit saves the schedule and appends history.
func newTestSession(t *testing.T, total, weeks int) (*plan.EditSession, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()

	job := testJob(total, weeks)
	require.NoError(t, mem.SaveJob(ctx, job))

	schedule := plan.NewSchedule(job, testClock)
	require.NoError(t, mem.SaveSchedule(ctx, schedule))

	session := plan.NewEditSession(job, schedule, func(s plan.Schedule, rec plan.EditRecord) error {
		if err := mem.SaveSchedule(ctx, s); err != nil {
			return err
		}
		return mem.AppendEdit(ctx, rec)
	})
	session.Clock = func() time.Time { return testClock }
	return session, mem
}

// =============================================================================
// FORWARD EDIT TESTS
// =============================================================================

func TestEditSession_ForwardEdit_CommitsAndPersists(t *testing.T) {
	// GIVEN: An even 400/4 schedule
	// WHEN: Week 1 is raised to 140
	// THEN: The commit lands in the store with a forward history entry

	session, mem := newTestSession(t, 400, 4)
	ctx := context.Background()

	res, err := session.Apply(1, 140, "operator")
	require.NoError(t, err)
	require.True(t, res.Committed)

	assert.Equal(t, 400, res.Schedule.Split.Sum())
	assert.True(t, res.Schedule.Locks[1], "edited week locks")

	stored, err := mem.GetSchedule(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, res.Schedule.Split, stored.Split)

	edits, err := mem.ListEdits(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, plan.RecordEdit, edits[0].Kind)
	assert.Equal(t, split.DirectionForward, edits[0].Direction)
	assert.Equal(t, 100, edits[0].OldValue)
	assert.Equal(t, 140, edits[0].NewValue)
	assert.Equal(t, "operator", edits[0].Actor)
}

func TestEditSession_EditedWeekStaysLocked_UntilExplicitUnlock(t *testing.T) {
	// GIVEN: Week 1 edited and therefore locked
	// WHEN: Another week is edited, then week 1 is explicitly unlocked
	// THEN: The lock survives the second edit and only the toggle releases it

	session, _ := newTestSession(t, 400, 4)

	_, err := session.Apply(1, 140, "operator")
	require.NoError(t, err)

	res, err := session.Apply(2, 90, "operator")
	require.NoError(t, err)
	assert.True(t, res.Schedule.Locks[1], "earlier edit's lock must survive")
	assert.True(t, res.Schedule.Locks[2])

	res, err = session.SetLock(1, false, "operator")
	require.NoError(t, err)
	assert.False(t, res.Schedule.Locks[1])
	require.NotNil(t, res.Record)
	assert.Equal(t, plan.RecordUnlock, res.Record.Kind)
}

func TestEditSession_ClampedCommit_RecordsResidual(t *testing.T) {
	// GIVEN: A schedule whose forward weeks cannot absorb a big raise
	// WHEN: The raise commits anyway
	// THEN: The history entry carries the residual and the session
	//       reports it as the standing warning

	session, _ := newTestSession(t, 40, 4) // seeds [10 10 10 10]

	res, err := session.Apply(0, 45, "operator")
	require.NoError(t, err)
	require.True(t, res.Committed)

	// difference -35 over three weeks of 10: all clamp to zero, 5 over
	assert.Equal(t, split.Split{45, 0, 0, 0}, res.Schedule.Split)
	assert.Equal(t, -5, res.Record.Residual)
	assert.Equal(t, -5, session.Residual())
}

// =============================================================================
// CONFIRMATION FLOW TESTS
// =============================================================================

func TestEditSession_NoForwardTargets_SuspendsWithPreview(t *testing.T) {
	// GIVEN: Weeks 1 and 2 locked on a 400/4 schedule
	// WHEN: The last week is edited, leaving nowhere forward to move
	// THEN: The edit suspends and the result carries the backward preview

	session, mem := newTestSession(t, 400, 4)
	for _, w := range []int{1, 2} {
		_, err := session.SetLock(w, true, "operator")
		require.NoError(t, err)
	}

	res, err := session.Apply(3, 150, "operator")
	require.NoError(t, err)

	assert.False(t, res.Committed)
	require.NotNil(t, res.Pending)
	assert.Equal(t, 3, res.Pending.Week)
	require.NotNil(t, res.Preview)
	assert.True(t, res.Preview.CanRedistribute, "week 0 is still open")
	assert.Equal(t, split.StateAwaiting, session.State())

	// nothing was committed
	stored, err := mem.GetSchedule(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Split[3])
}

func TestEditSession_SecondEditWhilePending_Refused(t *testing.T) {
	// GIVEN: An edit awaiting confirmation
	// WHEN: A second edit arrives
	// THEN: ErrConfirmationActive; the pending edit is untouched

	session, _ := newTestSession(t, 400, 4)
	for _, w := range []int{1, 2} {
		_, err := session.SetLock(w, true, "operator")
		require.NoError(t, err)
	}

	_, err := session.Apply(3, 150, "operator")
	require.NoError(t, err)

	_, err = session.Apply(0, 50, "operator")
	assert.ErrorIs(t, err, split.ErrConfirmationActive)

	p, ok := session.Pending()
	require.True(t, ok)
	assert.Equal(t, 3, p.Week)
}

func TestEditSession_ConfirmAfterMidFlowUnlock_CommitsBackward(t *testing.T) {
	// GIVEN: A suspended edit with every earlier week locked
	// WHEN: The operator unlocks week 1 mid-flow and confirms
	// THEN: Week 1 absorbs the difference and the history shows the
	//       unlock followed by the backward edit

	session, mem := newTestSession(t, 400, 4)
	ctx := context.Background()
	for _, w := range []int{0, 1, 2} {
		_, err := session.SetLock(w, true, "operator")
		require.NoError(t, err)
	}

	res, err := session.Apply(3, 150, "operator")
	require.NoError(t, err)
	require.NotNil(t, res.Preview)
	assert.False(t, res.Preview.CanRedistribute, "everything earlier is locked")

	// escape hatch: unlock writes committed state during the flow
	_, err = session.SetLock(1, false, "operator")
	require.NoError(t, err)

	pv, err := session.PendingPreview()
	require.NoError(t, err)
	require.True(t, pv.CanRedistribute)
	assert.Equal(t, 1, pv.Targets[0].Week)

	final, err := session.ConfirmPending("operator")
	require.NoError(t, err)
	require.True(t, final.Committed)
	assert.Equal(t, split.Split{100, 50, 100, 150}, final.Schedule.Split)
	assert.Equal(t, 0, session.Residual())
	assert.Equal(t, split.StateIdle, session.State())

	edits, err := mem.ListEdits(ctx, "job-1")
	require.NoError(t, err)
	last := edits[len(edits)-1]
	assert.Equal(t, plan.RecordEdit, last.Kind)
	assert.Equal(t, split.DirectionBackward, last.Direction)
	prev := edits[len(edits)-2]
	assert.Equal(t, plan.RecordUnlock, prev.Kind)
}

func TestEditSession_ConfirmRefusedWhileNegative(t *testing.T) {
	// GIVEN: A suspended edit whose backward targets are too small
	// WHEN: Confirm runs
	// THEN: NegativeValueError and the flow stays open

	session, _ := newTestSession(t, 40, 3) // seeds [14 13 13]
	_, err := session.SetLock(2, true, "operator")
	require.NoError(t, err)
	_, err = session.SetLock(0, true, "operator")
	require.NoError(t, err)

	// editing week 1 leaves no forward target (week 2 locked)
	res, err := session.Apply(1, 40, "operator")
	require.NoError(t, err)
	require.NotNil(t, res.Pending)

	// unlock week 0 so there is a target, but one far too small
	_, err = session.SetLock(0, false, "operator")
	require.NoError(t, err)

	_, err = session.ConfirmPending("operator")
	require.Error(t, err)
	assert.ErrorIs(t, err, split.ErrNegativeValues)
	assert.Equal(t, split.StateAwaiting, session.State())

	// lowering the value clears the refusal
	pv, err := session.UpdatePending(26)
	require.NoError(t, err)
	assert.False(t, pv.HasNegative)

	final, err := session.ConfirmPending("operator")
	require.NoError(t, err)
	assert.Equal(t, 0, final.Record.Residual)
	assert.Equal(t, 40, final.Schedule.Split.Sum())
}

func TestEditSession_CancelPending_KeepsMidFlowUnlocks(t *testing.T) {
	// GIVEN: A suspended edit and an unlock made while deciding
	// WHEN: The operator cancels
	// THEN: The pending edit is gone but the unlock stays committed

	session, mem := newTestSession(t, 400, 4)
	for _, w := range []int{0, 1, 2} {
		_, err := session.SetLock(w, true, "operator")
		require.NoError(t, err)
	}
	_, err := session.Apply(3, 150, "operator")
	require.NoError(t, err)

	_, err = session.SetLock(0, false, "operator")
	require.NoError(t, err)

	discarded, ok := session.CancelPending()
	require.True(t, ok)
	assert.Equal(t, 3, discarded.Week)
	assert.Equal(t, split.StateIdle, session.State())

	stored, err := mem.GetSchedule(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, stored.Locks[0], "the unlock persisted through cancel")
	assert.Equal(t, 100, stored.Split[3], "the edit itself never landed")
}

// =============================================================================
// PERSISTENCE BOUNDARY TESTS
// =============================================================================

func TestEditSession_CommitCallbackFailure_KeepsPreviousState(t *testing.T) {
	// GIVEN: A session whose commit callback fails
	// WHEN: An edit tries to commit
	// THEN: The error surfaces and the session still shows the old state

	job := testJob(400, 4)
	schedule := plan.NewSchedule(job, testClock)
	boom := errors.New("disk gone")

	session := plan.NewEditSession(job, schedule, func(plan.Schedule, plan.EditRecord) error {
		return boom
	})
	session.Clock = func() time.Time { return testClock }

	_, err := session.Apply(1, 140, "operator")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, split.Split{100, 100, 100, 100}, session.Schedule().Split)
	assert.False(t, session.Schedule().Locks[1])
}

func TestEditSession_Reset_ReseedsAndDropsPending(t *testing.T) {
	// GIVEN: A locked-up schedule with a pending edit
	// WHEN: Reset runs
	// THEN: Even spread, no locks, no pending edit, reset in history

	session, mem := newTestSession(t, 400, 4)
	for _, w := range []int{1, 2} {
		_, err := session.SetLock(w, true, "operator")
		require.NoError(t, err)
	}
	_, err := session.Apply(3, 150, "operator")
	require.NoError(t, err)

	res, err := session.Reset("operator")
	require.NoError(t, err)
	assert.Equal(t, split.Split{100, 100, 100, 100}, res.Schedule.Split)
	for i, locked := range res.Schedule.Locks {
		assert.False(t, locked, "week %d should be unlocked after reset", i)
	}
	assert.Equal(t, split.StateIdle, session.State())

	edits, err := mem.ListEdits(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, plan.RecordReset, edits[len(edits)-1].Kind)
	assert.Equal(t, -1, edits[len(edits)-1].Week)
}

// =============================================================================
// INPUT COERCION TESTS
// =============================================================================

func TestParseQuantity_CoercesGarbageToZero(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"42", 42},
		{"  7 ", 7},
		{"-5", -5},
		{"", 0},
		{"abc", 0},
		{"12.5", 0},
		{"1e3", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, plan.ParseQuantity(tc.raw), "input %q", tc.raw)
	}
}
