/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Jobs are created with valid master data
	- Schedules carry the intended splits and locks
	- History entries are seeded where the story needs them

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor/planboard/split"
)

func TestScenario_FreshBoard(t *testing.T) {
	// GIVEN: Fresh board scenario
	// WHEN: Loading it
	// THEN: Three jobs exist, each balanced with an even split

	h, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, h.loadFreshBoardScenario(ctx))

	jobs, err := h.Store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	for _, job := range jobs {
		sched, err := h.Store.GetSchedule(ctx, job.ID)
		require.NoError(t, err)
		assert.Len(t, sched.Split, job.Weeks)
		assert.Equal(t, job.TotalQuantity, sched.Split.Sum(), "job %s should be balanced", job.ID)
		assert.Len(t, sched.Locks.Unlocked(), job.Weeks, "no week should start pinned")
	}
}

func TestScenario_LockedWeeks(t *testing.T) {
	h, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, h.loadLockedWeeksScenario(ctx))

	sched, err := h.Store.GetSchedule(ctx, "job-brackets")
	require.NoError(t, err)
	assert.Equal(t, split.Split{160, 80, 80, 80}, sched.Split)
	assert.Equal(t, split.Locks{true, false, false, false}, sched.Locks)

	history, err := h.Store.ListEdits(ctx, "job-brackets")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, split.DirectionForward, history[0].Direction)
}

func TestScenario_BackwardOnly_SuspendsNextEdit(t *testing.T) {
	// GIVEN: The backward-only scenario (late weeks pinned)
	// WHEN: Editing week 1 through the API
	// THEN: The edit suspends instead of committing

	h, router := newTestServer(t)
	require.NoError(t, h.loadBackwardOnlyScenario(context.Background()))

	rec := doJSON(t, router, http.MethodPost, "/api/jobs/job-housings/schedule/edits", EditRequestDTO{
		Week:  1,
		Value: 50,
	})
	assert.Equal(t, http.StatusAccepted, rec.Code, "body: %s", rec.Body.String())
}

func TestScenario_ClampDemo_RefusesOversizedConfirm(t *testing.T) {
	h, router := newTestServer(t)
	require.NoError(t, h.loadClampDemoScenario(context.Background()))

	rec := doJSON(t, router, http.MethodPost, "/api/jobs/job-shafts/schedule/edits", EditRequestDTO{
		Week:  3,
		Value: 600,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/jobs/job-shafts/schedule/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoadScenario_ViaAPI(t *testing.T) {
	// GIVEN: A board already holding a job
	// WHEN: Loading a scenario through the endpoint
	// THEN: The old data is gone and the scenario is current

	_, router := newTestServer(t)
	createBracketJob(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "fresh-board"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/jobs", nil)
	var jobs []JobDTO
	decodeJSON(t, rec, &jobs)
	require.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.NotEqual(t, "job-1", job.ID)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", nil)
	var current ScenarioDTO
	decodeJSON(t, rec, &current)
	assert.Equal(t, "fresh-board", current.ID)
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
