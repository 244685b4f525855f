/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates jobs, schedules and
	history entries that demonstrate specific grid behaviors.

AVAILABLE SCENARIOS:

	fresh-board:   Three untouched jobs with even splits
	locked-weeks:  A run mid-production, early weeks pinned
	backward-only: Late weeks pinned so the next edit needs confirmation
	clamp-demo:    Small early weeks that clamp to zero on a big edit

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Drop all live edit sessions
 3. Create jobs with Monday-normalized start weeks
 4. Save schedules (even or hand-shaped splits with locks)
 5. Optionally append history entries

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "locked-weeks"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared JSON and error helpers
  - plan/schedule.go: NewSchedule seeding
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopfloor/planboard/plan"
	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-board",
		Name:        "Fresh Board",
		Description: "Three jobs with untouched even splits",
	},
	{
		ID:          "locked-weeks",
		Name:        "Locked Weeks",
		Description: "A run mid-production: early weeks pinned, redistribution flows forward",
	},
	{
		ID:          "backward-only",
		Name:        "Backward Only",
		Description: "Late weeks pinned so the next edit suspends for confirmation",
	},
	{
		ID:          "clamp-demo",
		Name:        "Clamp Demo",
		Description: "Tiny early weeks that clamp to zero when the final week grows",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:   h.currentScenario,
		Name: h.currentScenario,
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Sessions.ReleaseAll()
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-board":
		err = h.loadFreshBoardScenario(ctx)
	case "locked-weeks":
		err = h.loadLockedWeeksScenario(ctx)
	case "backward-only":
		err = h.loadBackwardOnlyScenario(ctx)
	case "clamp-demo":
		err = h.loadClampDemoScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedJob saves a job plus an evenly seeded schedule.
func (h *Handler) seedJob(ctx context.Context, job plan.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if err := h.Store.SaveJob(ctx, job); err != nil {
		return err
	}
	return h.Store.SaveSchedule(ctx, plan.NewSchedule(job, job.CreatedAt))
}

// demoJob builds a job starting on the current week's Monday.
func demoJob(id, name, part, customer string, total, weeks int, price string) plan.Job {
	now := time.Now().UTC()
	return plan.Job{
		ID:            plan.JobID(id),
		Name:          name,
		PartNumber:    part,
		Customer:      customer,
		TotalQuantity: total,
		UnitPrice:     decimal.RequireFromString(price),
		StartWeek:     plan.StartOfWeek(now),
		Weeks:         weeks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (h *Handler) loadFreshBoardScenario(ctx context.Context) error {
	jobs := []plan.Job{
		demoJob("job-brackets", "Bracket run", "BRK-100", "Acme Fabrication", 400, 4, "12.50"),
		demoJob("job-housings", "Housing batch", "HSG-220", "Borealis Pumps", 90, 6, "48"),
		demoJob("job-shafts", "Drive shafts", "SHF-310", "Calder Motors", 1250, 8, "3.75"),
	}
	for _, job := range jobs {
		if err := h.seedJob(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLockedWeeksScenario(ctx context.Context) error {
	job := demoJob("job-brackets", "Bracket run", "BRK-100", "Acme Fabrication", 400, 4, "12.50")
	if err := h.Store.SaveJob(ctx, job); err != nil {
		return err
	}

	// Week 0 already edited and pinned; the surplus went forward.
	sched := plan.Schedule{
		JobID:     job.ID,
		Split:     split.Split{160, 80, 80, 80},
		Locks:     split.Locks{true, false, false, false},
		UpdatedAt: job.CreatedAt,
	}
	if err := h.Store.SaveSchedule(ctx, sched); err != nil {
		return err
	}

	return h.Store.AppendEdit(ctx, plan.EditRecord{
		JobID:     job.ID,
		Kind:      plan.RecordEdit,
		Week:      0,
		OldValue:  100,
		NewValue:  160,
		Direction: split.DirectionForward,
		Actor:     "demo",
		At:        job.CreatedAt,
	})
}

func (h *Handler) loadBackwardOnlyScenario(ctx context.Context) error {
	job := demoJob("job-housings", "Housing batch", "HSG-220", "Borealis Pumps", 120, 4, "48")
	if err := h.Store.SaveJob(ctx, job); err != nil {
		return err
	}

	// Weeks 2 and 3 are pinned: editing week 1 finds no forward
	// target and suspends into the confirmation flow.
	sched := plan.Schedule{
		JobID:     job.ID,
		Split:     split.Split{30, 30, 30, 30},
		Locks:     split.Locks{false, false, true, true},
		UpdatedAt: job.CreatedAt,
	}
	return h.Store.SaveSchedule(ctx, sched)
}

func (h *Handler) loadClampDemoScenario(ctx context.Context) error {
	job := demoJob("job-shafts", "Drive shafts", "SHF-310", "Calder Motors", 500, 4, "3.75")
	if err := h.Store.SaveJob(ctx, job); err != nil {
		return err
	}

	// Raising the final week by more than 15 would push the tiny
	// early weeks negative; the confirm gate holds until the value
	// comes down or more quantity frees up.
	sched := plan.Schedule{
		JobID:     job.ID,
		Split:     split.Split{5, 5, 5, 485},
		Locks:     split.Locks{false, false, false, false},
		UpdatedAt: job.CreatedAt,
	}
	return h.Store.SaveSchedule(ctx, sched)
}
