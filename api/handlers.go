/*
handlers.go - HTTP API handlers for the planning board

PURPOSE:
  Exposes the schedule editing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Jobs:
    GET    /api/jobs                   List all jobs
    POST   /api/jobs                   Create job (seeds an even schedule)
    GET    /api/jobs/{id}              Get job details
    PUT    /api/jobs/{id}              Update job master data
    DELETE /api/jobs/{id}              Delete job, schedule and history

  Schedule:
    GET    /api/jobs/{id}/schedule         Current grid state
    POST   /api/jobs/{id}/schedule/edits   Apply an edit (may suspend)
    POST   /api/jobs/{id}/schedule/preview Trial projection, no mutation
    PUT    /api/jobs/{id}/schedule/pending Change the held value
    POST   /api/jobs/{id}/schedule/confirm Confirm backward redistribution
    POST   /api/jobs/{id}/schedule/cancel  Discard the held edit
    POST   /api/jobs/{id}/schedule/weeks/{week}/lock    Pin a week
    POST   /api/jobs/{id}/schedule/weeks/{week}/unlock  Release a week
    POST   /api/jobs/{id}/schedule/reset   Reseed the even split

  Reporting:
    GET    /api/jobs/{id}/value        Financial summary
    GET    /api/jobs/{id}/edits        Edit history

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Run the operation through the job's edit session (Sessions.Do)
  3. Serialize response
  4. Map domain errors to HTTP status

STATUS MAPPING:
  - 200: Committed edits and reads
  - 202: Edit suspended, awaiting confirmation
  - 400: Validation errors, invalid input
  - 404: Job or schedule not found
  - 409: Another edit awaiting confirmation / nothing pending
  - 422: Confirmation refused (negative weeks)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - sessions.go: Session registry and janitor
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopfloor/planboard/plan"
	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    plan.Store
	Sessions *SessionRegistry

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store plan.Store) *Handler {
	return &Handler{
		Store:    store,
		Sessions: NewSessionRegistry(store),
	}
}

// =============================================================================
// JOB HANDLERS
// =============================================================================

// ListJobs returns all jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetJob returns a single job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	job, err := h.Store.GetJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobDTO(*job))
}

// CreateJob creates a job and seeds its schedule with an even split.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startWeek, err := time.Parse("2006-01-02", req.StartWeek)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_week format (use YYYY-MM-DD)", err)
		return
	}

	unitPrice := decimal.Zero
	if req.UnitPrice != "" {
		unitPrice, err = decimal.NewFromString(req.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
			return
		}
	}

	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = fmt.Sprintf("job-%d", now.UnixNano())
	}

	job := plan.Job{
		ID:            plan.JobID(req.ID),
		Name:          req.Name,
		PartNumber:    req.PartNumber,
		Customer:      req.Customer,
		TotalQuantity: req.TotalQuantity,
		UnitPrice:     unitPrice,
		StartWeek:     plan.StartOfWeek(startWeek),
		Weeks:         req.Weeks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveJob(ctx, job); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create job", err)
		return
	}
	if err := h.Store.SaveSchedule(ctx, plan.NewSchedule(job, now)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed schedule", err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobDTO(job))
}

// UpdateJob updates job master data. The weekly split is not touched
// here; any live edit session is dropped so the next schedule call
// sees the new master data.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var req UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	job, err := h.Store.GetJob(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != nil {
		job.Name = *req.Name
	}
	if req.PartNumber != nil {
		job.PartNumber = *req.PartNumber
	}
	if req.Customer != nil {
		job.Customer = *req.Customer
	}
	if req.UnitPrice != nil {
		price, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
			return
		}
		job.UnitPrice = price
	}
	job.UpdatedAt = time.Now().UTC()

	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job", err)
		return
	}
	if err := h.Store.SaveJob(ctx, *job); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update job", err)
		return
	}

	h.Sessions.Release(id)
	writeJSON(w, http.StatusOK, toJobDTO(*job))
}

// DeleteJob removes a job with its schedule and history.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	h.Sessions.Release(id)
	if err := h.Store.DeleteJob(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the current grid state, including any pending
// confirmation.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var dto ScheduleDTO
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		dto = sessionScheduleDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ApplyEdit applies a week edit. Forward redistribution commits
// immediately (200); an edit with only earlier weeks open suspends and
// returns the pending payload with its preview (202).
func (h *Handler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var req EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var dto EditResultDTO
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		result, err := s.Apply(req.Week, int(req.Value), req.Actor)
		if err != nil {
			return err
		}
		dto = editResultDTO(s, result)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if dto.Committed {
		writeJSON(w, http.StatusOK, dto)
		return
	}
	writeJSON(w, http.StatusAccepted, dto)
}

// PreviewEdit computes the trial projection for a proposed value
// without committing anything. Targets are the open weeks before the
// edited one; can_redistribute false means a commit would suspend.
func (h *Handler) PreviewEdit(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var req EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var preview split.Preview
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		sched := s.Schedule()
		var err error
		preview, err = split.ComputePreview(sched.Split, sched.Locks, req.Week, int(req.Value), s.Job().TotalQuantity)
		return err
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPreviewDTO(preview))
}

// UpdatePending changes the held value of the pending edit and returns
// the recomputed preview.
func (h *Handler) UpdatePending(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var req UpdatePendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		preview *split.Preview
		pending split.PendingEdit
	)
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		var err error
		preview, err = s.UpdatePending(int(req.Value))
		if err != nil {
			return err
		}
		pending, _ = s.Pending()
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := toPreviewDTO(*preview)
	writeJSON(w, http.StatusOK, EditResultDTO{
		Committed: false,
		Pending:   &PendingDTO{Week: pending.Week, Value: pending.Value},
		Preview:   &dto,
	})
}

// ConfirmPending commits the pending edit backward across the open
// earlier weeks. Refused with 422 while the projection shows clamped
// weeks.
func (h *Handler) ConfirmPending(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var req ConfirmRequest
	json.NewDecoder(r.Body).Decode(&req) // empty body is fine

	var dto EditResultDTO
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		result, err := s.ConfirmPending(req.Actor)
		if err != nil {
			return err
		}
		dto = editResultDTO(s, result)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.Sessions.Release(id)
	writeJSON(w, http.StatusOK, dto)
}

// CancelPending discards the held edit. Weeks unlocked while the
// confirmation was open stay unlocked.
func (h *Handler) CancelPending(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var (
		cancelled bool
		dto       ScheduleDTO
	)
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		_, cancelled = s.CancelPending()
		dto = sessionScheduleDTO(s)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.Sessions.Release(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"cancelled": cancelled,
		"schedule":  dto,
	})
}

// LockWeek pins a week so redistribution skips it.
func (h *Handler) LockWeek(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, true)
}

// UnlockWeek releases a pinned week. Allowed while a confirmation is
// open; the pending preview picks the week up immediately.
func (h *Handler) UnlockWeek(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, false)
}

func (h *Handler) setLock(w http.ResponseWriter, r *http.Request, locked bool) {
	id := plan.JobID(chi.URLParam(r, "id"))

	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week index", err)
		return
	}

	var dto EditResultDTO
	err = h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		result, err := s.SetLock(week, locked, actorFrom(r))
		if err != nil {
			return err
		}
		dto = editResultDTO(s, result)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ResetSchedule reseeds the even split, discarding any pending edit.
func (h *Handler) ResetSchedule(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var dto EditResultDTO
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		result, err := s.Reset(actorFrom(r))
		if err != nil {
			return err
		}
		dto = editResultDTO(s, result)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetValue returns the financial summary for the current schedule.
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	var dto ValueSummaryDTO
	err := h.Sessions.Do(r.Context(), id, func(s *plan.EditSession) error {
		dto = toValueSummaryDTO(s.Values())
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetEditLog returns a job's edit history, oldest first.
func (h *Handler) GetEditLog(w http.ResponseWriter, r *http.Request) {
	id := plan.JobID(chi.URLParam(r, "id"))

	ctx := r.Context()
	if _, err := h.Store.GetJob(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}

	records, err := h.Store.ListEdits(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	writeJSON(w, http.StatusOK, toEditLogDTOs(records))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var negErr *split.NegativeValueError
	switch {
	case errors.As(err, &negErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   negErr.Error(),
			Code:    "negative_values",
			Details: negErr.Weeks,
		})
	case plan.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case split.IsConflict(err):
		writeError(w, http.StatusConflict, "Another edit is awaiting confirmation", err)
	case errors.Is(err, split.ErrNoPendingEdit):
		writeError(w, http.StatusConflict, "No edit awaiting confirmation", err)
	case split.IsClientError(err) || errors.Is(err, plan.ErrInvalidJob):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// sessionScheduleDTO snapshots a session into the grid view.
func sessionScheduleDTO(s *plan.EditSession) ScheduleDTO {
	var pendingPtr *split.PendingEdit
	if pending, ok := s.Pending(); ok {
		pendingPtr = &pending
	}
	return toScheduleDTO(s.Job(), s.Schedule(), s.State(), pendingPtr)
}

// editResultDTO shapes a session operation result for the wire.
// Called while the session lock is held.
func editResultDTO(s *plan.EditSession, result *plan.EditResult) EditResultDTO {
	dto := EditResultDTO{Committed: result.Committed}

	if result.Committed {
		sched := sessionScheduleDTO(s)
		dto.Schedule = &sched
		if result.Record != nil {
			rec := toEditLogDTO(*result.Record)
			dto.Record = &rec
		}
		return dto
	}

	if result.Pending != nil {
		dto.Pending = &PendingDTO{Week: result.Pending.Week, Value: result.Pending.Value}
	}
	if result.Preview != nil {
		preview := toPreviewDTO(*result.Preview)
		dto.Preview = &preview
	}
	return dto
}

func actorFrom(r *http.Request) string {
	return r.URL.Query().Get("actor")
}
