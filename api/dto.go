/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Jobs:
    JobDTO, CreateJobRequest, UpdateJobRequest

  Schedules:
    ScheduleDTO, WeekDTO, EditResultDTO, PreviewDTO, TargetChangeDTO,
    PendingDTO

  Value:
    ValueSummaryDTO, WeekValueDTO (decimals rendered as strings so the
    dashboard never touches floats)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

QUANTITY COERCION:
  Week quantities arrive from free-typed grid cells. The Quantity type
  accepts JSON numbers and strings; anything that isn't a whole number
  becomes 0 rather than an error, so a half-typed cell never blocks the
  grid.

SEE ALSO:
  - handlers.go: Uses these types
  - plan/session.go: ParseQuantity (string coercion rules)
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopfloor/planboard/plan"
	"github.com/shopfloor/planboard/split"
)

// =============================================================================
// QUANTITY COERCION
// =============================================================================

// Quantity is a week quantity decoded from a grid cell. Whole numbers
// pass through; quoted values go through plan.ParseQuantity; anything
// else coerces to 0.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Quantity(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(plan.ParseQuantity(s))
		return nil
	}
	*q = 0
	return nil
}

// =============================================================================
// JOB TYPES
// =============================================================================

// JobDTO represents a production job in API responses.
type JobDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PartNumber    string `json:"part_number,omitempty"`
	Customer      string `json:"customer,omitempty"`
	TotalQuantity int    `json:"total_quantity"`
	UnitPrice     string `json:"unit_price"`
	StartWeek     string `json:"start_week"`
	Weeks         int    `json:"weeks"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// CreateJobRequest is the request to create a job.
type CreateJobRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PartNumber    string `json:"part_number"`
	Customer      string `json:"customer"`
	TotalQuantity int    `json:"total_quantity"`
	UnitPrice     string `json:"unit_price"`
	StartWeek     string `json:"start_week"` // YYYY-MM-DD
	Weeks         int    `json:"weeks"`
}

// UpdateJobRequest is the request to update job master data. The weekly
// split is edited through the schedule endpoints, not here.
type UpdateJobRequest struct {
	Name       *string `json:"name,omitempty"`
	PartNumber *string `json:"part_number,omitempty"`
	Customer   *string `json:"customer,omitempty"`
	UnitPrice  *string `json:"unit_price,omitempty"`
}

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// WeekDTO is one week of a schedule.
type WeekDTO struct {
	Week     int    `json:"week"`
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
	Locked   bool   `json:"locked"`
}

// ScheduleDTO is the full schedule view the grid renders from.
type ScheduleDTO struct {
	JobID         string      `json:"job_id"`
	TotalQuantity int         `json:"total_quantity"`
	Weeks         []WeekDTO   `json:"weeks"`
	Residual      int         `json:"residual"`
	Balanced      bool        `json:"balanced"`
	State         string      `json:"state"`
	Pending       *PendingDTO `json:"pending,omitempty"`
	UpdatedAt     string      `json:"updated_at,omitempty"`
}

// EditRequestDTO is the body for edit and preview calls.
type EditRequestDTO struct {
	Week  int      `json:"week"`
	Value Quantity `json:"value"`
	Actor string   `json:"actor,omitempty"`
}

// UpdatePendingRequest changes the held value of a pending edit.
type UpdatePendingRequest struct {
	Value Quantity `json:"value"`
}

// ConfirmRequest confirms a pending edit.
type ConfirmRequest struct {
	Actor string `json:"actor,omitempty"`
}

// TargetChangeDTO is one week's projected adjustment.
type TargetChangeDTO struct {
	Week     int  `json:"week"`
	OldValue int  `json:"old_value"`
	NewValue int  `json:"new_value"`
	Clamped  bool `json:"clamped,omitempty"`
}

// PreviewDTO is the trial projection shown before a backward
// redistribution is confirmed.
type PreviewDTO struct {
	Difference      int               `json:"difference"`
	Targets         []TargetChangeDTO `json:"targets"`
	HasNegative     bool              `json:"has_negative"`
	CanRedistribute bool              `json:"can_redistribute"`
}

// PendingDTO describes a held edit awaiting confirmation.
type PendingDTO struct {
	Week  int `json:"week"`
	Value int `json:"value"`
}

// EditResultDTO is the response to an edit operation. Committed edits
// carry the new schedule; suspended edits carry the pending payload and
// its preview instead.
type EditResultDTO struct {
	Committed bool         `json:"committed"`
	Schedule  *ScheduleDTO `json:"schedule,omitempty"`
	Pending   *PendingDTO  `json:"pending,omitempty"`
	Preview   *PreviewDTO  `json:"preview,omitempty"`
	Record    *EditLogDTO  `json:"record,omitempty"`
}

// EditLogDTO is one entry of a job's edit history.
type EditLogDTO struct {
	ID        int64  `json:"id"`
	JobID     string `json:"job_id"`
	Kind      string `json:"kind"`
	Week      int    `json:"week"`
	OldValue  int    `json:"old_value"`
	NewValue  int    `json:"new_value"`
	Direction string `json:"direction"`
	Residual  int    `json:"residual"`
	Actor     string `json:"actor,omitempty"`
	At        string `json:"at"`
}

// =============================================================================
// VALUE TYPES
// =============================================================================

// WeekValueDTO is one week's financial value.
type WeekValueDTO struct {
	Week     int    `json:"week"`
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
	Value    string `json:"value"`
}

// ValueSummaryDTO is the financial summary for a job.
type ValueSummaryDTO struct {
	JobID          string         `json:"job_id"`
	UnitPrice      string         `json:"unit_price"`
	Weeks          []WeekValueDTO `json:"weeks"`
	ScheduledValue string         `json:"scheduled_value"`
	TotalValue     string         `json:"total_value"`
	ResidualValue  string         `json:"residual_value"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toJobDTO(j plan.Job) JobDTO {
	return JobDTO{
		ID:            string(j.ID),
		Name:          j.Name,
		PartNumber:    j.PartNumber,
		Customer:      j.Customer,
		TotalQuantity: j.TotalQuantity,
		UnitPrice:     j.UnitPrice.String(),
		StartWeek:     j.StartWeek.Format("2006-01-02"),
		Weeks:         j.Weeks,
		CreatedAt:     j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     j.UpdatedAt.Format(time.RFC3339),
	}
}

func toScheduleDTO(job plan.Job, s plan.Schedule, state split.ConfirmationState, pending *split.PendingEdit) ScheduleDTO {
	weeks := make([]WeekDTO, len(s.Split))
	for i, qty := range s.Split {
		weeks[i] = WeekDTO{
			Week:     i,
			Label:    job.WeekLabel(i),
			Quantity: qty,
			Locked:   s.Locks[i],
		}
	}

	dto := ScheduleDTO{
		JobID:         string(job.ID),
		TotalQuantity: job.TotalQuantity,
		Weeks:         weeks,
		Residual:      s.Residual(job.TotalQuantity),
		Balanced:      s.Balanced(job.TotalQuantity),
		State:         string(state),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
	if pending != nil {
		dto.Pending = &PendingDTO{Week: pending.Week, Value: pending.Value}
	}
	return dto
}

func toPreviewDTO(p split.Preview) PreviewDTO {
	targets := make([]TargetChangeDTO, len(p.Targets))
	for i, t := range p.Targets {
		targets[i] = TargetChangeDTO{
			Week:     t.Week,
			OldValue: t.OldValue,
			NewValue: t.NewValue,
			Clamped:  t.Clamped,
		}
	}
	return PreviewDTO{
		Difference:      p.Difference,
		Targets:         targets,
		HasNegative:     p.HasNegative,
		CanRedistribute: p.CanRedistribute,
	}
}

func toEditLogDTO(rec plan.EditRecord) EditLogDTO {
	return EditLogDTO{
		ID:        rec.ID,
		JobID:     string(rec.JobID),
		Kind:      string(rec.Kind),
		Week:      rec.Week,
		OldValue:  rec.OldValue,
		NewValue:  rec.NewValue,
		Direction: string(rec.Direction),
		Residual:  rec.Residual,
		Actor:     rec.Actor,
		At:        rec.At.Format(time.RFC3339),
	}
}

func toEditLogDTOs(recs []plan.EditRecord) []EditLogDTO {
	dtos := make([]EditLogDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toEditLogDTO(rec)
	}
	return dtos
}

func toValueSummaryDTO(v plan.ValueSummary) ValueSummaryDTO {
	weeks := make([]WeekValueDTO, len(v.Weeks))
	for i, wv := range v.Weeks {
		weeks[i] = WeekValueDTO{
			Week:     wv.Week,
			Label:    wv.Label,
			Quantity: wv.Quantity,
			Value:    wv.Value.String(),
		}
	}
	return ValueSummaryDTO{
		JobID:          string(v.JobID),
		UnitPrice:      v.UnitPrice.String(),
		Weeks:          weeks,
		ScheduledValue: v.ScheduledValue.String(),
		TotalValue:     v.TotalValue.String(),
		ResidualValue:  v.ResidualValue.String(),
	}
}
