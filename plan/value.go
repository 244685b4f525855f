/*
value.go - Money projection of a schedule

PURPOSE:
  The dashboard's financial strip shows what each week is worth and
  how much of the order value is actually placed on the board. This
  file multiplies quantities by the unit price and reports the raw
  decimal values; rendering and currency formatting happen in the
  frontend.

WHY DECIMAL:
  Unit prices are money. Week quantities are ints, but 37 * 12.99
  must come out exact, so the arithmetic runs on decimal.Decimal and
  the wire layer serializes the values as strings.

SEE ALSO:
  - types.go: Job.UnitPrice
  - api/dto.go: String serialization of these values
*/
package plan

import "github.com/shopspring/decimal"

// =============================================================================
// VALUE SUMMARY
// =============================================================================

// WeekValue is one week's quantity priced out.
type WeekValue struct {
	Week     int
	Label    string
	Quantity int
	Value    decimal.Decimal
}

// ValueSummary prices a whole schedule. ScheduledValue covers what is
// on the board; TotalValue covers the full order; ResidualValue is
// the gap between them, nonzero exactly when the residual warning is
// showing.
type ValueSummary struct {
	JobID     JobID
	UnitPrice decimal.Decimal

	Weeks []WeekValue

	ScheduledValue decimal.Decimal
	TotalValue     decimal.Decimal
	ResidualValue  decimal.Decimal
}

// ComputeValueSummary prices the committed schedule of a job.
func ComputeValueSummary(job Job, s Schedule) ValueSummary {
	summary := ValueSummary{
		JobID:          job.ID,
		UnitPrice:      job.UnitPrice,
		Weeks:          make([]WeekValue, 0, len(s.Split)),
		ScheduledValue: decimal.Zero,
	}

	for i, qty := range s.Split {
		value := job.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		summary.Weeks = append(summary.Weeks, WeekValue{
			Week:     i,
			Label:    job.WeekLabel(i),
			Quantity: qty,
			Value:    value,
		})
		summary.ScheduledValue = summary.ScheduledValue.Add(value)
	}

	summary.TotalValue = job.UnitPrice.Mul(decimal.NewFromInt(int64(job.TotalQuantity)))
	summary.ResidualValue = summary.TotalValue.Sub(summary.ScheduledValue)
	return summary
}
