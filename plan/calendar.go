/*
calendar.go - Week arithmetic for schedules

PURPOSE:
  Schedules index weeks 0..Weeks-1; the shop floor talks in calendar
  weeks. These helpers translate between the two. Weeks start Monday,
  everything is UTC, labels use ISO week notation ("2026-W08").
*/
package plan

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK ARITHMETIC
// =============================================================================

// StartOfWeek returns the Monday 00:00 UTC of t's week.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	// time.Weekday puts Sunday at 0; shift so Monday is 0
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeeksSpanned counts the Monday-to-Monday weeks from start up to and
// including the week containing end. Minimum 1 when end >= start.
func WeeksSpanned(start, end time.Time) int {
	a := StartOfWeek(start)
	b := StartOfWeek(end)
	if b.Before(a) {
		return 0
	}
	return int(b.Sub(a).Hours()/(24*7)) + 1
}

// WeekStart returns the Monday of schedule week index.
func (j Job) WeekStart(index int) time.Time {
	return StartOfWeek(j.StartWeek).AddDate(0, 0, 7*index)
}

// WeekLabel renders schedule week index as an ISO week label.
func (j Job) WeekLabel(index int) string {
	year, week := j.WeekStart(index).ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// EndWeek returns the Monday of the job's last schedule week.
func (j Job) EndWeek() time.Time {
	return j.WeekStart(j.Weeks - 1)
}
