/*
errors.go - Centralized error types for the split engine

PURPOSE:
  All engine errors in one place. Callers branch with errors.Is();
  the HTTP layer maps them to status codes without string matching.

ERROR CATEGORIES:
  1. Input errors - malformed split/locks/week arguments
  2. Flow errors - confirmation state machine misuse
  3. Refusals - commits the engine declines to perform

  Note what is NOT an error: a preview with no eligible targets
  (CanRedistribute == false) and a committed residual after clamping
  are both ordinary results the caller displays, never failures.

USAGE:
  out, err := conf.Confirm(s, locks, total)
  if errors.Is(err, split.ErrNegativeValues) {
      var nve *split.NegativeValueError
      errors.As(err, &nve)
      // nve.Weeks lists the weeks that would have been clamped
  }

SEE ALSO:
  - engine.go: Returns input errors
  - confirm.go: Returns flow errors and refusals
*/
package split

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWeekOutOfRange is returned when an edit names a week index
	// outside the schedule.
	ErrWeekOutOfRange = errors.New("week index out of range")

	// ErrLengthMismatch is returned when split and locks are not
	// parallel sequences of the same length.
	ErrLengthMismatch = errors.New("split and locks length mismatch")

	// ErrConfirmationActive is returned when a new edit arrives while
	// an earlier edit is still awaiting confirmation.
	ErrConfirmationActive = errors.New("another edit is awaiting confirmation")

	// ErrNoPendingEdit is returned when a confirmation operation runs
	// with nothing pending.
	ErrNoPendingEdit = errors.New("no edit awaiting confirmation")

	// ErrNegativeValues is returned when confirming would clamp one or
	// more target weeks below zero. The operator adjusts the value or
	// unlocks more weeks instead.
	ErrNegativeValues = errors.New("redistribution would produce negative weeks")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NegativeValueError reports which weeks would have been clamped to
// zero had the confirmation gone through.
type NegativeValueError struct {
	Weeks []int
}

func (e *NegativeValueError) Error() string {
	return fmt.Sprintf("redistribution would produce negative values in %d week(s) %v",
		len(e.Weeks), e.Weeks)
}

func (e *NegativeValueError) Unwrap() error {
	return ErrNegativeValues
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid operator
// input or flow misuse rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrWeekOutOfRange) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrConfirmationActive) ||
		errors.Is(err, ErrNoPendingEdit) ||
		errors.Is(err, ErrNegativeValues)
}

// IsConflict returns true if the error means the operation collides
// with an in-flight confirmation and should be retried after it
// resolves.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConfirmationActive)
}
