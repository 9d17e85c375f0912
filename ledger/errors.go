/*
errors.go - Centralized error types for the rent ledger

PURPOSE:
  All error types in one place. The billing layer wraps these with domain
  context; the HTTP layer maps them onto status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed input rejected before the engine runs
  2. Not-found errors  - payment or lease assignment absent
  3. Conflict errors   - payment already in a terminal approval state
  4. Invariant errors  - money created or destroyed by a buggy allocation;
                         always a hard failure, never silently clamped

USAGE:
  if errors.Is(err, ledger.ErrAlreadyDecided) {
      // reject the duplicate approval, leave the balance untouched
  }

SEE ALSO:
  - engine.go: raises validation and invariant errors
  - billing/approval.go: raises not-found and conflict errors
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRent is returned when monthly rent is zero or negative.
	ErrInvalidRent = errors.New("monthly rent must be positive")

	// ErrInvalidAmount is returned for a zero or negative payment amount.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrInvalidLeaseStart is returned when a lease start date is missing.
	ErrInvalidLeaseStart = errors.New("lease start date required")

	// ErrPaymentNotFound is returned when a referenced payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAssignmentNotFound is returned when a lease assignment doesn't exist.
	ErrAssignmentNotFound = errors.New("tenant assignment not found")

	// ErrNoActiveLease is returned when a payment's tenant/unit pair has no
	// ACTIVE assignment to post the payment against.
	ErrNoActiveLease = errors.New("no active lease for payment")

	// ErrAlreadyDecided is returned when approving or denying a payment that
	// is already in a terminal state. Terminal states are one-way.
	ErrAlreadyDecided = errors.New("payment already decided")

	// ErrInvariantViolation is returned when an allocation breaks money
	// conservation. This indicates a bug, not a business condition.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports a rejected state transition on a decided payment.
type ConflictError struct {
	PaymentID string
	State     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("payment %s already %s", e.PaymentID, e.State)
}

func (e *ConflictError) Unwrap() error { return ErrAlreadyDecided }

// InvariantError reports a broken allocation invariant with enough context
// to debug it.
type InvariantError struct {
	Month     Month
	Allocated Money
	Rent      Money
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: allocated %s against rent %s (%s)",
		e.Month, e.Allocated, e.Rent, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// ValidationError reports malformed input with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrNoActiveLease)
}

// IsConflict returns true if the error indicates a terminal-state collision.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyDecided)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidRent) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidLeaseStart)
}
