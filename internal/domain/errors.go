package domain

import (
	"errors"
	"fmt"
)

// Business-rule failures surfaced to callers with a specific reason.
// Handlers map these onto HTTP status codes; the batch optimizer treats
// the eligibility family and ErrNoCoverage as per-leg skips.
var (
	// ErrNoEligibleShipper: assignment attempted against an empty or
	// ineligible shipper set.
	ErrNoEligibleShipper = errors.New("no eligible shipper available")

	// ErrPrecedentNotAssigned: a TRANSFER or DELIVERY leg was assigned
	// before its predecessor had a shipper.
	ErrPrecedentNotAssigned = errors.New("predecessor leg has no assigned shipper")

	// ErrWarehouseInactive: the supplied destination warehouse is not ACTIVE.
	ErrWarehouseInactive = errors.New("warehouse is not active")

	// ErrNoCoverage: no destination warehouse could be determined for the
	// order's area. The order stays PENDING without legs; retryable.
	ErrNoCoverage = errors.New("no warehouse coverage for order area")

	// ErrConflict: a concurrent mutation won the race. The caller's read
	// was stale; re-read and retry rather than overwrite.
	ErrConflict = errors.New("conflicting concurrent update")
)

// IsEligibility reports whether err belongs to the eligibility family
// (business-rule violations the optimizer recovers from per leg).
func IsEligibility(err error) bool {
	return errors.Is(err, ErrNoEligibleShipper) ||
		errors.Is(err, ErrPrecedentNotAssigned) ||
		errors.Is(err, ErrWarehouseInactive)
}

// NotFoundError identifies an unknown order/leg/shipper/warehouse/area id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
