package checkout

import (
	"errors"
	"fmt"

	"github.com/aingc/stripe-example/internal/catalog"
)

// ErrEmptyCart rejects a purchase with no line items instead of issuing a
// zero-amount charge.
var ErrEmptyCart = errors.New("cart is empty, nothing to charge")

// UnknownItemError reports a submitted item id that is absent from the
// catalog. The whole checkout fails: a missing id means a stale or tampered
// client cart, and the computed total can no longer be trusted to match what
// the buyer saw.
type UnknownItemError struct {
	ID catalog.ItemID
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %q", string(e.ID))
}

// InvalidQuantityError reports a quantity that is not a positive integer.
// The server rejects rather than clamps: a non-positive quantity can only
// come from a client that bypassed the UI, which is adversarial input.
type InvalidQuantityError struct {
	ID       catalog.ItemID
	Quantity string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %s for item %q", e.Quantity, string(e.ID))
}

// CatalogUnavailableError wraps a catalog storage fault detected at checkout
// time. No charge is attempted.
type CatalogUnavailableError struct {
	Err error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unavailable: %v", e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error {
	return e.Err
}

// ProcessorError reports a definitive charge failure: the processor declined
// or errored before any money moved. It carries the processor's stated
// reason and is never retried automatically.
type ProcessorError struct {
	Reason string
	Err    error
}

func (e *ProcessorError) Error() string {
	if e.Reason != "" {
		return "payment failed: " + e.Reason
	}
	return fmt.Sprintf("payment failed: %v", e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// AmbiguousOutcomeError reports that the charge submission was interrupted
// before a definitive response arrived. The charge may or may not have gone
// through; callers must not treat this as a failure and resubmit blindly,
// since a duplicate submission could double-charge.
type AmbiguousOutcomeError struct {
	Err error
}

func (e *AmbiguousOutcomeError) Error() string {
	return fmt.Sprintf("charge outcome unknown: %v", e.Err)
}

func (e *AmbiguousOutcomeError) Unwrap() error {
	return e.Err
}
