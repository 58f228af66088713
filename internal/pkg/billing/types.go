package billing

import (
	"context"
	"errors"
)

// Reconcile outcome reasons surfaced to both triggers.
const (
	ReasonAlreadyVerified = "Payment already verified"
	ReasonInProgress      = "Payment verification in progress"
	ReasonNotCompleted    = "Payment not completed"
	ReasonVerified        = "Payment verified and user plan updated"
)

var (
	// ErrPaymentNotCompleted signals the provider reported an unpaid session.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrUserNotFound signals the target account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPlan signals a plan that cannot be purchased.
	ErrInvalidPlan = errors.New("invalid plan")
)

// Result is the outcome of one reconciliation attempt. Applied=true covers
// both "this call mutated state" and the idempotent no-op cases (already
// verified, or another in-flight attempt is expected to finish the work).
type Result struct {
	Applied bool
	Reason  string
}

// CheckoutSession is the provider-agnostic view of a checkout session as
// reported by the payment provider. PaymentStatus is the authoritative
// paid/unpaid answer; client-supplied flags are never trusted.
type CheckoutSession struct {
	ID            string
	PaymentStatus string
	CustomerID    string
	AmountTotal   int64
	Currency      string
}

// PaymentStatusPaid is the provider status required before any mutation.
const PaymentStatusPaid = "paid"

// CheckoutProvider queries the payment provider for authoritative session state.
type CheckoutProvider interface {
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
