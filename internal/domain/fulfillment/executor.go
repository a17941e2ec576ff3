package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropflow/backend/internal/domain/order"
)

// ErrorKind distinguishes supplier-side failure reasons. The orchestrator
// does not branch on them, but operators reviewing failed orders do.
type ErrorKind string

const (
	ErrorKindLoginFailed      ErrorKind = "login_failed"
	ErrorKindProductNotFound  ErrorKind = "product_not_found"
	ErrorKindCheckoutStep     ErrorKind = "checkout_step_missing"
	ErrorKindPaymentDeclined  ErrorKind = "payment_declined"
	ErrorKindTimeout          ErrorKind = "timeout"
	ErrorKindInternal         ErrorKind = "internal"
)

// ExecutionError is a typed supplier-side failure. Callers can distinguish
// retryable from terminal failures without string-matching messages.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// Unwrap exposes the underlying cause
func (e *ExecutionError) Unwrap() error { return e.Cause }

// NewExecutionError creates an ExecutionError
func NewExecutionError(kind ErrorKind, message string, cause error) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the error kind from any error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	return ErrorKindInternal
}

// Retryable reports whether a failure of this kind is worth another automated
// attempt. Login and payment problems need an operator first.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindTimeout, ErrorKindCheckoutStep, ErrorKindInternal:
		return true
	}
	return false
}

// Executor acquires the product from the supplier and arranges shipment to
// the buyer, reporting the outcome as a FulfillmentRecord. Implementations
// must respect ctx cancellation: a deadline expiry tears down any external
// session (browser, supplier API) rather than leaving it mid-transaction.
//
// The returned record is attached to the order even when err is non-nil; a
// failed attempt still produces evidence for the operator.
type Executor interface {
	AttemptFulfillment(ctx context.Context, o *order.Order) (order.FulfillmentRecord, error)

	// Name identifies the strategy in logs and config.
	Name() string
}
