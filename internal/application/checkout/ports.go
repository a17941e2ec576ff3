package checkout

import (
	"context"

	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

// PaymentStatus is the gateway's view of a checkout session
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

// CreateSessionRequest describes the hosted checkout session to create.
// Metadata carries the order context (cost, supplier URL, shipping address)
// through the stateless payment flow so verification can reconstruct the
// order without a separate lookup.
type CreateSessionRequest struct {
	ProductName string
	ImageURL    string
	Amount      valueobject.Money
	BuyerEmail  string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is a created hosted checkout session
type Session struct {
	ID  string
	URL string
}

// VerifyResult reports whether a session was paid and echoes back the
// metadata attached at creation time.
type VerifyResult struct {
	Status     PaymentStatus
	AmountPaid valueobject.Money
	BuyerEmail string
	Metadata   map[string]string
}

// Paid reports whether the session has been paid
func (v VerifyResult) Paid() bool { return v.Status == PaymentStatusPaid }

// PaymentGateway is the payment-status oracle. Implementations must
// round-trip metadata verbatim between CreateSession and Verify.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error)
	Verify(ctx context.Context, sessionID string) (VerifyResult, error)
}

// Dispatcher hands a paid order to the background fulfillment machinery.
// Enqueueing must not block the caller's request path.
type Dispatcher interface {
	Enqueue(o *order.Order) error
}
