package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter narrows order queries
type Filter struct {
	Status *Status
	Limit  int
	Offset int
}

// Totals holds the aggregate figures computed fresh from the full order set.
// They are never cached or maintained incrementally, so they cannot drift.
type Totals struct {
	Count        int64
	TotalRevenue decimal.Decimal
	TotalProfit  decimal.Decimal
}

// Repository is the durable record of all orders and the single source of
// truth for profit accounting. Creation is append-only; afterwards only the
// status and fulfillment record mutate, guarded against lost updates.
type Repository interface {
	// Create persists a new order. Fails with ALREADY_EXISTS if an order with
	// the same payment reference is already stored.
	Create(ctx context.Context, o *Order) error

	// FindByID returns the order or shared.ErrNotFound.
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByPaymentReference returns the order created for a payment
	// reference, or shared.ErrNotFound.
	FindByPaymentReference(ctx context.Context, ref string) (*Order, error)

	// FindAll returns orders newest-first, optionally filtered by status.
	FindAll(ctx context.Context, filter Filter) ([]Order, error)

	// Update persists status/record mutations using the order's version for
	// optimistic locking. Fails with CONCURRENCY_CONFLICT on a lost race and
	// NOT_FOUND for unknown ids.
	Update(ctx context.Context, o *Order) error

	// Totals computes revenue and profit aggregates over the current order set.
	Totals(ctx context.Context) (Totals, error)

	// DeleteAll removes every order. Administrative bulk-clear only.
	DeleteAll(ctx context.Context) error
}
