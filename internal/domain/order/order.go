package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order
type Status string

const (
	// StatusPendingPayment exists only in memory before payment confirmation.
	// It is never persisted.
	StatusPendingPayment Status = "pending_payment"

	StatusPaid                Status = "paid"
	StatusAwaitingFulfillment Status = "awaiting_fulfillment"
	StatusFulfilled           Status = "fulfilled"
	StatusFulfillmentFailed   Status = "fulfillment_failed"
	StatusManualReview        Status = "manual_review"
)

// IsValid checks if the status is a recognized persistable status
func (s Status) IsValid() bool {
	switch s {
	case StatusPaid, StatusAwaitingFulfillment, StatusFulfilled, StatusFulfillmentFailed, StatusManualReview:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// fulfillment_failed may re-enter awaiting_fulfillment via an external retry;
// manual_review requires operator action to exit. No transition skips paid.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPaid:
		return target == StatusAwaitingFulfillment || target == StatusManualReview
	case StatusAwaitingFulfillment:
		return target == StatusFulfilled || target == StatusFulfillmentFailed || target == StatusManualReview
	case StatusFulfillmentFailed:
		return target == StatusAwaitingFulfillment
	case StatusManualReview:
		return target == StatusAwaitingFulfillment || target == StatusFulfilled
	case StatusFulfilled:
		return false
	}
	return false
}

// IsTerminal returns true for states that need no further automated action
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusFulfillmentFailed || s == StatusManualReview
}

// Customer identifies the buyer
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is the aggregate root for a paid order. It is created exactly once
// per successful payment event and never deleted by normal operation. The
// product snapshot and profit are fixed at creation; later catalog price
// changes cannot corrupt historical figures.
type Order struct {
	ID               string              `json:"order_id" gorm:"primaryKey;size:40"`
	PaymentReference string              `json:"payment_reference" gorm:"uniqueIndex;size:128;not null"`
	Product          catalog.Product     `json:"product" gorm:"serializer:json"`
	CustomerName     string              `json:"customer_name" gorm:"size:200"`
	CustomerEmail    string              `json:"customer_email" gorm:"size:254"`
	ShippingAddress  valueobject.Address `json:"shipping_address" gorm:"type:text"`
	AmountPaid       decimal.Decimal     `json:"amount_paid" gorm:"type:decimal(12,2)"`
	Cost             decimal.Decimal     `json:"cost" gorm:"type:decimal(12,2)"`
	Profit           decimal.Decimal     `json:"profit" gorm:"type:decimal(12,2)"`
	Status           Status              `json:"status" gorm:"size:32;index"`
	Record           FulfillmentRecord   `json:"fulfillment_record,omitempty" gorm:"type:text"`
	Version          int64               `json:"-" gorm:"not null;default:1"`
	CreatedAt        time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewOrderID generates a time-based order id with a random suffix so two
// orders created within the same second cannot collide.
func NewOrderID(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), strings.ToUpper(hex.EncodeToString(suffix)))
}

// NewOrder creates a paid order from a confirmed payment. amountPaid is
// authoritative (captured from the gateway, not recomputed from the product)
// and profit is computed once as amountPaid - cost.
func NewOrder(paymentRef string, product catalog.Product, customer Customer, shipTo valueobject.Address, amountPaid, cost valueobject.Money) (*Order, error) {
	if strings.TrimSpace(paymentRef) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment reference cannot be empty")
	}
	if !amountPaid.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Amount paid must be positive")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cost cannot be negative")
	}
	if strings.TrimSpace(customer.Email) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer email cannot be empty")
	}
	if shipTo.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipping address is required")
	}

	now := time.Now()
	return &Order{
		ID:               NewOrderID(now),
		PaymentReference: paymentRef,
		Product:          product,
		CustomerName:     customer.Name,
		CustomerEmail:    customer.Email,
		ShippingAddress:  shipTo,
		AmountPaid:       amountPaid.Amount(),
		Cost:             cost.Amount(),
		Profit:           amountPaid.Amount().Sub(cost.Amount()),
		Status:           StatusPaid,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AmountPaidMoney returns the amount paid as Money
func (o *Order) AmountPaidMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.AmountPaid)
}

// CostMoney returns the supplier cost as Money
func (o *Order) CostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Cost)
}

// ProfitMoney returns the profit as Money
func (o *Order) ProfitMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Profit)
}

// transition moves the order to target, enforcing the state machine
func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAwaitingFulfillment queues the order for a fulfillment attempt
func (o *Order) MarkAwaitingFulfillment() error {
	return o.transition(StatusAwaitingFulfillment)
}

// MarkFulfilled records a successful fulfillment with its evidence
func (o *Order) MarkFulfilled(record FulfillmentRecord) error {
	if err := o.transition(StatusFulfilled); err != nil {
		return err
	}
	o.Record = record
	return nil
}

// MarkFulfillmentFailed records a failed attempt; the order may be retried
func (o *Order) MarkFulfillmentFailed(record FulfillmentRecord) error {
	if err := o.transition(StatusFulfillmentFailed); err != nil {
		return err
	}
	o.Record = record
	return nil
}

// MarkManualReview parks the order for a human. The record, when present,
// carries the manual purchase instructions.
func (o *Order) MarkManualReview(record FulfillmentRecord) error {
	if err := o.transition(StatusManualReview); err != nil {
		return err
	}
	if !record.IsZero() {
		o.Record = record
	}
	return nil
}

// RetryFulfillment re-queues a failed or human-parked order
func (o *Order) RetryFulfillment() error {
	return o.transition(StatusAwaitingFulfillment)
}

// IsFulfilled returns true if the order reached fulfilled
func (o *Order) IsFulfilled() bool {
	return o.Status == StatusFulfilled
}

// NeedsHuman returns true if an operator must act before the order can progress
func (o *Order) NeedsHuman() bool {
	return o.Status == StatusManualReview || o.Status == StatusFulfillmentFailed
}
