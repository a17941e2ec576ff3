package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const (
	// idempotencyTTL bounds how long a confirmation claim is held. Long
	// enough to cover webhook retry storms, short enough to self-heal if a
	// crash strands a claim without a persisted order.
	idempotencyTTL = 10 * time.Minute

	createRetries      = 3
	createRetryBackoff = 100 * time.Millisecond
)

// Service is the single choke point converting a confirmed payment into a
// persisted order and a fulfillment attempt.
type Service struct {
	gateway       PaymentGateway
	orders        order.Repository
	dispatcher    Dispatcher
	idempotency   shared.IdempotencyStore
	verifyTimeout time.Duration
	logger        *zap.Logger

	defaultSuccessURL string
	defaultCancelURL  string
}

// NewService creates a new checkout service
func NewService(gateway PaymentGateway, orders order.Repository, dispatcher Dispatcher, idempotency shared.IdempotencyStore, verifyTimeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}
	return &Service{
		gateway:       gateway,
		orders:        orders,
		dispatcher:    dispatcher,
		idempotency:   idempotency,
		verifyTimeout: verifyTimeout,
		logger:        logger,
	}
}

// SetRedirectDefaults sets the success and cancel URLs used when a checkout
// request does not supply its own.
func (s *Service) SetRedirectDefaults(successURL, cancelURL string) {
	s.defaultSuccessURL = successURL
	s.defaultCancelURL = cancelURL
}

// CreateCheckout validates the listing and opens a hosted checkout session
// with the order context attached as metadata.
func (s *Service) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CheckoutResponse, error) {
	product, err := catalog.NewProduct(req.SKU, req.ProductName,
		valueobject.NewMoneyUSDFromFloat(req.Cost),
		valueobject.NewMoneyUSDFromFloat(req.Price),
		req.SupplierURL)
	if err != nil {
		return nil, err
	}
	if req.ImageURL != "" {
		product = product.WithImage(req.ImageURL)
	}

	shipTo, err := valueobject.NewAddress(req.ShippingStreet, req.ShippingCity, req.ShippingState, req.ShippingZip,
		valueobject.WithCountry(req.ShippingCountry))
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	customer := order.Customer{Name: req.CustomerName, Email: req.CustomerEmail}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.defaultSuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.defaultCancelURL
	}
	if successURL == "" || cancelURL == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "success_url and cancel_url are required")
	}

	session, err := s.gateway.CreateSession(ctx, CreateSessionRequest{
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		Amount:      product.ResalePrice,
		BuyerEmail:  customer.Email,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Metadata:    encodeMetadata(product, customer, shipTo),
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("sku", product.SKU),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("sku", product.SKU),
		zap.String("amount", product.ResalePrice.String()))

	return &CheckoutResponse{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

// HandlePaymentConfirmation verifies a payment and, exactly once per payment
// reference, creates the order and dispatches fulfillment. Safe to call any
// number of times for the same session: duplicates return the existing order.
func (s *Service) HandlePaymentConfirmation(ctx context.Context, sessionID string) (*ConfirmationResult, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "session_id is required")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	result, err := s.gateway.Verify(verifyCtx, sessionID)
	if err != nil {
		// Verification failures are never swallowed: the buyer may have paid.
		s.logger.Error("Payment verification failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	if !result.Paid() {
		return &ConfirmationResult{Status: ConfirmationPending}, nil
	}

	// Fast path: the order already exists for this payment.
	if existing, err := s.orders.FindByPaymentReference(ctx, sessionID); err == nil {
		return confirmationFromOrder(existing), nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// Claim the payment reference. Exactly one concurrent caller wins; the
	// rest observe the claim and poll for the winner's order.
	won, err := s.idempotency.MarkProcessed(ctx, sessionID, idempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, relying on unique index",
			zap.String("session_id", sessionID),
			zap.Error(err))
		won = true
	}
	if !won {
		if existing, err := s.orders.FindByPaymentReference(ctx, sessionID); err == nil {
			return confirmationFromOrder(existing), nil
		}
		// The winner has claimed but not yet persisted. Report pending so
		// the caller polls again rather than racing a second insert.
		return &ConfirmationResult{Status: ConfirmationPending}, nil
	}

	o, err := s.buildOrder(sessionID, result)
	if err != nil {
		// Claim released so a corrected retry is possible.
		_ = s.idempotency.Release(ctx, sessionID)
		return nil, err
	}

	if err := s.createWithRetry(ctx, o); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			if existing, ferr := s.orders.FindByPaymentReference(ctx, sessionID); ferr == nil {
				return confirmationFromOrder(existing), nil
			}
		}
		_ = s.idempotency.Release(ctx, sessionID)
		// Money has been taken and the fact could not be persisted. This is
		// the one failure that must be loud and alertable.
		s.logger.Error("ORDER PERSISTENCE FAILED AFTER PAYMENT",
			zap.String("session_id", sessionID),
			zap.String("amount_paid", result.AmountPaid.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("session_id", sessionID),
		zap.String("amount_paid", o.AmountPaidMoney().String()),
		zap.String("profit", o.ProfitMoney().String()))

	s.routeFulfillment(ctx, o)

	return confirmationFromOrder(o), nil
}

// buildOrder reconstructs the order context from session metadata
func (s *Service) buildOrder(sessionID string, result VerifyResult) (*order.Order, error) {
	dc := decodeMetadata(result.Metadata)
	if dc.AddrErr != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment metadata is missing shipping fields: "+dc.AddrErr.Error())
	}

	// Snapshot, not a listing: a zero cost is preserved (and flagged) rather
	// than rejected, so the financial fact of the payment is never lost.
	product := catalog.Product{
		SKU:         dc.SKU,
		Name:        dc.ProductName,
		Cost:        dc.Cost,
		ResalePrice: result.AmountPaid,
		SupplierURL: dc.SupplierURL,
		ImageURL:    dc.ImageURL,
	}

	customer := order.Customer{Name: dc.CustomerName, Email: result.BuyerEmail}

	o, err := order.NewOrder(sessionID, product, customer, dc.ShipTo, result.AmountPaid, dc.Cost)
	if err != nil {
		return nil, err
	}

	if dc.CostMissing {
		s.logger.Warn("Cost missing from payment metadata, flagging for manual review",
			zap.String("order_id", o.ID),
			zap.String("session_id", sessionID))
		if err := o.MarkManualReview(order.FulfillmentRecord{}); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// createWithRetry persists the order, retrying transient storage failures
// with backoff. ALREADY_EXISTS and validation failures are not retried.
func (s *Service) createWithRetry(ctx context.Context, o *order.Order) error {
	var lastErr error
	for attempt := range createRetries {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(createRetryBackoff << attempt):
			}
		}
		lastErr = s.orders.Create(ctx, o)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, shared.ErrStorageUnavailable) {
			return lastErr
		}
		s.logger.Warn("Order create failed, retrying",
			zap.String("order_id", o.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return lastErr
}

// routeFulfillment advances a freshly created order into the fulfillment
// pipeline. Failures here never roll back the order: it is the durable fact,
// and fulfillment is a best-effort follow-up a human can always finish.
func (s *Service) routeFulfillment(ctx context.Context, o *order.Order) {
	if o.Status == order.StatusManualReview {
		return
	}

	if err := o.MarkAwaitingFulfillment(); err != nil {
		s.logger.Error("Unexpected state advancing order to fulfillment",
			zap.String("order_id", o.ID),
			zap.Error(err))
		return
	}
	if err := s.orders.Update(ctx, o); err != nil {
		s.logger.Error("Failed to persist awaiting_fulfillment",
			zap.String("order_id", o.ID),
			zap.Error(err))
		return
	}
	if err := s.dispatcher.Enqueue(o); err != nil {
		s.logger.Warn("Fulfillment dispatch failed, order awaits retry",
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}

// RetryFulfillment re-queues a failed or human-parked order
func (s *Service) RetryFulfillment(ctx context.Context, orderID string) (*ConfirmationResult, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.RetryFulfillment(); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.dispatcher.Enqueue(o); err != nil {
		s.logger.Warn("Fulfillment dispatch failed on retry",
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
	return confirmationFromOrder(o), nil
}

func confirmationFromOrder(o *order.Order) *ConfirmationResult {
	return &ConfirmationResult{
		Status:     ConfirmationSuccess,
		OrderID:    o.ID,
		AmountPaid: o.AmountPaid.InexactFloat64(),
		Profit:     o.Profit.InexactFloat64(),
	}
}
