package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/application/checkout"
	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

// Config holds Stripe integration settings
type Config struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string
}

// Validate validates the Stripe configuration
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") {
		return fmt.Errorf("stripe: secret key must start with sk_")
	}
	return nil
}

// StripeAdapter implements the payment gateway against Stripe hosted
// checkout sessions. The session id doubles as the payment reference, and
// session metadata carries the order context through Stripe and back.
type StripeAdapter struct {
	config *Config
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *Config, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stripe.Key = config.SecretKey

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateSession opens a hosted checkout session for a single line item
func (a *StripeAdapter) CreateSession(ctx context.Context, req checkout.CreateSessionRequest) (checkout.Session, error) {
	a.logger.Debug("Creating Stripe checkout session",
		zap.String("product", req.ProductName),
		zap.String("amount", req.Amount.String()))

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.ProductName),
	}
	if req.ImageURL != "" {
		productData.Images = stripe.StringSlice([]string{req.ImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(strings.ToLower(string(req.Amount.Currency()))),
					UnitAmount:  stripe.Int64(req.Amount.Cents()),
					ProductData: productData,
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	if req.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(req.BuyerEmail)
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session",
			zap.String("product", req.ProductName),
			zap.Error(err))
		return checkout.Session{}, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created Stripe checkout session",
		zap.String("session_id", sess.ID))

	return checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// Verify retrieves a session and reports its payment status. Metadata set at
// creation time is echoed back verbatim by Stripe.
func (a *StripeAdapter) Verify(ctx context.Context, sessionID string) (checkout.VerifyResult, error) {
	a.logger.Debug("Verifying Stripe checkout session",
		zap.String("session_id", sessionID))

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		a.logger.Error("Failed to retrieve Stripe checkout session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return checkout.VerifyResult{}, fmt.Errorf("stripe: failed to retrieve checkout session: %w", err)
	}

	result := checkout.VerifyResult{
		Status:     mapPaymentStatus(sess.PaymentStatus),
		AmountPaid: valueobject.NewMoneyFromCents(sess.AmountTotal, valueobject.USD),
		BuyerEmail: buyerEmail(sess),
		Metadata:   sess.Metadata,
	}
	return result, nil
}

func mapPaymentStatus(s stripe.CheckoutSessionPaymentStatus) checkout.PaymentStatus {
	if s == stripe.CheckoutSessionPaymentStatusPaid {
		return checkout.PaymentStatusPaid
	}
	return checkout.PaymentStatusUnpaid
}

// buyerEmail prefers the email Stripe collected at payment time over the one
// supplied at session creation.
func buyerEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	return sess.CustomerEmail
}
