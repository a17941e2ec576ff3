package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/fulfillment"
	"github.com/dropflow/backend/internal/domain/order"
)

const (
	supplierSignInURL = "https://www.amazon.com/ap/signin?openid.mode=checkid_setup&openid.ns=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0&openid.identity=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0%2Fidentifier_select&openid.claimed_id=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0%2Fidentifier_select&openid.return_to=https%3A%2F%2Fwww.amazon.com%2F"
	supplierCartURL   = "https://www.amazon.com/gp/cart/view.html"
)

// orderNumberPattern matches supplier order ids on the confirmation page
var orderNumberPattern = regexp.MustCompile(`\d{3}-\d{7}-\d{7}`)

// BotConfig holds credentials and browser settings for the automated buyer
type BotConfig struct {
	SupplierEmail    string
	SupplierPassword string
	// RemoteURL points at a remote Chrome instance; empty launches a local one
	RemoteURL string
	Headless  bool
	NoSandbox bool
}

// Validate validates the bot configuration
func (c *BotConfig) Validate() error {
	if c.SupplierEmail == "" || c.SupplierPassword == "" {
		return fmt.Errorf("bot: supplier credentials are required")
	}
	return nil
}

// BotStrategy executes supplier purchases with a real browser session. It
// spends real money, so it is never the default executor and every attempt
// leaves screenshot evidence behind, success or failure.
type BotStrategy struct {
	config      *BotConfig
	evidence    EvidenceStore
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewBotStrategy creates the automated executor
func NewBotStrategy(config *BotConfig, evidence EvidenceStore, logger *zap.Logger) (*BotStrategy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &BotStrategy{
		config:   config,
		evidence: evidence,
		logger:   logger,
	}
	s.initAllocator()
	return s, nil
}

// initAllocator initializes the Chrome allocator
func (s *BotStrategy) initAllocator() {
	if s.config.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), s.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if s.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Close tears down the browser allocator
func (s *BotStrategy) Close() {
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Name identifies the strategy
func (s *BotStrategy) Name() string { return "bot" }

// AttemptFulfillment drives a browser through login, product lookup, cart,
// checkout and order placement. The ctx deadline bounds the whole attempt;
// when it expires the browser session is torn down, not left mid-checkout.
func (s *BotStrategy) AttemptFulfillment(ctx context.Context, o *order.Order) (order.FulfillmentRecord, error) {
	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	s.logger.Info("Bot fulfillment attempt started",
		zap.String("order_id", o.ID),
		zap.String("supplier_url", o.Product.SupplierURL))

	externalID, err := s.purchase(ctx, browserCtx, o)
	if err != nil {
		kind := fulfillment.KindOf(err)
		evidencePath := s.captureEvidence(browserCtx, o.ID, "failure")

		s.logger.Error("Bot fulfillment attempt failed",
			zap.String("order_id", o.ID),
			zap.String("error_kind", string(kind)),
			zap.Error(err))

		return order.NewBotRecord(order.BotResult{
			Success:      false,
			ErrorKind:    string(kind),
			Error:        err.Error(),
			EvidencePath: evidencePath,
		}), err
	}

	evidencePath := s.captureEvidence(browserCtx, o.ID, "confirmation")

	s.logger.Info("Bot fulfillment succeeded",
		zap.String("order_id", o.ID),
		zap.String("external_order_id", externalID))

	return order.NewBotRecord(order.BotResult{
		Success:         true,
		ExternalOrderID: externalID,
		EvidencePath:    evidencePath,
	}), nil
}

// purchase runs the supplier checkout flow and returns the supplier order id
func (s *BotStrategy) purchase(ctx context.Context, browserCtx context.Context, o *order.Order) (string, error) {
	if err := s.login(ctx, browserCtx); err != nil {
		return "", err
	}
	if err := s.addToCart(ctx, browserCtx, o.Product.SupplierURL); err != nil {
		return "", err
	}
	if err := s.checkout(ctx, browserCtx, o); err != nil {
		return "", err
	}
	return s.placeOrder(ctx, browserCtx)
}

// login signs into the supplier account
func (s *BotStrategy) login(ctx context.Context, browserCtx context.Context) error {
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(supplierSignInURL),
		chromedp.WaitVisible(`#ap_email`, chromedp.ByID),
		chromedp.SendKeys(`#ap_email`, s.config.SupplierEmail, chromedp.ByID),
		chromedp.Click(`#continue`, chromedp.ByID),
		chromedp.WaitVisible(`#ap_password`, chromedp.ByID),
		chromedp.SendKeys(`#ap_password`, s.config.SupplierPassword, chromedp.ByID),
		chromedp.Click(`#signInSubmit`, chromedp.ByID),
		chromedp.WaitVisible(`#nav-link-accountList`, chromedp.ByID),
	)
	if err != nil {
		return s.stepError(ctx, fulfillment.ErrorKindLoginFailed, "supplier login did not complete", err)
	}
	return nil
}

// addToCart opens the product page and adds it to the cart
func (s *BotStrategy) addToCart(ctx context.Context, browserCtx context.Context, productURL string) error {
	var pageTitle string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(productURL),
		chromedp.Title(&pageTitle),
	)
	if err != nil {
		return s.stepError(ctx, fulfillment.ErrorKindProductNotFound, "product page failed to load", err)
	}
	if strings.Contains(pageTitle, "Page Not Found") {
		return fulfillment.NewExecutionError(fulfillment.ErrorKindProductNotFound,
			fmt.Sprintf("product listing is gone: %s", productURL), nil)
	}

	err = chromedp.Run(browserCtx,
		chromedp.WaitVisible(`#add-to-cart-button`, chromedp.ByID),
		chromedp.Click(`#add-to-cart-button`, chromedp.ByID),
	)
	if err != nil {
		return s.stepError(ctx, fulfillment.ErrorKindProductNotFound, "add-to-cart button not found", err)
	}
	return nil
}

// checkout proceeds from the cart to the order review page, entering the
// buyer's shipping address.
func (s *BotStrategy) checkout(ctx context.Context, browserCtx context.Context, o *order.Order) error {
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(supplierCartURL),
		chromedp.WaitVisible(`input[name="proceedToRetailCheckout"]`, chromedp.ByQuery),
		chromedp.Click(`input[name="proceedToRetailCheckout"]`, chromedp.ByQuery),
	)
	if err != nil {
		return s.stepError(ctx, fulfillment.ErrorKindCheckoutStep, "proceed-to-checkout not reachable", err)
	}

	addr := o.ShippingAddress
	err = chromedp.Run(browserCtx,
		chromedp.Click(`#add-new-address-popover-link`, chromedp.ByID),
		chromedp.WaitVisible(`#address-ui-widgets-enterAddressFullName`, chromedp.ByID),
		chromedp.SendKeys(`#address-ui-widgets-enterAddressFullName`, o.CustomerName, chromedp.ByID),
		chromedp.SendKeys(`#address-ui-widgets-enterAddressLine1`, addr.Street(), chromedp.ByID),
		chromedp.SendKeys(`#address-ui-widgets-enterAddressCity`, addr.City(), chromedp.ByID),
		chromedp.SendKeys(`#address-ui-widgets-enterAddressStateOrRegion`, addr.State(), chromedp.ByID),
		chromedp.SendKeys(`#address-ui-widgets-enterAddressPostalCode`, addr.Zip(), chromedp.ByID),
		chromedp.Click(`input[aria-labelledby="address-ui-widgets-form-submit-button"]`, chromedp.ByQuery),
	)
	if err != nil {
		return s.stepError(ctx, fulfillment.ErrorKindCheckoutStep, "shipping address entry failed", err)
	}
	return nil
}

// placeOrder submits the order and extracts the supplier order id from the
// confirmation page.
func (s *BotStrategy) placeOrder(ctx context.Context, browserCtx context.Context) (string, error) {
	err := chromedp.Run(browserCtx,
		chromedp.WaitVisible(`input[name="placeYourOrder1"]`, chromedp.ByQuery),
		chromedp.Click(`input[name="placeYourOrder1"]`, chromedp.ByQuery),
	)
	if err != nil {
		return "", s.stepError(ctx, fulfillment.ErrorKindPaymentDeclined, "place-order submission failed", err)
	}

	var confirmation string
	err = chromedp.Run(browserCtx,
		chromedp.Text(`body`, &confirmation, chromedp.ByQuery),
	)
	if err != nil {
		return "", s.stepError(ctx, fulfillment.ErrorKindCheckoutStep, "confirmation page did not load", err)
	}

	if id := orderNumberPattern.FindString(confirmation); id != "" {
		return id, nil
	}
	// The order may still have gone through; flag it for verification
	// rather than inventing an id.
	return "UNCONFIRMED", nil
}

// stepError wraps a chromedp failure with its step's error kind, preferring
// the timeout kind when the attempt deadline is what actually fired.
func (s *BotStrategy) stepError(ctx context.Context, kind fulfillment.ErrorKind, message string, cause error) error {
	if ctx.Err() != nil || errors.Is(cause, context.DeadlineExceeded) {
		return fulfillment.NewExecutionError(fulfillment.ErrorKindTimeout, message, cause)
	}
	return fulfillment.NewExecutionError(kind, message, cause)
}

// captureEvidence screenshots the current page. Failures are logged, not
// returned; missing evidence never blocks the order outcome.
func (s *BotStrategy) captureEvidence(browserCtx context.Context, orderID, label string) string {
	if s.evidence == nil {
		return ""
	}

	var shot []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		if err != nil {
			return err
		}
		shot = data
		return nil
	})
	if err := chromedp.Run(browserCtx, capture); err != nil {
		s.logger.Warn("Evidence screenshot failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return ""
	}

	path, err := s.evidence.Save(context.Background(), orderID, label, shot)
	if err != nil {
		s.logger.Warn("Evidence upload failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return ""
	}
	return path
}

var _ fulfillment.Executor = (*BotStrategy)(nil)
