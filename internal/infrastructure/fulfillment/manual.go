package fulfillment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/domain/order"
)

// ManualStrategy produces a purchase instruction document instead of buying
// anything. It cannot fail, which makes it the safe default: every paid
// order ends up either fulfilled by a human or parked where one will see it.
type ManualStrategy struct {
	logger *zap.Logger
}

// NewManualStrategy creates the manual executor
func NewManualStrategy(logger *zap.Logger) *ManualStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManualStrategy{logger: logger}
}

// Name identifies the strategy
func (s *ManualStrategy) Name() string { return "manual" }

// AttemptFulfillment writes the step-by-step purchase document for an
// operator. The returned record parks the order for human review.
func (s *ManualStrategy) AttemptFulfillment(_ context.Context, o *order.Order) (order.FulfillmentRecord, error) {
	instruction := order.ManualInstruction{
		PurchaseURL: o.Product.SupplierURL,
		ShipTo:      o.ShippingAddress,
		CostToSpend: o.CostMoney(),
		Steps: []string{
			"1. Open the purchase URL below",
			"2. Log into the supplier account",
			"3. Add the product to the cart",
			fmt.Sprintf("4. At checkout, ship to: %s, %s", o.CustomerName, o.ShippingAddress.String()),
			fmt.Sprintf("5. Complete the purchase, spending no more than %s", o.CostMoney().String()),
			"6. Mark the order as fulfilled in the back office",
		},
	}

	s.logger.Info("Manual purchase instruction created",
		zap.String("order_id", o.ID),
		zap.String("purchase_url", instruction.PurchaseURL),
		zap.String("cost_to_spend", instruction.CostToSpend.String()))

	return order.NewManualRecord(instruction), nil
}
