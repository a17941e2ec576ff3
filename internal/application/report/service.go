package report

import (
	"context"

	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// Summary is the profit snapshot over every order on record. Figures are
// computed fresh from storage on each call, never cached.
type Summary struct {
	OrderCount        int64   `json:"order_count"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalProfit       float64 `json:"total_profit"`
	AverageOrderValue float64 `json:"average_order_value"`
	ProfitMarginPct   float64 `json:"profit_margin_pct"`
}

// ListRequest narrows an order listing
type ListRequest struct {
	Status string
	Limit  int
	Offset int
}

// Service answers the back-office questions: what sold, what it earned,
// and which orders need a human.
type Service struct {
	orders order.Repository
	logger *zap.Logger
}

// NewService creates a new report service
func NewService(orders order.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, logger: logger}
}

// Summary computes the aggregate figures. An empty order book yields all
// zeros rather than a division error.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	totals, err := s.orders.Totals(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		OrderCount:   totals.Count,
		TotalRevenue: totals.TotalRevenue.InexactFloat64(),
		TotalProfit:  totals.TotalProfit.InexactFloat64(),
	}
	if totals.Count > 0 {
		summary.AverageOrderValue = totals.TotalRevenue.
			Div(decimal.NewFromInt(totals.Count)).
			Round(2).InexactFloat64()
	}
	if totals.TotalRevenue.IsPositive() {
		summary.ProfitMarginPct = totals.TotalProfit.
			Div(totals.TotalRevenue).
			Mul(decimal.NewFromInt(100)).
			Round(2).InexactFloat64()
	}
	return summary, nil
}

// ListOrders returns orders newest-first, optionally filtered by status
func (s *Service) ListOrders(ctx context.Context, req ListRequest) ([]order.Order, error) {
	filter := order.Filter{Limit: req.Limit, Offset: req.Offset}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if req.Status != "" {
		status := order.Status(req.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Unknown order status: "+req.Status)
		}
		filter.Status = &status
	}
	return s.orders.FindAll(ctx, filter)
}

// GetOrder returns a single order by id
func (s *Service) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	if id == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Order id is required")
	}
	return s.orders.FindByID(ctx, id)
}

// ClearOrders wipes the order book. The audit log entry is the only trace
// left behind, so the caller gets the pre-wipe count back.
func (s *Service) ClearOrders(ctx context.Context) (int64, error) {
	totals, err := s.orders.Totals(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.orders.DeleteAll(ctx); err != nil {
		return 0, err
	}
	s.logger.Warn("Order book cleared",
		zap.Int64("orders_removed", totals.Count),
		zap.String("revenue_removed", totals.TotalRevenue.StringFixed(2)))
	return totals.Count, nil
}
