package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropflow/backend/internal/domain/order"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new order. The unique index on payment_reference is the
// last line of defense against duplicate order creation for one payment.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if !o.Status.IsValid() {
		return shared.NewDomainError("VALIDATION_FAILED", fmt.Sprintf("Status %q is not persistable", o.Status))
	}
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return wrapStorageError(err)
	}
	return nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapStorageError(err)
	}
	return &o, nil
}

// FindByPaymentReference finds the order created for a payment reference
func (r *GormOrderRepository) FindByPaymentReference(ctx context.Context, ref string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "payment_reference = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapStorageError(err)
	}
	return &o, nil
}

// FindAll returns orders newest-first, optionally filtered by status
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{}).Order("created_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []order.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, wrapStorageError(err)
	}
	return orders, nil
}

// Update persists status/record mutations with optimistic locking. The
// version check makes concurrent read-modify-write cycles fail loudly
// instead of silently losing one side's update.
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	currentVersion := o.Version
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, currentVersion).
		Updates(map[string]any{
			"status":     o.Status,
			"record":     o.Record,
			"updated_at": o.UpdatedAt,
			"version":    currentVersion + 1,
		})
	if result.Error != nil {
		return wrapStorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the id is unknown or another writer won the race.
		var count int64
		if err := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return wrapStorageError(err)
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	o.Version = currentVersion + 1
	return nil
}

// Totals computes revenue and profit aggregates over the full order set.
// Always a fresh SUM at query time, so the figures cannot drift.
func (r *GormOrderRepository) Totals(ctx context.Context) (order.Totals, error) {
	var row struct {
		Count        int64
		TotalRevenue decimal.Decimal
		TotalProfit  decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS total_revenue, COALESCE(SUM(profit), 0) AS total_profit").
		Scan(&row).Error
	if err != nil {
		return order.Totals{}, wrapStorageError(err)
	}
	return order.Totals{
		Count:        row.Count,
		TotalRevenue: row.TotalRevenue,
		TotalProfit:  row.TotalProfit,
	}, nil
}

// DeleteAll removes every order. Administrative bulk-clear only.
func (r *GormOrderRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&order.Order{}).Error; err != nil {
		return wrapStorageError(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// wrapStorageError maps infrastructure failures onto the storage-unavailable
// domain error so callers can recognize them. Real money has changed hands by
// the time these fire, so they must surface loudly.
func wrapStorageError(err error) error {
	return fmt.Errorf("%w: %w", shared.ErrStorageUnavailable, err)
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
