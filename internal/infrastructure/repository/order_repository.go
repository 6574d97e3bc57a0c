package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	domainRepo "github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).First(&order, "order_no = ?", orderNo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).
		Preload("Items").
		Preload("Breakups").
		Preload("Customer").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == enum.OrderStatusInProcess {
		updates["accepted_at"] = time.Now()
	}
	return r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{}).Scopes(LocationScope(ctx))
	query = applyOrderFilters(query, params)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Preload("Items").
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Find(&orders).Error

	return orders, total, err
}

// ListWithCursor returns orders using cursor-based pagination
// Fetches limit+1 items to detect if there are more results
func (r *orderRepository) ListWithCursor(ctx context.Context, params *domainRepo.OrderCursorFilterParams) ([]entity.Order, error) {
	var orders []entity.Order

	params.Cursor.Validate()
	query := r.db.WithContext(ctx).Model(&entity.Order{}).Scopes(LocationScope(ctx))
	query = applyOrderFilters(query, &domainRepo.OrderFilterParams{
		Search:     params.Search,
		Status:     params.Status,
		OrderType:  params.OrderType,
		CustomerID: params.CustomerID,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
	})

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}

	if cursor != nil {
		if params.Cursor.Direction == pagination.CursorDirectionNext {
			query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		} else {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	err = query.Preload("Items").
		Limit(params.Cursor.Limit + 1).
		Order("created_at ASC, id ASC").
		Find(&orders).Error

	return orders, err
}

func applyOrderFilters(query *gorm.DB, params *domainRepo.OrderFilterParams) *gorm.DB {
	if params.Search != "" {
		query = query.Where("order_no LIKE ?", "%"+params.Search+"%")
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.OrderType != nil {
		query = query.Where("order_type = ?", *params.OrderType)
	}
	if params.CashierID != nil {
		query = query.Where("cashier_id = ?", *params.CashierID)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}
	return query
}

// Upsert writes a pulled page of orders, updating rows that already exist.
// Server rows win over local rows here; conflict policy for locally mutated
// orders is handled by the sync layer before this is called.
func (r *orderRepository) Upsert(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&orders).Error
}

// NextOrderNo allocates the next sequential local order number with the
// device prefix, e.g. "D3-000124". Runs under SQLite's single-writer
// connection so two carts can never draw the same number.
func (r *orderRepository) NextOrderNo(ctx context.Context, prefix string) (string, error) {
	var last string
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("order_no LIKE ?", prefix+"-%").
		Order("order_no DESC").
		Limit(1).
		Pluck("order_no", &last).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if last != "" {
		fmt.Sscanf(last, prefix+"-%06d", &seq)
	}
	return fmt.Sprintf("%s-%06d", prefix, seq+1), nil
}

// ReplaceItems swaps the order's line items for the given set in one
// transaction, so a recalculated cart is never half-written.
func (r *orderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []entity.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&entity.OrderItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].OrderID = orderID
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepository) AddBreakup(ctx context.Context, breakup *entity.PaymentBreakup) error {
	return r.db.WithContext(ctx).Create(breakup).Error
}

// SalesBetween sums completed-order totals in the window, and separately the
// cash portion net of change, for shift expected-amount bookkeeping.
func (r *orderRepository) SalesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var totalStr, cashStr string

	err := r.db.WithContext(ctx).Model(&entity.Order{}).Scopes(LocationScope(ctx)).
		Where("status = ? AND created_at BETWEEN ? AND ?", enum.OrderStatusCompleted, from, to).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalStr).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	err = r.db.WithContext(ctx).Model(&entity.PaymentBreakup{}).
		Joins("JOIN orders ON orders.id = payment_breakups.order_id").
		Where("orders.status = ? AND payment_breakups.provider = ?", enum.OrderStatusCompleted, enum.ProviderCash).
		Where("payment_breakups.tendered_at BETWEEN ? AND ?", from, to).
		Select("COALESCE(SUM(payment_breakups.total - payment_breakups.change), 0)").
		Scan(&cashStr).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return total, cash, nil
}
