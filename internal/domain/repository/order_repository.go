package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/pkg/pagination"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*entity.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	ListWithCursor(ctx context.Context, params *OrderCursorFilterParams) ([]entity.Order, error)
	Upsert(ctx context.Context, orders []entity.Order) error
	NextOrderNo(ctx context.Context, prefix string) (string, error)

	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []entity.OrderItem) error
	AddBreakup(ctx context.Context, breakup *entity.PaymentBreakup) error

	// SalesBetween sums completed-order totals and the cash-tendered portion
	// in the window, used for shift expected-amount bookkeeping.
	SalesBetween(ctx context.Context, from, to time.Time) (total, cash decimal.Decimal, err error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	OrderType  *enum.OrderType
	CashierID  *uuid.UUID
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// OrderCursorFilterParams contains cursor-based filtering for order queries
type OrderCursorFilterParams struct {
	Cursor     *pagination.CursorParams
	Search     string
	Status     *enum.OrderStatus
	OrderType  *enum.OrderType
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}
