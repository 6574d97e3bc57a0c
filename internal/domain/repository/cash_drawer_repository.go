package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/pkg/pagination"
)

// CashDrawerRepository defines the interface for cash drawer shift operations
type CashDrawerRepository interface {
	// OpenShift creates the open transaction, failing with a conflict if a
	// shift is already open on this device. The check and insert run in one
	// transaction.
	OpenShift(ctx context.Context, tx *entity.CashDrawerTransaction) error
	CloseShift(ctx context.Context, tx *entity.CashDrawerTransaction) error
	CurrentOpen(ctx context.Context) (*entity.CashDrawerTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CashDrawerTransaction, error)
	List(ctx context.Context, params *ShiftFilterParams) ([]entity.CashDrawerTransaction, int64, error)
	Upsert(ctx context.Context, txs []entity.CashDrawerTransaction) error
}

// ShiftFilterParams contains filtering parameters for shift queries
type ShiftFilterParams struct {
	Pagination *pagination.PaginationParams
	UserID     *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}
