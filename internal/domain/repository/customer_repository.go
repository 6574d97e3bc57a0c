package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *CustomerFilterParams) ([]entity.Customer, int64, error)
	Upsert(ctx context.Context, customers []entity.Customer) error

	// AdjustBalances applies wallet/credit deltas inside the supplied
	// transaction context so the caller can tie the mutation to the order
	// completion step.
	AdjustBalances(ctx context.Context, id uuid.UUID, walletDelta, creditDelta decimal.Decimal) error
}

// CustomerFilterParams contains filtering parameters for customer queries
type CustomerFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
}
