package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/pkg/pagination"
)

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	List(ctx context.Context, params *ProductFilterParams) ([]entity.Product, int64, error)
	Upsert(ctx context.Context, products []entity.Product) error

	// AtomicDecrementBatch decrements stock for each product and returns the
	// IDs whose stock was insufficient; no partial decrement is applied in
	// that case.
	AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error)
	AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	List(ctx context.Context) ([]entity.Category, error)
	Upsert(ctx context.Context, categories []entity.Category) error
}

// ProductFilterParams contains filtering parameters for product queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	CategoryID *uuid.UUID
}
