package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/pagination"
)

// CatalogService serves the locally cached menu to the register. The catalog
// is read-only on the device; changes arrive through sync pulls.
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// ListCategories returns all categories in display order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.categoryRepo.List(ctx)
}

// ListProducts retrieves products with pagination, search and category filter
func (s *CatalogService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params == nil {
		params = &repository.ProductFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return &pagination.PaginatedResult[entity.Product]{Items: products, Pagination: pag}, nil
}

// GetProduct retrieves a single product with its category preloaded.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}
