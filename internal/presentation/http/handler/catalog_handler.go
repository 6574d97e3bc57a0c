package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// CatalogHandler serves the cached menu to the register
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories handles listing categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved successfully", categories)
}

// ListProducts handles listing products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := &repository.ProductFilterParams{
		Pagination: pageParams(c),
		Search:     c.Query("search"),
	}
	if idStr := c.Query("category_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			params.CategoryID = &id
		}
	}

	result, err := h.catalogService.ListProducts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// GetProduct handles getting a single product
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}
