package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/application/billing"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
	"github.com/tillpoint/pos/pkg/pagination"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type adjustmentRequest struct {
	DiscountCode    string              `json:"discount_code"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	Promotions      []billing.Promotion `json:"promotions"`
	Charges         []billing.Charge    `json:"charges"`
}

func (r adjustmentRequest) toInput() service.AdjustmentInput {
	return service.AdjustmentInput{
		DiscountCode:    r.DiscountCode,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		Promotions:      r.Promotions,
		Charges:         r.Charges,
	}
}

type orderItemRequest struct {
	ProductID uuid.UUID         `json:"product_id" binding:"required"`
	VariantID *uuid.UUID        `json:"variant_id"`
	Quantity  int               `json:"quantity" binding:"required"`
	Modifiers []entity.Modifier `json:"modifiers"`
}

func toItemInputs(reqs []orderItemRequest) []service.OrderItemInput {
	items := make([]service.OrderItemInput, len(reqs))
	for i, r := range reqs {
		items[i] = service.OrderItemInput{
			ProductID: r.ProductID,
			VariantID: r.VariantID,
			Quantity:  r.Quantity,
			Modifiers: r.Modifiers,
		}
	}
	return items
}

// Create handles creating an order from the cart
func (h *OrderHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		OrderType  enum.OrderType     `json:"order_type"`
		CustomerID *uuid.UUID         `json:"customer_id"`
		Items      []orderItemRequest `json:"items" binding:"required"`
		Adjustment adjustmentRequest  `json:"adjustment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		CashierID:  *userID,
		OrderType:  req.OrderType,
		CustomerID: req.CustomerID,
		Items:      toItemInputs(req.Items),
		Adjustment: req.Adjustment.toInput(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// Preview prices a cart without creating an order
func (h *OrderHandler) Preview(c *gin.Context) {
	var req struct {
		Items      []orderItemRequest `json:"items" binding:"required"`
		Adjustment adjustmentRequest  `json:"adjustment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	preview, err := h.orderService.PreviewCart(c.Request.Context(), toItemInputs(req.Items), req.Adjustment.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart priced successfully", preview)
}

// Get handles getting a single order
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// List handles listing orders (page-based or cursor-based)
func (h *OrderHandler) List(c *gin.Context) {
	if c.Query("cursor") != "" || c.Query("limit") != "" {
		h.listWithCursor(c)
		return
	}

	params := &repository.OrderFilterParams{
		Pagination: pageParams(c),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	applyOrderFilters(c, &params.Status, &params.OrderType, &params.CustomerID, &params.StartDate, &params.EndDate)

	result, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

func (h *OrderHandler) listWithCursor(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))

	params := &repository.OrderCursorFilterParams{
		Cursor: &pagination.CursorParams{
			Cursor:    c.Query("cursor"),
			Direction: pagination.CursorDirection(c.DefaultQuery("direction", "next")),
			Limit:     limit,
		},
		Search: c.Query("search"),
	}
	applyOrderFilters(c, &params.Status, &params.OrderType, &params.CustomerID, &params.StartDate, &params.EndDate)

	result, err := h.orderService.ListOrdersWithCursor(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders retrieved successfully", result)
}

func applyOrderFilters(
	c *gin.Context,
	status **enum.OrderStatus,
	orderType **enum.OrderType,
	customerID **uuid.UUID,
	startDate, endDate **time.Time,
) {
	if s := c.Query("status"); s != "" {
		var parsed enum.OrderStatus
		if err := parsed.UnmarshalJSON([]byte(strconv.Quote(s))); err == nil {
			*status = &parsed
		}
	}
	if t := c.Query("order_type"); t != "" {
		var parsed enum.OrderType
		if err := parsed.UnmarshalJSON([]byte(strconv.Quote(t))); err == nil {
			*orderType = &parsed
		}
	}
	if idStr := c.Query("customer_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			*customerID = &id
		}
	}
	if ds := c.Query("start_date"); ds != "" {
		if d, err := time.Parse("2006-01-02", ds); err == nil {
			*startDate = &d
		}
	}
	if ds := c.Query("end_date"); ds != "" {
		if d, err := time.Parse("2006-01-02", ds); err == nil {
			*endDate = &d
		}
	}
}

// UpdateItems replaces the order's cart lines
func (h *OrderHandler) UpdateItems(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req struct {
		Items      []orderItemRequest `json:"items" binding:"required"`
		Adjustment adjustmentRequest  `json:"adjustment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateItems(c.Request.Context(), id, toItemInputs(req.Items), req.Adjustment.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order updated successfully", order)
}

// Transition moves an order through its lifecycle
func (h *OrderHandler) Transition(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req struct {
		Status          enum.OrderStatus `json:"status"`
		ConfirmTakeover bool             `json:"confirm_takeover"`
		ConfirmCancel   bool             `json:"confirm_cancel"`
		ReceiptEmail    string           `json:"receipt_email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), id, &service.TransitionInput{
		To:              req.Status,
		CashierID:       *userID,
		ConfirmTakeover: req.ConfirmTakeover,
		ConfirmCancel:   req.ConfirmCancel,
		ReceiptEmail:    req.ReceiptEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order status updated successfully", order)
}

// Pay records one tender against an order
func (h *OrderHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req struct {
		Provider enum.PaymentProvider `json:"provider" binding:"required"`
		Tendered decimal.Decimal      `json:"tendered" binding:"required"`
		Change   decimal.Decimal      `json:"change"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CollectPayment(c.Request.Context(), id, &service.PaymentInput{
		Provider: req.Provider,
		Tendered: req.Tendered,
		Change:   req.Change,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment recorded successfully", order)
}

// AssignDriver attaches a delivery driver to an order
func (h *OrderHandler) AssignDriver(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req struct {
		DriverID uuid.UUID `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.AssignDriver(c.Request.Context(), id, req.DriverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Driver assigned successfully", order)
}
