package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// SettingsHandler handles billing settings HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get handles retrieving the location's billing settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings retrieved successfully", settings)
}

// Update handles editing the billing settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req struct {
		Industry                *enum.Industry `json:"industry"`
		PaymentTypes            []string       `json:"payment_types"`
		OrderTypes              []string       `json:"order_types"`
		CashManagement          *bool          `json:"cash_management"`
		ReceiptPrintCount       *int           `json:"receipt_print_count"`
		DiscountCoversModifiers *bool          `json:"discount_covers_modifiers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), &service.UpdateSettingsInput{
		Industry:                req.Industry,
		PaymentTypes:            req.PaymentTypes,
		OrderTypes:              req.OrderTypes,
		CashManagement:          req.CashManagement,
		ReceiptPrintCount:       req.ReceiptPrintCount,
		DiscountCoversModifiers: req.DiscountCoversModifiers,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings updated successfully", settings)
}
