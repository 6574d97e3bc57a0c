package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// ShiftHandler handles cash drawer shift HTTP requests
type ShiftHandler struct {
	shiftService *service.ShiftService
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// Open handles starting a shift
func (h *ShiftHandler) Open(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		OpeningActual decimal.Decimal `json:"opening_actual"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	shift, err := h.shiftService.OpenShift(c.Request.Context(), &service.OpenShiftInput{
		UserID:        *userID,
		OpeningActual: req.OpeningActual,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Shift opened successfully", shift)
}

// Close handles ending the open shift
func (h *ShiftHandler) Close(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		ClosingActual decimal.Decimal `json:"closing_actual"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	shift, err := h.shiftService.CloseShift(c.Request.Context(), &service.CloseShiftInput{
		UserID:        *userID,
		ClosingActual: req.ClosingActual,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shift closed successfully", shift)
}

// Current returns the open shift, if any
func (h *ShiftHandler) Current(c *gin.Context) {
	shift, err := h.shiftService.CurrentShift(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Current shift retrieved successfully", shift)
}

// List handles listing past shifts
func (h *ShiftHandler) List(c *gin.Context) {
	params := &repository.ShiftFilterParams{
		Pagination: pageParams(c),
	}
	if idStr := c.Query("user_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			params.UserID = &id
		}
	}
	if ds := c.Query("start_date"); ds != "" {
		if d, err := time.Parse("2006-01-02", ds); err == nil {
			params.StartDate = &d
		}
	}
	if ds := c.Query("end_date"); ds != "" {
		if d, err := time.Parse("2006-01-02", ds); err == nil {
			params.EndDate = &d
		}
	}

	result, err := h.shiftService.ListShifts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Shifts retrieved successfully", result)
}

// ZReport streams the end-of-shift report workbook
func (h *ShiftHandler) ZReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid shift ID")
		return
	}

	data, err := h.shiftService.ZReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("z-report-%s.xlsx", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
