package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// PrinterHandler handles receipt printer HTTP requests
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the printer connection status
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved successfully", h.printerService.GetStatus())
}

// TestPrint prints a test receipt
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Test receipt printed successfully", receipt)
}

// PrintReceipt reprints the receipt for an order
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	copies, _ := strconv.Atoi(c.DefaultQuery("copies", "1"))
	if copies < 1 {
		copies = 1
	}

	receipt, err := h.printerService.PrintOrderReceipt(c.Request.Context(), id, copies)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt printed successfully", receipt)
}

// PrintKitchenTicket reprints the kitchen ticket for an order
func (h *PrinterHandler) PrintKitchenTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	ticket, err := h.printerService.PrintKitchenTicket(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Kitchen ticket printed successfully", ticket)
}

// OpenDrawer kicks the cash drawer open
func (h *PrinterHandler) OpenDrawer(c *gin.Context) {
	if err := h.printerService.OpenDrawer(); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Drawer opened", nil)
}
