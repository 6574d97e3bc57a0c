package report

import (
	"bytes"
	"fmt"

	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Z Report"

// BuildZReport renders an end-of-shift report workbook: the drawer summary
// on top, then one row per completed order in the shift window.
func BuildZReport(shift *entity.CashDrawerTransaction, orders []entity.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	set := func(cell string, value interface{}) {
		_ = f.SetCellValue(sheetName, cell, value)
	}

	set("A1", "Shift Z Report")
	_ = f.SetCellStyle(sheetName, "A1", "A1", bold)

	set("A3", "Shift ID")
	set("B3", shift.ID.String())
	set("A4", "Opened")
	set("B4", shift.StartedAt.Format("2006-01-02 15:04"))
	if shift.EndedAt != nil {
		set("A5", "Closed")
		set("B5", shift.EndedAt.Format("2006-01-02 15:04"))
	}
	set("A6", "Opening float")
	set("B6", shift.OpeningActual.InexactFloat64())
	if shift.ClosingExpected != nil {
		set("A7", "Expected closing")
		set("B7", shift.ClosingExpected.InexactFloat64())
	}
	if shift.ClosingActual != nil {
		set("A8", "Counted closing")
		set("B8", shift.ClosingActual.InexactFloat64())
	}
	if shift.Difference != nil {
		set("A9", "Difference")
		set("B9", shift.Difference.InexactFloat64())
	}
	set("A10", "Total sales")
	set("B10", shift.TotalSales.InexactFloat64())
	set("A11", "Orders")
	set("B11", len(orders))

	headerRow := 13
	headers := []string{"Order No", "Type", "Created", "Subtotal", "VAT", "Discount", "Total", "Payment"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	_ = f.SetCellStyle(sheetName, first, last, bold)

	for i, o := range orders {
		row := headerRow + 1 + i
		values := []interface{}{
			o.OrderNo,
			o.OrderType.String(),
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.SubTotal.InexactFloat64(),
			o.VatAmount.InexactFloat64(),
			o.DiscountAmount.InexactFloat64(),
			o.Total.InexactFloat64(),
			o.PaymentStatus.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 22)
	_ = f.SetColWidth(sheetName, "D", "H", 12)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write z report: %w", err)
	}
	return buf.Bytes(), nil
}
