package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/printer"
)

// PrinterService handles receipt and kitchen ticket formatting and thermal
// printing.
type PrinterService struct {
	printer     printer.Printer
	orderRepo   repository.OrderRepository
	userRepo    repository.DeviceUserRepository
	printerType string
	storeName   string
	width       int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	orderRepo repository.OrderRepository,
	userRepo repository.DeviceUserRepository,
	printerType, storeName string,
	width int,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		printerType: printerType,
		storeName:   storeName,
		width:       width,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "null" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// TestPrint sends a test page to the printer.
// Returns the receipt data so the handler can return it as JSON when no
// printer is attached.
func (s *PrinterService) TestPrint() (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header: entity.ReceiptHeader{
			StoreName: "PRINTER TEST",
		},
		OrderNo: "TEST-001",
		Date:    "Test Date",
		Cashier: "System",
		Items: []entity.ReceiptItem{
			{Name: "Test Item 1", Quantity: 1, UnitPrice: 10.00, Total: 10.00},
			{Name: "Test Item 2", Quantity: 2, UnitPrice: 5.00, Total: 10.00},
		},
		SubTotal: 20.00,
		Total:    20.00,
		Paid:     20.00,
	}

	data := s.FormatReceipt(receipt)
	if err := s.printer.Print(data); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// BuildReceipt composes the printable receipt from a stored order.
func (s *PrinterService) BuildReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	receipt := &entity.Receipt{
		Header:    entity.ReceiptHeader{StoreName: s.storeName},
		OrderNo:   order.OrderNo,
		Date:      order.CreatedAt.Format("2006-01-02 15:04"),
		OrderType: order.OrderType.String(),
		SubTotal:  order.SubTotal.InexactFloat64(),
		VAT:       order.VatAmount.InexactFloat64(),
		Discount:  order.DiscountAmount.InexactFloat64(),
		Total:     order.Total.InexactFloat64(),
	}

	if order.Customer != nil {
		receipt.Customer = order.Customer.Name
	}
	if order.CashierID != nil {
		if cashier, err := s.userRepo.GetByID(ctx, *order.CashierID); err == nil && cashier != nil {
			receipt.Cashier = cashier.Name
		}
	}

	for _, b := range order.Breakups {
		receipt.Paid += b.Total.Sub(b.Change).InexactFloat64()
		receipt.Change += b.Change.InexactFloat64()
		receipt.PaymentType = string(b.Provider)
	}

	for _, it := range order.Items {
		item := entity.ReceiptItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Total:     it.Total.InexactFloat64(),
		}
		var mods []entity.Modifier
		if len(it.Modifiers) > 0 {
			if err := json.Unmarshal(it.Modifiers, &mods); err == nil {
				for _, m := range mods {
					item.Modifiers = append(item.Modifiers,
						fmt.Sprintf("%s %s", m.Name, m.Price.StringFixed(2)))
				}
			}
		}
		receipt.Items = append(receipt.Items, item)
	}

	return receipt, nil
}

// PrintOrderReceipt builds and prints the receipt, repeating for the copy
// count from the billing settings.
func (s *PrinterService) PrintOrderReceipt(ctx context.Context, orderID uuid.UUID, copies int) (*entity.Receipt, error) {
	receipt, err := s.BuildReceipt(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if copies < 1 {
		copies = 1
	}
	data := s.FormatReceipt(receipt)
	for i := 0; i < copies; i++ {
		if err := s.printer.Print(data); err != nil {
			log.Printf("Printer error (order %s): %v", orderID, err)
			return receipt, fmt.Errorf("failed to print receipt: %w", err)
		}
	}
	return receipt, nil
}

// PrintKitchenTicket prints the kitchen order ticket for an accepted order.
func (s *PrinterService) PrintKitchenTicket(ctx context.Context, orderID uuid.UUID) (*entity.KitchenTicket, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	ticket := &entity.KitchenTicket{
		OrderNo:   order.OrderNo,
		OrderType: order.OrderType.String(),
		Date:      order.CreatedAt.Format("15:04"),
	}
	for _, it := range order.Items {
		item := entity.ReceiptItem{Name: it.Name, Quantity: it.Quantity}
		var mods []entity.Modifier
		if len(it.Modifiers) > 0 {
			if err := json.Unmarshal(it.Modifiers, &mods); err == nil {
				for _, m := range mods {
					item.Modifiers = append(item.Modifiers, m.Name)
				}
			}
		}
		ticket.Items = append(ticket.Items, item)
	}

	if err := s.printer.Print(s.FormatKitchenTicket(ticket)); err != nil {
		log.Printf("Printer error (KOT %s): %v", orderID, err)
		return ticket, fmt.Errorf("failed to print kitchen ticket: %w", err)
	}
	return ticket, nil
}

// OpenDrawer fires the drawer kick pulse without printing anything.
func (s *PrinterService) OpenDrawer() error {
	doc := printer.NewDocument(s.width).OpenDrawer()
	return s.printer.Print(doc.Bytes())
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func (s *PrinterService) FormatReceipt(r *entity.Receipt) []byte {
	doc := printer.NewDocument(s.width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("Tax ID: %s", r.Header.TaxID)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Order:", r.OrderNo).
		KeyValue("Date:", r.Date)

	if r.OrderType != "" {
		doc.KeyValue("Type:", r.OrderType)
	}
	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}
	if r.PaymentType != "" {
		doc.KeyValue("Payment:", r.PaymentType)
	}

	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, fmt.Sprintf("%.2f", item.Total))
		if item.Quantity > 1 {
			doc.TextF("  @ %.2f each", item.UnitPrice)
		}
		for _, mod := range item.Modifiers {
			doc.ModifierLine(mod, "")
		}
	}

	doc.Separator('-')

	doc.KeyValue("Subtotal:", fmt.Sprintf("%.2f", r.SubTotal))
	if r.VAT > 0 {
		doc.KeyValue("VAT:", fmt.Sprintf("%.2f", r.VAT))
	}
	if r.Discount > 0 {
		doc.KeyValue("Discount:", fmt.Sprintf("-%.2f", r.Discount))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", fmt.Sprintf("%.2f", r.Total)).
		SetBold(false)

	if r.Paid > 0 {
		doc.KeyValue("Paid:", fmt.Sprintf("%.2f", r.Paid))
	}
	if r.Change > 0 {
		doc.KeyValue("Change:", fmt.Sprintf("%.2f", r.Change))
	}

	doc.Separator('-')

	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you for your business!").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// FormatKitchenTicket converts a KitchenTicket into ESC/POS bytes. Kitchen
// tickets print big and skip all money columns.
func (s *PrinterService) FormatKitchenTicket(t *entity.KitchenTicket) []byte {
	doc := printer.NewDocument(s.width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text("KITCHEN").
		TextF("#%s", t.OrderNo).
		SetFontSize(printer.FontNormal).
		SetBold(false).
		TextF("%s  %s", t.OrderType, t.Date).
		SetAlign(printer.AlignLeft).
		Separator('=')

	doc.SetFontSize(printer.FontTall)
	for _, item := range t.Items {
		doc.TextF("%dx %s", item.Quantity, item.Name)
		for _, mod := range item.Modifiers {
			doc.TextF("   + %s", mod)
		}
	}
	doc.SetFontSize(printer.FontNormal)

	if t.Note != "" {
		doc.Separator('-').
			TextF("NOTE: %s", t.Note)
	}

	doc.FeedLines(3).
		Cut()

	return doc.Bytes()
}
