package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/pkg/apperror"
)

type lifecycleFixture struct {
	svc      *OrderService
	orders   *fakeOrderRepo
	products *fakeProductRepo
	settings *fakeSettingsRepo
	queue    *fakePushQueue
	effects  *fakeDispatcher
}

func newLifecycleFixture(t *testing.T, orders ...*entity.Order) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		orders:   newFakeOrderRepo(orders...),
		products: newFakeProductRepo(),
		settings: &fakeSettingsRepo{settings: &entity.BillingSettings{
			Industry:          enum.IndustryRestaurant,
			ReceiptPrintCount: 2,
		}},
		queue:   &fakePushQueue{},
		effects: &fakeDispatcher{},
	}
	f.svc = NewOrderService(nil, f.orders, f.products, newFakeCustomerRepo(), f.settings,
		&fakeShiftRepo{}, f.queue, &fakeNotifier{}, f.effects, "POS1")
	return f
}

func paidOrder(status enum.OrderStatus, cashierID uuid.UUID) *entity.Order {
	total := decimal.NewFromInt(100)
	return &entity.Order{
		ID:        uuid.New(),
		OrderNo:   "POS1-000001",
		Status:    status,
		CashierID: &cashierID,
		SubTotal:  total,
		Total:     total,
		Breakups: []entity.PaymentBreakup{
			{Provider: enum.ProviderCash, Total: total, Paid: total},
		},
		PaymentStatus: enum.PaymentStatusPaid,
	}
}

func TestTransitionForward(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusOpen, CashierID: &cashier}
	f := newLifecycleFixture(t, order)

	got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusInProcess,
		CashierID: cashier,
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != enum.OrderStatusInProcess {
		t.Errorf("status = %s, want inprocess", got.Status)
	}
	if f.queue.count() != 1 {
		t.Errorf("queued mutations = %d, want 1", f.queue.count())
	}
	if op := f.queue.entries[0].Op; op != "status" {
		t.Errorf("queued op = %s, want status", op)
	}
}

func TestTransitionSkipRefused(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusOpen, CashierID: &cashier}
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusReady,
		CashierID: cashier,
	})
	if !isConflict(err) {
		t.Fatalf("Transition() error = %v, want conflict", err)
	}
	if order.Status != enum.OrderStatusOpen {
		t.Errorf("status = %s, want open untouched", order.Status)
	}
}

func TestTransitionTerminalRefused(t *testing.T) {
	cashier := uuid.New()
	order := paidOrder(enum.OrderStatusCompleted, cashier)
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusCancelled,
		CashierID: cashier,
	})
	if !isConflict(err) {
		t.Fatalf("Transition() error = %v, want conflict", err)
	}
}

func TestTransitionCancelFromAnyActiveState(t *testing.T) {
	cashier := uuid.New()
	for _, from := range []enum.OrderStatus{
		enum.OrderStatusOpen, enum.OrderStatusInProcess, enum.OrderStatusReady,
	} {
		order := &entity.Order{ID: uuid.New(), Status: from, CashierID: &cashier}
		f := newLifecycleFixture(t, order)

		got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
			To:            enum.OrderStatusCancelled,
			CashierID:     cashier,
			ConfirmCancel: true,
		})
		if err != nil {
			t.Fatalf("cancel from %s: error = %v", from, err)
		}
		if got.Status != enum.OrderStatusCancelled {
			t.Errorf("cancel from %s: status = %s", from, got.Status)
		}
	}
}

func TestTransitionCancelNeedsConfirmation(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusInProcess, CashierID: &cashier}
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusCancelled,
		CashierID: cashier,
	})
	if !isConflict(err) {
		t.Fatalf("Transition() error = %v, want conflict without confirmation", err)
	}
	if order.Status != enum.OrderStatusInProcess {
		t.Errorf("status = %s, want inprocess untouched", order.Status)
	}
}

func TestTransitionReadyNeedsDriverForDelivery(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{
		ID:        uuid.New(),
		Status:    enum.OrderStatusInProcess,
		OrderType: enum.OrderTypeDelivery,
		CashierID: &cashier,
	}
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusReady,
		CashierID: cashier,
	})
	if !isConflict(err) {
		t.Fatalf("Transition() error = %v, want conflict without a driver", err)
	}

	driver := uuid.New()
	order.DriverID = &driver
	got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusReady,
		CashierID: cashier,
	})
	if err != nil {
		t.Fatalf("Transition() with driver: error = %v", err)
	}
	if got.Status != enum.OrderStatusReady {
		t.Errorf("status = %s, want ready", got.Status)
	}
}

func TestTransitionReadyForPickup(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{
		ID:        uuid.New(),
		Status:    enum.OrderStatusInProcess,
		OrderType: enum.OrderTypePickup,
		CashierID: &cashier,
	}
	f := newLifecycleFixture(t, order)

	got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusReady,
		CashierID: cashier,
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != enum.OrderStatusReady {
		t.Errorf("status = %s, want ready", got.Status)
	}
}

func TestTransitionCompleteRequiresPayment(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{
		ID:        uuid.New(),
		Status:    enum.OrderStatusReady,
		CashierID: &cashier,
		Total:     decimal.NewFromInt(50),
		SubTotal:  decimal.NewFromInt(50),
	}
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusCompleted,
		CashierID: cashier,
	})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != http.StatusPaymentRequired {
		t.Fatalf("Transition() error = %v, want 402", err)
	}
}

func TestTransitionCompleteTakesStockAndPrints(t *testing.T) {
	cashier := uuid.New()
	product := &entity.Product{ID: uuid.New(), Name: "Burger", TrackStock: true, StockCount: 10}
	order := paidOrder(enum.OrderStatusReady, cashier)
	order.Items = []entity.OrderItem{
		{ProductID: product.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 1},
	}
	email := "guest@example.com"
	order.Customer = &entity.Customer{Email: &email}

	f := newLifecycleFixture(t, order)
	f.products.products[product.ID] = product

	got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusCompleted,
		CashierID: cashier,
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != enum.OrderStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if qty := f.products.decrements[product.ID]; qty != 3 {
		t.Errorf("decremented %d, want 3 (quantities aggregated)", qty)
	}

	var sawReceipt, sawEmail bool
	for _, e := range f.effects.effects {
		switch e.Kind {
		case EffectPrintReceipt:
			sawReceipt = true
			if e.Copies != 2 {
				t.Errorf("receipt copies = %d, want 2 from settings", e.Copies)
			}
		case EffectEmailReceipt:
			sawEmail = true
			if e.Email != email {
				t.Errorf("receipt email = %q, want customer email", e.Email)
			}
		}
	}
	if !sawReceipt || !sawEmail {
		t.Errorf("effects = %v, want receipt print and email", f.effects.kinds())
	}
}

func TestTransitionCompleteShortStock(t *testing.T) {
	cashier := uuid.New()
	product := &entity.Product{ID: uuid.New(), Name: "Burger", TrackStock: true, StockCount: 1}
	order := paidOrder(enum.OrderStatusReady, cashier)
	order.Items = []entity.OrderItem{{ProductID: product.ID, Quantity: 5}}

	f := newLifecycleFixture(t, order)
	f.products.products[product.ID] = product
	f.products.shortIDs = []uuid.UUID{product.ID}

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusCompleted,
		CashierID: cashier,
	})
	if !isConflict(err) {
		t.Fatalf("Transition() error = %v, want conflict", err)
	}
	if order.Status != enum.OrderStatusReady {
		t.Errorf("status = %s, want ready untouched", order.Status)
	}
	if len(f.orders.statusUpdates) != 0 {
		t.Errorf("status was persisted despite short stock")
	}
}

func TestTransitionKitchenTicketOnAcceptance(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusOpen, CashierID: &cashier}
	f := newLifecycleFixture(t, order)

	if _, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusInProcess,
		CashierID: cashier,
	}); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	kinds := f.effects.kinds()
	if len(kinds) != 1 || kinds[0] != EffectPrintKitchenTicket {
		t.Errorf("effects = %v, want one kitchen ticket", kinds)
	}
}

func TestTransitionNoKitchenTicketForRetail(t *testing.T) {
	cashier := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusOpen, CashierID: &cashier}
	f := newLifecycleFixture(t, order)
	f.settings.settings.Industry = enum.IndustryRetail

	if _, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusInProcess,
		CashierID: cashier,
	}); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(f.effects.effects) != 0 {
		t.Errorf("effects = %v, want none for retail", f.effects.kinds())
	}
}

func TestTransitionTakeover(t *testing.T) {
	holder := uuid.New()
	other := uuid.New()
	order := &entity.Order{ID: uuid.New(), Status: enum.OrderStatusOpen, CashierID: &holder}
	f := newLifecycleFixture(t, order)

	_, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:        enum.OrderStatusInProcess,
		CashierID: other,
	})
	if !isConflict(err) {
		t.Fatalf("transition without takeover: error = %v, want conflict", err)
	}

	got, err := f.svc.Transition(context.Background(), order.ID, &TransitionInput{
		To:              enum.OrderStatusInProcess,
		CashierID:       other,
		ConfirmTakeover: true,
	})
	if err != nil {
		t.Fatalf("transition with takeover: error = %v", err)
	}
	if got.CashierID == nil || *got.CashierID != other {
		t.Errorf("cashier not reassigned on takeover")
	}
}
