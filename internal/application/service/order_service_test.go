package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/application/billing"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/infrastructure/database"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
)

type paymentFixture struct {
	svc       *OrderService
	orders    *fakeOrderRepo
	customers *fakeCustomerRepo
	settings  *fakeSettingsRepo
	shifts    *fakeShiftRepo
	effects   *fakeDispatcher
}

func newPaymentFixture(t *testing.T, orders ...*entity.Order) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		orders:    newFakeOrderRepo(orders...),
		customers: newFakeCustomerRepo(),
		settings:  &fakeSettingsRepo{settings: &entity.BillingSettings{}},
		shifts:    &fakeShiftRepo{},
		effects:   &fakeDispatcher{},
	}
	f.svc = NewOrderService(nil, f.orders, newFakeProductRepo(), f.customers, f.settings,
		f.shifts, &fakePushQueue{}, &fakeNotifier{}, f.effects, "POS1")
	return f
}

func openOrder(total int64) *entity.Order {
	amt := decimal.NewFromInt(total)
	return &entity.Order{
		ID:       uuid.New(),
		Status:   enum.OrderStatusOpen,
		SubTotal: amt,
		Total:    amt,
	}
}

func TestCollectPaymentNegativeChange(t *testing.T) {
	order := openOrder(100)
	f := newPaymentFixture(t, order)

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderCash,
		Tendered: decimal.NewFromInt(100),
		Change:   decimal.NewFromInt(-5),
	})
	if err != billing.ErrNegativeChange {
		t.Fatalf("CollectPayment() error = %v, want ErrNegativeChange", err)
	}
}

func TestCollectPaymentUnknownProvider(t *testing.T) {
	order := openOrder(100)
	f := newPaymentFixture(t, order)

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: "cheque",
		Tendered: decimal.NewFromInt(100),
	})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("CollectPayment() error = %v, want bad request", err)
	}
}

func TestCollectPaymentNonCashChangeRefused(t *testing.T) {
	order := openOrder(100)
	f := newPaymentFixture(t, order)

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderCard,
		Tendered: decimal.NewFromInt(110),
		Change:   decimal.NewFromInt(10),
	})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("CollectPayment() error = %v, want bad request", err)
	}
}

func TestCollectPaymentCashNeedsOpenShift(t *testing.T) {
	order := openOrder(100)
	f := newPaymentFixture(t, order)
	f.settings.settings.CashManagement = true

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderCash,
		Tendered: decimal.NewFromInt(100),
	})
	if !isConflict(err) {
		t.Fatalf("CollectPayment() error = %v, want conflict without open shift", err)
	}
}

func TestCollectPaymentFullyPaidRefused(t *testing.T) {
	order := openOrder(100)
	order.Breakups = []entity.PaymentBreakup{
		{Provider: enum.ProviderCard, Total: decimal.NewFromInt(100), Paid: decimal.NewFromInt(100)},
	}
	f := newPaymentFixture(t, order)

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderCard,
		Tendered: decimal.NewFromInt(10),
	})
	if !isConflict(err) {
		t.Fatalf("CollectPayment() error = %v, want conflict when fully paid", err)
	}
}

func TestCollectPaymentTerminalOrderRefused(t *testing.T) {
	order := openOrder(100)
	order.Status = enum.OrderStatusCancelled
	f := newPaymentFixture(t, order)

	_, err := f.svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderCash,
		Tendered: decimal.NewFromInt(100),
	})
	if !isConflict(err) {
		t.Fatalf("CollectPayment() error = %v, want conflict on cancelled order", err)
	}
}

func TestCollectPaymentWalletQueuesRedemption(t *testing.T) {
	db, err := database.NewSQLiteDB(&config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "pos.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	customer := &entity.Customer{
		ID:            uuid.New(),
		Name:          "Regular",
		WalletBalance: decimal.NewFromInt(50),
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	order := openOrder(100)
	order.CustomerID = &customer.ID
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	customers := newFakeCustomerRepo(customer)
	svc := NewOrderService(db, newFakeOrderRepo(order), newFakeProductRepo(), customers,
		&fakeSettingsRepo{settings: &entity.BillingSettings{}}, &fakeShiftRepo{},
		&fakePushQueue{}, &fakeNotifier{}, &fakeDispatcher{}, "POS1")

	if _, err := svc.CollectPayment(context.Background(), order.ID, &PaymentInput{
		Provider: enum.ProviderWallet,
		Tendered: decimal.NewFromInt(50),
	}); err != nil {
		t.Fatalf("CollectPayment() error = %v", err)
	}

	// The debit and its queued redemption commit together.
	var debited entity.Customer
	if err := db.First(&debited, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("load customer: %v", err)
	}
	if !debited.WalletBalance.IsZero() {
		t.Errorf("wallet balance = %s, want 0", debited.WalletBalance)
	}

	var queued []entity.PushMutation
	if err := db.Where("entity = ? AND op = ?", appsync.EntityCustomer, "redeem").Find(&queued).Error; err != nil {
		t.Fatalf("load queue: %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("redeem mutations = %d, want 1", len(queued))
	}
	if queued[0].RecordID != customer.ID {
		t.Errorf("redeem record = %s, want customer %s", queued[0].RecordID, customer.ID)
	}
}

func TestUpdateItemsEmptyCartRefused(t *testing.T) {
	order := openOrder(100)
	f := newPaymentFixture(t, order)

	_, err := f.svc.UpdateItems(context.Background(), order.ID, nil, AdjustmentInput{})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("UpdateItems() error = %v, want bad request for empty cart", err)
	}
}

func TestCreateOrderBlacklistedCustomer(t *testing.T) {
	customer := &entity.Customer{ID: uuid.New(), Name: "Banned", Blacklisted: true}
	f := newPaymentFixture(t)
	f.customers.customers[customer.ID] = customer

	ctx := infraRepo.WithDevice(context.Background(), uuid.New(), uuid.New())
	_, err := f.svc.CreateOrder(ctx, &CreateOrderInput{
		CashierID:  uuid.New(),
		CustomerID: &customer.ID,
		Items:      []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("CreateOrder() error = %v, want refusal for blacklisted customer", err)
	}
}

func TestCreateOrderRequiresDeviceContext(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderInput{
		CashierID: uuid.New(),
		Items:     []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("CreateOrder() error = %v, want bad request without device scope", err)
	}
}

func TestAssignDriverNonDelivery(t *testing.T) {
	order := openOrder(100)
	order.OrderType = enum.OrderTypeDineIn
	f := newPaymentFixture(t, order)

	_, err := f.svc.AssignDriver(context.Background(), order.ID, uuid.New())
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("AssignDriver() error = %v, want bad request for dine-in", err)
	}
}

func TestPreviewCartPricesWithoutPersisting(t *testing.T) {
	product := &entity.Product{
		ID:         uuid.New(),
		Name:       "Flat White",
		Price:      decimal.NewFromInt(100),
		TaxPercent: decimal.NewFromInt(10),
	}
	orders := newFakeOrderRepo()
	svc := NewOrderService(nil, orders, newFakeProductRepo(product), newFakeCustomerRepo(),
		&fakeSettingsRepo{settings: &entity.BillingSettings{}}, &fakeShiftRepo{},
		&fakePushQueue{}, &fakeNotifier{}, &fakeDispatcher{}, "POS1")

	ctx := infraRepo.WithDevice(context.Background(), uuid.New(), uuid.New())
	preview, err := svc.PreviewCart(ctx, []OrderItemInput{{ProductID: product.ID, Quantity: 2}}, AdjustmentInput{})
	if err != nil {
		t.Fatalf("PreviewCart() error = %v", err)
	}

	if got := preview.Summary.Total; !got.Equal(decimal.NewFromInt(220)) {
		t.Errorf("Total = %s, want 220", got)
	}
	if got := preview.Summary.VatAmount; !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("VatAmount = %s, want 20", got)
	}
	if len(orders.orders) != 0 {
		t.Errorf("preview persisted %d orders, want none", len(orders.orders))
	}
}

func TestPreviewCartEmpty(t *testing.T) {
	f := newPaymentFixture(t)

	ctx := infraRepo.WithDevice(context.Background(), uuid.New(), uuid.New())
	_, err := f.svc.PreviewCart(ctx, nil, AdjustmentInput{})
	appErr := apperror.GetAppError(err)
	if appErr == nil || appErr.Code != 400 {
		t.Fatalf("PreviewCart() error = %v, want bad request for empty cart", err)
	}
}
