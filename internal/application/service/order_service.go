package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/application/billing"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/internal/infrastructure/database"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/pagination"
	"gorm.io/gorm"
)

// SyncNotifier schedules a sync run after local writes.
type SyncNotifier interface {
	RequestSync()
}

// OrderService handles cart building, payment collection and the order
// lifecycle.
type OrderService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	settingsRepo repository.SettingsRepository
	shiftRepo    repository.CashDrawerRepository
	queue        repository.PushQueueRepository
	notifier     SyncNotifier
	effects      Dispatcher
	devicePrefix string
}

// NewOrderService creates a new order service
func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	settingsRepo repository.SettingsRepository,
	shiftRepo repository.CashDrawerRepository,
	queue repository.PushQueueRepository,
	notifier SyncNotifier,
	effects Dispatcher,
	devicePrefix string,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		settingsRepo: settingsRepo,
		shiftRepo:    shiftRepo,
		queue:        queue,
		notifier:     notifier,
		effects:      effects,
		devicePrefix: devicePrefix,
	}
}

// OrderItemInput represents one cart line as submitted by the register
type OrderItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
	Modifiers []entity.Modifier
}

// AdjustmentInput carries the cart-level discount selection
type AdjustmentInput struct {
	DiscountCode    string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Promotions      []billing.Promotion
	Charges         []billing.Charge
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	CashierID  uuid.UUID
	OrderType  enum.OrderType
	CustomerID *uuid.UUID
	Items      []OrderItemInput
	Adjustment AdjustmentInput
}

// CreateOrder builds a new open order from the cart lines, computing all
// amounts from locally cached product snapshots.
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Device context required")
	}
	locationID, _ := infraRepo.GetLocationID(ctx)

	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("An order needs at least one item")
	}

	if input.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
		if customer.Blacklisted {
			return nil, apperror.NewBadRequestError("Customer is blacklisted")
		}
	}

	items, lines, err := s.buildLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	summary, err := s.calculate(ctx, locationID, lines, input.Adjustment)
	if err != nil {
		return nil, err
	}

	orderNo, err := s.orderRepo.NextOrderNo(ctx, s.devicePrefix)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		CompanyID:  companyID,
		LocationID: locationID,
		OrderNo:    orderNo,
		OrderType:  input.OrderType,
		Status:     enum.OrderStatusOpen,
		CashierID:  &input.CashierID,
		CustomerID: input.CustomerID,
		Source:     enum.SourceLocal,

		SubTotal:       summary.SubTotal,
		VatAmount:      summary.VatAmount,
		DiscountAmount: summary.DiscountAmount,
		Total:          summary.Total,
		PaymentStatus:  enum.PaymentStatusUnpaid,
	}

	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := infraRepo.NewOrderRepository(tx).Create(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.enqueuePush(ctx, order, "create"); err != nil {
		return nil, err
	}

	return s.orderRepo.GetWithItems(ctx, order.ID)
}

// UpdateItems replaces the order's cart lines and recomputes all amounts.
// Recomputation runs the same path as order creation, so add, edit and
// remove all converge on identical totals.
func (s *OrderService) UpdateItems(ctx context.Context, orderID uuid.UUID, itemInputs []OrderItemInput, adj AdjustmentInput) (*entity.Order, error) {
	order, err := s.mutableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(itemInputs) == 0 {
		return nil, apperror.NewBadRequestError("An order needs at least one item; cancel it instead")
	}

	items, lines, err := s.buildLines(ctx, itemInputs)
	if err != nil {
		return nil, err
	}

	summary, err := s.calculate(ctx, order.LocationID, lines, adj)
	if err != nil {
		return nil, err
	}

	order.SubTotal = summary.SubTotal
	order.VatAmount = summary.VatAmount
	order.DiscountAmount = summary.DiscountAmount
	order.Total = summary.Total

	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := infraRepo.NewOrderRepository(tx)
		if err := repo.ReplaceItems(ctx, orderID, items); err != nil {
			return err
		}
		return repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := s.enqueuePush(ctx, order, "update"); err != nil {
		return nil, err
	}

	return s.orderRepo.GetWithItems(ctx, orderID)
}

// PaymentInput is one tender against an order
type PaymentInput struct {
	Provider enum.PaymentProvider
	Tendered decimal.Decimal
	Change   decimal.Decimal
}

// CollectPayment records one tender. Cash may overpay and return change;
// wallet and credit redemptions are bounded by the customer balance and the
// remaining order balance, and the balance adjustment commits atomically
// with the payment row.
func (s *OrderService) CollectPayment(ctx context.Context, orderID uuid.UUID, input *PaymentInput) (*entity.Order, error) {
	order, err := s.mutableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !input.Provider.Valid() {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("Unknown payment provider %q", input.Provider))
	}
	if input.Change.IsNegative() {
		return nil, billing.ErrNegativeChange
	}
	if !input.Tendered.IsPositive() {
		return nil, apperror.NewBadRequestError("Tendered amount must be positive")
	}
	if input.Provider != enum.ProviderCash && !input.Change.IsZero() {
		return nil, apperror.NewBadRequestError("Only cash payments can return change")
	}

	settings, err := s.settingsRepo.Get(ctx, order.LocationID)
	if err != nil {
		return nil, err
	}
	if input.Provider == enum.ProviderCash && settings != nil && settings.CashManagement {
		shift, err := s.shiftRepo.CurrentOpen(ctx)
		if err != nil {
			return nil, err
		}
		if shift == nil {
			return nil, apperror.NewConflictError("Open a shift before taking cash payments")
		}
	}

	summary := orderSummary(order)
	remaining, err := billing.Remaining(summary, order.Breakups)
	if err != nil {
		return nil, err
	}
	if remaining.IsZero() {
		return nil, apperror.NewConflictError("Order is already fully paid")
	}

	breakup := &entity.PaymentBreakup{
		OrderID:    orderID,
		Provider:   input.Provider,
		Total:      input.Tendered,
		Paid:       input.Tendered.Sub(input.Change),
		Change:     input.Change,
		TenderedAt: time.Now(),
	}

	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if input.Provider == enum.ProviderWallet || input.Provider == enum.ProviderCredit {
			if err := s.redeemFunds(ctx, tx, order, input); err != nil {
				return err
			}
		}

		repo := infraRepo.NewOrderRepository(tx)
		if err := repo.AddBreakup(ctx, breakup); err != nil {
			return err
		}

		order.Breakups = append(order.Breakups, *breakup)
		status, err := billing.Status(summary, order.Breakups)
		if err != nil {
			return err
		}
		order.PaymentStatus = status
		return repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if input.Provider == enum.ProviderCash {
		s.effects.Dispatch(Effect{Kind: EffectOpenDrawer, OrderID: orderID})
	}

	if err := s.enqueuePush(ctx, order, "update"); err != nil {
		return nil, err
	}

	return s.orderRepo.GetWithItems(ctx, orderID)
}

// redeemFunds debits the customer's wallet or credit inside the payment
// transaction. The guarded UPDATE refuses to overdraw, so a concurrent
// redemption on another order cannot push the balance negative.
func (s *OrderService) redeemFunds(ctx context.Context, tx *gorm.DB, order *entity.Order, input *PaymentInput) error {
	if order.CustomerID == nil {
		return apperror.NewBadRequestError("Attach a customer before redeeming wallet or credit funds")
	}
	customer, err := s.customerRepo.GetByID(ctx, *order.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}

	summary := orderSummary(order)
	remaining, err := billing.Remaining(summary, order.Breakups)
	if err != nil {
		return err
	}

	available := customer.WalletBalance
	if input.Provider == enum.ProviderCredit {
		available = customer.CreditAvailable
	}

	limit := billing.MaxRedeemable(available, remaining)
	if input.Tendered.GreaterThan(limit) {
		return apperror.NewBadRequestError(fmt.Sprintf(
			"Redemption exceeds the redeemable amount of %s", limit.StringFixed(2)))
	}

	walletDelta, creditDelta := input.Tendered.Neg(), decimal.Zero
	if input.Provider == enum.ProviderCredit {
		walletDelta, creditDelta = decimal.Zero, input.Tendered.Neg()
	}
	if err := infraRepo.NewCustomerRepository(tx).AdjustBalances(ctx, customer.ID, walletDelta, creditDelta); err != nil {
		return err
	}

	// The redemption rides the same transaction as the balance debit, so
	// the server hears about every debit that actually happened.
	payload, err := json.Marshal(map[string]interface{}{
		"order_id": order.ID,
		"provider": input.Provider,
		"amount":   input.Tendered,
	})
	if err != nil {
		return err
	}
	return infraRepo.NewPushQueueRepository(tx).Enqueue(ctx, &entity.PushMutation{
		Entity:   appsync.EntityCustomer,
		Op:       "redeem",
		RecordID: customer.ID,
		Payload:  payload,
	})
}

// CartPreview pairs priced cart lines with the payment summary without
// persisting anything.
type CartPreview struct {
	Items   []entity.OrderItem `json:"items"`
	Summary billing.Summary    `json:"summary"`
}

// PreviewCart prices a cart without creating an order, so the register can
// show a running total while the cashier builds the sale.
func (s *OrderService) PreviewCart(ctx context.Context, itemInputs []OrderItemInput, adj AdjustmentInput) (*CartPreview, error) {
	locationID, ok := infraRepo.GetLocationID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Device context required")
	}
	if len(itemInputs) == 0 {
		return nil, apperror.NewBadRequestError("Cart must contain at least one item")
	}

	items, lines, err := s.buildLines(ctx, itemInputs)
	if err != nil {
		return nil, err
	}
	summary, err := s.calculate(ctx, locationID, lines, adj)
	if err != nil {
		return nil, err
	}
	return &CartPreview{Items: items, Summary: summary}, nil
}

// AssignDriver attaches a delivery driver to an order in the delivery flow.
func (s *OrderService) AssignDriver(ctx context.Context, orderID, driverID uuid.UUID) (*entity.Order, error) {
	order, err := s.mutableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderType != enum.OrderTypeDelivery {
		return nil, apperror.NewBadRequestError("Only delivery orders take a driver")
	}

	order.DriverID = &driverID
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	if err := s.enqueuePush(ctx, order, "update"); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder retrieves an order with its items and payments
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders lists orders with filtering
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(orders, pag), nil
}

// ListOrdersWithCursor lists orders using cursor pagination for the
// register's infinite scroll.
func (s *OrderService) ListOrdersWithCursor(ctx context.Context, params *repository.OrderCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Order], error) {
	orders, err := s.orderRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, err
	}

	pag, trimmed := pagination.NewCursorPagination(orders, params.Cursor.Limit,
		func(o entity.Order) string { return o.ID.String() },
		func(o entity.Order) time.Time { return o.CreatedAt })
	return pagination.NewCursorPaginatedResult(trimmed, pag), nil
}

// mutableOrder loads an order and refuses terminal ones.
func (s *OrderService) mutableOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if !order.Mutable() {
		return nil, apperror.NewConflictError(fmt.Sprintf("Order is %s and can no longer change", order.Status))
	}
	return order, nil
}

// buildLines snapshots product data into order items and billing lines.
func (s *OrderService) buildLines(ctx context.Context, inputs []OrderItemInput) ([]entity.OrderItem, []billing.Line, error) {
	productIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		if in.Quantity <= 0 {
			return nil, nil, apperror.NewBadRequestError("Item quantity must be positive")
		}
		productIDs[i] = in.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	items := make([]entity.OrderItem, 0, len(inputs))
	lines := make([]billing.Line, 0, len(inputs))
	for _, in := range inputs {
		product, exists := productMap[in.ProductID]
		if !exists {
			return nil, nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", in.ProductID))
		}

		line := billing.Line{
			UnitPrice:       product.Price,
			Quantity:        in.Quantity,
			TaxPercent:      product.TaxPercent,
			DiscountPercent: product.DiscountPercent,
			Modifiers:       in.Modifiers,
		}
		lines = append(lines, line)

		lt := billing.ComputeLine(line)
		item := entity.OrderItem{
			ProductID:       in.ProductID,
			VariantID:       in.VariantID,
			Name:            product.Name,
			Quantity:        in.Quantity,
			UnitPrice:       product.Price,
			TaxPercent:      product.TaxPercent,
			DiscountPercent: product.DiscountPercent,
			TaxAmount:       lt.TaxAmount.Round(2),
			DiscountAmount:  lt.DiscountAmount.Round(2),
			Total:           lt.Total.Round(2),
		}
		if len(in.Modifiers) > 0 {
			raw, err := json.Marshal(in.Modifiers)
			if err != nil {
				return nil, nil, err
			}
			item.Modifiers = raw
		}
		items = append(items, item)
	}

	return items, lines, nil
}

// calculate runs the billing engine under the location's policy and rounds
// at the persistence boundary.
func (s *OrderService) calculate(ctx context.Context, locationID uuid.UUID, lines []billing.Line, adj AdjustmentInput) (billing.Summary, error) {
	policy := billing.Policy{}
	settings, err := s.settingsRepo.Get(ctx, locationID)
	if err != nil {
		return billing.Summary{}, err
	}
	if settings != nil {
		policy.DiscountCoversModifiers = settings.DiscountCoversModifiers
	}

	billAdj := billing.Adjustment{
		Promotions: adj.Promotions,
		Charges:    adj.Charges,
	}
	if adj.DiscountCode != "" {
		billAdj.Code = &billing.DiscountCode{
			Code:    adj.DiscountCode,
			Percent: adj.DiscountPercent,
			Amount:  adj.DiscountAmount,
		}
	}

	summary, err := billing.Calculate(lines, billAdj, policy)
	if err != nil {
		return billing.Summary{}, err
	}
	return summary.Rounded(), nil
}

// orderSummary rebuilds a billing summary from persisted order amounts.
func orderSummary(order *entity.Order) billing.Summary {
	return billing.Summary{
		SubTotal:       order.SubTotal,
		VatAmount:      order.VatAmount,
		DiscountAmount: order.DiscountAmount,
		Total:          order.Total,
	}
}

// enqueuePush queues the order's current state for push and schedules a
// sync run. The op picks the remote endpoint: "create" posts a new order,
// "update" patches it, "status" patches only the status.
func (s *OrderService) enqueuePush(ctx context.Context, order *entity.Order, op string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	err = s.queue.Enqueue(ctx, &entity.PushMutation{
		Entity:   appsync.EntityOrder,
		Op:       op,
		RecordID: order.ID,
		Payload:  payload,
	})
	if err != nil {
		return err
	}
	s.notifier.RequestSync()
	return nil
}
