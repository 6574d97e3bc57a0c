package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/apperror"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order

	statusUpdates []enum.OrderStatus
	updated       int

	salesTotal decimal.Decimal
	salesCash  decimal.Decimal
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id], nil
}

func (f *fakeOrderRepo) GetByOrderNo(_ context.Context, orderNo string) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) GetWithItems(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id], nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated++
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enum.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, status)
	if o, ok := f.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ *repository.OrderFilterParams) ([]entity.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) ListWithCursor(_ context.Context, _ *repository.OrderCursorFilterParams) ([]entity.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) Upsert(_ context.Context, _ []entity.Order) error { return nil }

func (f *fakeOrderRepo) NextOrderNo(_ context.Context, prefix string) (string, error) {
	return prefix + "-000001", nil
}

func (f *fakeOrderRepo) ReplaceItems(_ context.Context, _ uuid.UUID, _ []entity.OrderItem) error {
	return nil
}

func (f *fakeOrderRepo) AddBreakup(_ context.Context, _ *entity.PaymentBreakup) error { return nil }

func (f *fakeOrderRepo) SalesBetween(_ context.Context, _, _ time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return f.salesTotal, f.salesCash, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*entity.Product

	decrements map[uuid.UUID]int
	shortIDs   []uuid.UUID
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[uuid.UUID]*entity.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	return f.products[id], nil
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	out := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) List(_ context.Context, _ *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) Upsert(_ context.Context, _ []entity.Product) error { return nil }

func (f *fakeProductRepo) AtomicDecrementBatch(_ context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error) {
	f.decrements = decrements
	return f.shortIDs, nil
}

func (f *fakeProductRepo) AtomicIncrementBatch(_ context.Context, _ map[uuid.UUID]int) error {
	return nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*entity.Customer
}

func newFakeCustomerRepo(customers ...*entity.Customer) *fakeCustomerRepo {
	f := &fakeCustomerRepo{customers: make(map[uuid.UUID]*entity.Customer)}
	for _, c := range customers {
		f.customers[c.ID] = c
	}
	return f
}

func (f *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	return f.customers[id], nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.customers, id)
	return nil
}

func (f *fakeCustomerRepo) List(_ context.Context, _ *repository.CustomerFilterParams) ([]entity.Customer, int64, error) {
	return nil, 0, nil
}

func (f *fakeCustomerRepo) Upsert(_ context.Context, _ []entity.Customer) error { return nil }

func (f *fakeCustomerRepo) AdjustBalances(_ context.Context, id uuid.UUID, walletDelta, creditDelta decimal.Decimal) error {
	c, ok := f.customers[id]
	if !ok {
		return apperror.NewNotFoundError("Customer")
	}
	c.WalletBalance = c.WalletBalance.Add(walletDelta)
	c.CreditAvailable = c.CreditAvailable.Add(creditDelta)
	c.CreditUsed = c.CreditUsed.Sub(creditDelta)
	return nil
}

type fakeSettingsRepo struct {
	settings *entity.BillingSettings
	created  int
}

func (f *fakeSettingsRepo) Get(_ context.Context, _ uuid.UUID) (*entity.BillingSettings, error) {
	return f.settings, nil
}

func (f *fakeSettingsRepo) Create(_ context.Context, s *entity.BillingSettings) error {
	f.created++
	f.settings = s
	return nil
}

func (f *fakeSettingsRepo) Update(_ context.Context, s *entity.BillingSettings) error {
	f.settings = s
	return nil
}

type fakeShiftRepo struct {
	open   *entity.CashDrawerTransaction
	closed *entity.CashDrawerTransaction
}

func (f *fakeShiftRepo) OpenShift(_ context.Context, tx *entity.CashDrawerTransaction) error {
	if f.open != nil {
		return apperror.NewConflictError("A shift is already open on this device")
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	f.open = tx
	return nil
}

func (f *fakeShiftRepo) CloseShift(_ context.Context, tx *entity.CashDrawerTransaction) error {
	f.closed = tx
	f.open = nil
	return nil
}

func (f *fakeShiftRepo) CurrentOpen(_ context.Context) (*entity.CashDrawerTransaction, error) {
	return f.open, nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.CashDrawerTransaction, error) {
	if f.open != nil && f.open.ID == id {
		return f.open, nil
	}
	if f.closed != nil && f.closed.ID == id {
		return f.closed, nil
	}
	return nil, nil
}

func (f *fakeShiftRepo) List(_ context.Context, _ *repository.ShiftFilterParams) ([]entity.CashDrawerTransaction, int64, error) {
	return nil, 0, nil
}

func (f *fakeShiftRepo) Upsert(_ context.Context, _ []entity.CashDrawerTransaction) error {
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.DeviceUser
}

func newFakeUserRepo(users ...*entity.DeviceUser) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uuid.UUID]*entity.DeviceUser)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.DeviceUser, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.DeviceUser, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]entity.DeviceUser, error) {
	out := make([]entity.DeviceUser, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Upsert(_ context.Context, _ []entity.DeviceUser) error { return nil }

func (f *fakeUserRepo) RecordFailedAttempt(_ context.Context, id uuid.UUID) (int, error) {
	u := f.users[id]
	u.FailedAttempts++
	return u.FailedAttempts, nil
}

func (f *fakeUserRepo) SetLockout(_ context.Context, id uuid.UUID, until time.Time) error {
	f.users[id].LockedUntil = &until
	return nil
}

func (f *fakeUserRepo) ResetFailedAttempts(_ context.Context, id uuid.UUID) error {
	u := f.users[id]
	u.FailedAttempts = 0
	u.LockedUntil = nil
	return nil
}

type fakePushQueue struct {
	mu         sync.Mutex
	entries    []entity.PushMutation
	enqueueErr error
}

func (f *fakePushQueue) Enqueue(_ context.Context, m *entity.PushMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.entries = append(f.entries, *m)
	return nil
}

func (f *fakePushQueue) Pending(_ context.Context, limit int) ([]entity.PushMutation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) > limit {
		return append([]entity.PushMutation(nil), f.entries[:limit]...), nil
	}
	return append([]entity.PushMutation(nil), f.entries...), nil
}

func (f *fakePushQueue) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakePushQueue) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.entries {
		if m.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakePushQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	appErr := apperror.GetAppError(err)
	return appErr.Code == 409
}

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) RequestSync() { f.calls++ }

type fakeDispatcher struct{ effects []Effect }

func (f *fakeDispatcher) Dispatch(e Effect) { f.effects = append(f.effects, e) }

func (f *fakeDispatcher) kinds() []EffectKind {
	out := make([]EffectKind, len(f.effects))
	for i, e := range f.effects {
		out[i] = e.Kind
	}
	return out
}
