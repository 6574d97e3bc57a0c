package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/pagination"
	"github.com/tillpoint/pos/pkg/report"
)

// ShiftService manages cash drawer shifts. One shift may be open per device
// at a time; cash payments require an open shift when cash management is on.
type ShiftService struct {
	shiftRepo repository.CashDrawerRepository
	orderRepo repository.OrderRepository
	queue     repository.PushQueueRepository
	notifier  SyncNotifier
}

// NewShiftService creates a new shift service
func NewShiftService(
	shiftRepo repository.CashDrawerRepository,
	orderRepo repository.OrderRepository,
	queue repository.PushQueueRepository,
	notifier SyncNotifier,
) *ShiftService {
	return &ShiftService{
		shiftRepo: shiftRepo,
		orderRepo: orderRepo,
		queue:     queue,
		notifier:  notifier,
	}
}

// OpenShiftInput represents the open shift input
type OpenShiftInput struct {
	UserID        uuid.UUID
	OpeningActual decimal.Decimal
}

// OpenShift starts a cash drawer shift with a counted float. The repository
// refuses a second open shift on this device.
func (s *ShiftService) OpenShift(ctx context.Context, input *OpenShiftInput) (*entity.CashDrawerTransaction, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Device context required")
	}
	locationID, _ := infraRepo.GetLocationID(ctx)

	if input.OpeningActual.IsNegative() {
		return nil, apperror.NewBadRequestError("Opening amount cannot be negative")
	}

	shift := &entity.CashDrawerTransaction{
		CompanyID:       companyID,
		LocationID:      locationID,
		UserID:          input.UserID,
		TxType:          enum.DrawerTxOpen,
		OpeningActual:   input.OpeningActual,
		OpeningExpected: input.OpeningActual,
		StartedAt:       time.Now(),
		Source:          enum.SourceLocal,
	}

	if err := s.shiftRepo.OpenShift(ctx, shift); err != nil {
		return nil, err
	}
	if err := s.enqueuePush(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// CloseShiftInput represents the close shift input
type CloseShiftInput struct {
	UserID        uuid.UUID
	ClosingActual decimal.Decimal
}

// CloseShift ends the open shift. Expected closing cash is the opening
// float plus cash tendered on completed orders during the shift; the
// difference against the counted amount is recorded, never hidden.
func (s *ShiftService) CloseShift(ctx context.Context, input *CloseShiftInput) (*entity.CashDrawerTransaction, error) {
	shift, err := s.shiftRepo.CurrentOpen(ctx)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, apperror.NewConflictError("No shift is open on this device")
	}
	return s.finishShift(ctx, shift, &input.ClosingActual)
}

// CloseShiftAtExpected closes the open shift counting exactly the expected
// cash. Used at logout when cash management is off and nobody counts the
// drawer; with no open shift it is a no-op.
func (s *ShiftService) CloseShiftAtExpected(ctx context.Context) (*entity.CashDrawerTransaction, error) {
	shift, err := s.shiftRepo.CurrentOpen(ctx)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, nil
	}
	return s.finishShift(ctx, shift, nil)
}

func (s *ShiftService) finishShift(ctx context.Context, shift *entity.CashDrawerTransaction, counted *decimal.Decimal) (*entity.CashDrawerTransaction, error) {
	now := time.Now()
	totalSales, cashSales, err := s.orderRepo.SalesBetween(ctx, shift.StartedAt, now)
	if err != nil {
		return nil, err
	}

	expected := shift.OpeningActual.Add(cashSales)
	actual := expected
	if counted != nil {
		actual = *counted
	}
	difference := actual.Sub(expected)

	shift.TxType = enum.DrawerTxClose
	shift.ClosingActual = &actual
	shift.ClosingExpected = &expected
	shift.Difference = &difference
	shift.TotalSales = totalSales
	shift.EndedAt = &now

	if err := s.shiftRepo.CloseShift(ctx, shift); err != nil {
		return nil, err
	}
	if err := s.enqueuePush(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// CurrentShift returns the open shift, or nil when the drawer is closed.
func (s *ShiftService) CurrentShift(ctx context.Context) (*entity.CashDrawerTransaction, error) {
	return s.shiftRepo.CurrentOpen(ctx)
}

// ListShifts lists past shifts with filtering
func (s *ShiftService) ListShifts(ctx context.Context, params *repository.ShiftFilterParams) (*pagination.PaginatedResult[entity.CashDrawerTransaction], error) {
	shifts, total, err := s.shiftRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(shifts, pag), nil
}

// ZReport renders the end-of-shift report as an xlsx workbook.
func (s *ShiftService) ZReport(ctx context.Context, shiftID uuid.UUID) ([]byte, error) {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, apperror.NewNotFoundError("Shift")
	}

	end := time.Now()
	if shift.EndedAt != nil {
		end = *shift.EndedAt
	}

	completed := enum.OrderStatusCompleted
	orders, _, err := s.orderRepo.List(ctx, &repository.OrderFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 1000},
		Status:     &completed,
		StartDate:  &shift.StartedAt,
		EndDate:    &end,
	})
	if err != nil {
		return nil, err
	}

	return report.BuildZReport(shift, orders)
}

func (s *ShiftService) enqueuePush(ctx context.Context, shift *entity.CashDrawerTransaction) error {
	payload, err := json.Marshal(shift)
	if err != nil {
		return err
	}
	err = s.queue.Enqueue(ctx, &entity.PushMutation{
		Entity:   appsync.EntityShift,
		Op:       "upsert",
		RecordID: shift.ID,
		Payload:  payload,
	})
	if err != nil {
		return err
	}
	s.notifier.RequestSync()
	return nil
}
