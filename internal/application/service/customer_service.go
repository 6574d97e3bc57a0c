package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/repository"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"github.com/tillpoint/pos/pkg/pagination"
)

// CustomerService handles customer lookups and local edits. Wallet and
// credit balances are only ever changed through order payments, never here.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	queue        repository.PushQueueRepository
	notifier     SyncNotifier
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	queue repository.PushQueueRepository,
	notifier SyncNotifier,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		queue:        queue,
		notifier:     notifier,
	}
}

// CustomerInput represents customer create/update fields
type CustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

// CreateCustomer registers a walk-in customer locally and queues it for
// upload.
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CustomerInput) (*entity.Customer, error) {
	companyID, ok := infraRepo.GetCompanyID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Device context required")
	}
	locationID, _ := infraRepo.GetLocationID(ctx)

	if input.Name == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "name", Message: "Name is required"},
		})
	}

	customer := &entity.Customer{
		ID:         uuid.New(),
		CompanyID:  companyID,
		LocationID: locationID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.enqueuePush(ctx, customer, "upsert"); err != nil {
		return nil, err
	}
	return customer, nil
}

// UpdateCustomer edits contact details of an existing customer.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	if input.Name != "" {
		customer.Name = input.Name
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Address != nil {
		customer.Address = input.Address
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	if err := s.enqueuePush(ctx, customer, "upsert"); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes a customer locally and queues the deletion. A
// customer with an outstanding wallet or credit balance stays until the
// balance is settled.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}
	if customer.WalletBalance.IsPositive() || customer.CreditAvailable.IsPositive() {
		return apperror.NewConflictError("Customer has an outstanding balance")
	}

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}

	return s.enqueuePush(ctx, customer, "delete")
}

// GetCustomer retrieves a customer with current wallet and credit balances.
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers retrieves customers with pagination and search
func (s *CustomerService) ListCustomers(ctx context.Context, params *repository.CustomerFilterParams) (*pagination.PaginatedResult[entity.Customer], error) {
	if params == nil {
		params = &repository.CustomerFilterParams{}
	}
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	customers, total, err := s.customerRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return &pagination.PaginatedResult[entity.Customer]{Items: customers, Pagination: pag}, nil
}

func (s *CustomerService) enqueuePush(ctx context.Context, customer *entity.Customer, op string) error {
	payload, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, &entity.PushMutation{
		Entity:   appsync.EntityCustomer,
		RecordID: customer.ID,
		Op:       op,
		Payload:  payload,
	}); err != nil {
		return err
	}
	s.notifier.RequestSync()
	return nil
}
