package service

import (
	"context"
	"encoding/json"

	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/domain/entity"
	"github.com/tillpoint/pos/internal/domain/enum"
	"github.com/tillpoint/pos/internal/domain/repository"
	infraRepo "github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/pkg/apperror"
)

// SettingsService manages the per-location billing settings singleton.
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	queue        repository.PushQueueRepository
	notifier     SyncNotifier
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	settingsRepo repository.SettingsRepository,
	queue repository.PushQueueRepository,
	notifier SyncNotifier,
) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		queue:        queue,
		notifier:     notifier,
	}
}

// GetSettings returns the current location's billing settings.
func (s *SettingsService) GetSettings(ctx context.Context) (*entity.BillingSettings, error) {
	locationID, ok := infraRepo.GetLocationID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Device context required")
	}
	settings, err := s.settingsRepo.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, apperror.NewNotFoundError("Billing settings")
	}
	return settings, nil
}

// UpdateSettingsInput represents the updatable settings fields
type UpdateSettingsInput struct {
	Industry                *enum.Industry
	PaymentTypes            []string
	OrderTypes              []string
	CashManagement          *bool
	ReceiptPrintCount       *int
	DiscountCoversModifiers *bool
}

// UpdateSettings edits the singleton in place and queues the new state for
// upload. The row is never recreated.
func (s *SettingsService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*entity.BillingSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if input.Industry != nil {
		if *input.Industry != enum.IndustryRestaurant && *input.Industry != enum.IndustryRetail {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "industry", Message: "Unknown industry"},
			})
		}
		settings.Industry = *input.Industry
	}
	if input.PaymentTypes != nil {
		encoded, err := json.Marshal(input.PaymentTypes)
		if err != nil {
			return nil, err
		}
		settings.PaymentTypes = encoded
	}
	if input.OrderTypes != nil {
		encoded, err := json.Marshal(input.OrderTypes)
		if err != nil {
			return nil, err
		}
		settings.OrderTypes = encoded
	}
	if input.CashManagement != nil {
		settings.CashManagement = *input.CashManagement
	}
	if input.ReceiptPrintCount != nil {
		if *input.ReceiptPrintCount < 1 || *input.ReceiptPrintCount > 5 {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "receipt_print_count", Message: "Receipt print count must be between 1 and 5"},
			})
		}
		settings.ReceiptPrintCount = *input.ReceiptPrintCount
	}
	if input.DiscountCoversModifiers != nil {
		settings.DiscountCoversModifiers = *input.DiscountCoversModifiers
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(settings); err == nil {
		_ = s.queue.Enqueue(ctx, &entity.PushMutation{
			Entity:   appsync.EntitySettings,
			RecordID: settings.ID,
			Op:       "update",
			Payload:  payload,
		})
		s.notifier.RequestSync()
	}

	return settings, nil
}
