package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
)

// SettingsRepository defines the interface for the per-location
// BillingSettings singleton
type SettingsRepository interface {
	Get(ctx context.Context, locationID uuid.UUID) (*entity.BillingSettings, error)
	Create(ctx context.Context, settings *entity.BillingSettings) error
	Update(ctx context.Context, settings *entity.BillingSettings) error
}
