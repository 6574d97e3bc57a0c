package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
)

// DeviceUserRepository defines the interface for cached cashier profiles
type DeviceUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DeviceUser, error)
	GetByEmail(ctx context.Context, email string) (*entity.DeviceUser, error)
	List(ctx context.Context) ([]entity.DeviceUser, error)
	Upsert(ctx context.Context, users []entity.DeviceUser) error

	// RecordFailedAttempt bumps the counter atomically and returns the new
	// count so the caller can apply the lockout ladder.
	RecordFailedAttempt(ctx context.Context, id uuid.UUID) (attempts int, err error)
	SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error
	ResetFailedAttempts(ctx context.Context, id uuid.UUID) error
}
