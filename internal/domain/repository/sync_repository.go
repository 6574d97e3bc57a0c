package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
)

// SyncCursorRepository defines cursor reads and writes. Advance must be
// callable inside the transaction that writes the page it covers.
type SyncCursorRepository interface {
	Get(ctx context.Context, entityName string) (time.Time, error)
	Advance(ctx context.Context, entityName string, to time.Time) error
}

// PushQueueRepository defines the queue of local mutations awaiting push
type PushQueueRepository interface {
	Enqueue(ctx context.Context, m *entity.PushMutation) error
	Pending(ctx context.Context, limit int) ([]entity.PushMutation, error)
	MarkFailed(ctx context.Context, id uuid.UUID, pushErr string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
