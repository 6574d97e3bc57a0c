package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	domainRepo "github.com/tillpoint/pos/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type syncCursorRepository struct {
	db *gorm.DB
}

// NewSyncCursorRepository creates a new sync cursor repository
func NewSyncCursorRepository(db *gorm.DB) domainRepo.SyncCursorRepository {
	return &syncCursorRepository{db: db}
}

// Get returns the entity's watermark, or the zero time when the entity has
// never been pulled.
func (r *syncCursorRepository) Get(ctx context.Context, entityName string) (time.Time, error) {
	var cursor entity.SyncCursor
	err := r.db.WithContext(ctx).First(&cursor, "entity = ?", entityName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return cursor.LastSyncedAt, nil
}

// Advance moves the watermark forward. Callers pass the page-write
// transaction via context so a failed page never advances the cursor.
func (r *syncCursorRepository) Advance(ctx context.Context, entityName string, to time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_synced_at", "updated_at"}),
	}).Create(&entity.SyncCursor{
		Entity:       entityName,
		LastSyncedAt: to,
		UpdatedAt:    time.Now(),
	}).Error
}

type pushQueueRepository struct {
	db *gorm.DB
}

// NewPushQueueRepository creates a new push queue repository
func NewPushQueueRepository(db *gorm.DB) domainRepo.PushQueueRepository {
	return &pushQueueRepository{db: db}
}

func (r *pushQueueRepository) Enqueue(ctx context.Context, m *entity.PushMutation) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *pushQueueRepository) Pending(ctx context.Context, limit int) ([]entity.PushMutation, error) {
	var mutations []entity.PushMutation
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Find(&mutations).Error
	return mutations, err
}

func (r *pushQueueRepository) MarkFailed(ctx context.Context, id uuid.UUID, pushErr string) error {
	return r.db.WithContext(ctx).Model(&entity.PushMutation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": pushErr,
		}).Error
}

func (r *pushQueueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.PushMutation{}, "id = ?", id).Error
}
