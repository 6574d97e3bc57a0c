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

type deviceUserRepository struct {
	db *gorm.DB
}

// NewDeviceUserRepository creates a new device user repository
func NewDeviceUserRepository(db *gorm.DB) domainRepo.DeviceUserRepository {
	return &deviceUserRepository{db: db}
}

func (r *deviceUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.DeviceUser, error) {
	var user entity.DeviceUser
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *deviceUserRepository) GetByEmail(ctx context.Context, email string) (*entity.DeviceUser, error) {
	var user entity.DeviceUser
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *deviceUserRepository) List(ctx context.Context) ([]entity.DeviceUser, error) {
	var users []entity.DeviceUser
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

// Upsert writes pulled cashier profiles. Lockout state is device-local, so
// the server payload never overwrites failed_attempts or locked_until.
func (r *deviceUserRepository) Upsert(ctx context.Context, users []entity.DeviceUser) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "location_id", "name", "email", "role", "pin_hash", "updated_at",
		}),
	}).Create(&users).Error
}

// RecordFailedAttempt bumps the counter atomically and reads back the new
// count so the caller can decide whether a lockout tier was reached.
func (r *deviceUserRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.DeviceUser{}).
			Where("id = ?", id).
			Update("failed_attempts", gorm.Expr("failed_attempts + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&entity.DeviceUser{}).
			Where("id = ?", id).
			Pluck("failed_attempts", &attempts).Error
	})
	return attempts, err
}

func (r *deviceUserRepository) SetLockout(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.DeviceUser{}).
		Where("id = ?", id).
		Update("locked_until", until).Error
}

func (r *deviceUserRepository) ResetFailedAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.DeviceUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_attempts": 0,
			"locked_until":    nil,
		}).Error
}
