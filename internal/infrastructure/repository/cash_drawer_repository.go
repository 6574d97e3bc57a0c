package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/entity"
	domainRepo "github.com/tillpoint/pos/internal/domain/repository"
	"github.com/tillpoint/pos/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cashDrawerRepository struct {
	db *gorm.DB
}

// NewCashDrawerRepository creates a new cash drawer repository
func NewCashDrawerRepository(db *gorm.DB) domainRepo.CashDrawerRepository {
	return &cashDrawerRepository{db: db}
}

// OpenShift inserts the open transaction after checking no shift is already
// open, both inside one transaction so two registers racing the button
// cannot both win.
func (r *cashDrawerRepository) OpenShift(ctx context.Context, shift *entity.CashDrawerTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open entity.CashDrawerTransaction
		err := tx.Scopes(LocationScope(ctx)).
			Where("ended_at IS NULL").
			First(&open).Error
		if err == nil {
			return apperror.NewConflictError("A shift is already open on this device")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(shift).Error
	})
}

func (r *cashDrawerRepository) CloseShift(ctx context.Context, shift *entity.CashDrawerTransaction) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *cashDrawerRepository) CurrentOpen(ctx context.Context) (*entity.CashDrawerTransaction, error) {
	var shift entity.CashDrawerTransaction
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).
		Where("ended_at IS NULL").
		Order("started_at DESC").
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *cashDrawerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashDrawerTransaction, error) {
	var shift entity.CashDrawerTransaction
	err := r.db.WithContext(ctx).Scopes(LocationScope(ctx)).First(&shift, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *cashDrawerRepository) List(ctx context.Context, params *domainRepo.ShiftFilterParams) ([]entity.CashDrawerTransaction, int64, error) {
	var shifts []entity.CashDrawerTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CashDrawerTransaction{}).Scopes(LocationScope(ctx))

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.StartDate != nil {
		query = query.Where("started_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("started_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("started_at DESC").
		Find(&shifts).Error

	return shifts, total, err
}

func (r *cashDrawerRepository) Upsert(ctx context.Context, shifts []entity.CashDrawerTransaction) error {
	if len(shifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&shifts).Error
}
