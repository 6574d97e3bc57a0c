package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// CompanyIDKey is the context key for the company ID
	CompanyIDKey ctxKey = "company_id"
	// LocationIDKey is the context key for the location ID
	LocationIDKey ctxKey = "location_id"
)

// LocationScope returns a GORM scope that filters by the device's company
// and location. Applied to all queries over synced entities so a device
// re-provisioned to another location never reads stale foreign rows.
// If the location context is missing, the scope fails closed.
func LocationScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		companyID, ok := ctx.Value(CompanyIDKey).(uuid.UUID)
		if !ok {
			// Fail-safe: return no results rather than cross-company data
			return db.Where("1 = 0")
		}
		locationID, ok := ctx.Value(LocationIDKey).(uuid.UUID)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Where("company_id = ? AND location_id = ?", companyID, locationID)
	}
}

// CompanyScope filters by company only, for entities shared across the
// company's locations (categories, products, customers).
func CompanyScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		companyID, ok := ctx.Value(CompanyIDKey).(uuid.UUID)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Where("company_id = ?", companyID)
	}
}

// WithDevice adds the device's company and location IDs to the context
func WithDevice(ctx context.Context, companyID, locationID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, CompanyIDKey, companyID)
	return context.WithValue(ctx, LocationIDKey, locationID)
}

// GetCompanyID extracts the company ID from context
func GetCompanyID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(CompanyIDKey).(uuid.UUID)
	return id, ok
}

// GetLocationID extracts the location ID from context
func GetLocationID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(LocationIDKey).(uuid.UUID)
	return id, ok
}
