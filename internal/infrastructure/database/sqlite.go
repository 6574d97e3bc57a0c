package database

import (
	"context"
	"fmt"
	"log"

	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/domain/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens the embedded record store. Busy timeout and WAL keep the
// single-writer database responsive while the sync loop and the register
// share it.
func NewSQLiteDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite allows one writer at a time; a single open connection avoids
	// SQLITE_BUSY churn between the API and the sync loop.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	log.Println("Successfully opened local record store")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Catalog entities
		&entity.Category{},
		&entity.Product{},

		// CRM entities
		&entity.Customer{},

		// Transaction entities
		&entity.Order{},
		&entity.OrderItem{},
		&entity.PaymentBreakup{},
		&entity.CashDrawerTransaction{},

		// Device entities
		&entity.DeviceUser{},
		&entity.BillingSettings{},

		// System entities
		&entity.SyncCursor{},
		&entity.PushMutation{},
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// WithTx runs fn inside a single transaction. Every multi-record write goes
// through here so a crash mid-sequence leaves no partial state behind.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}
