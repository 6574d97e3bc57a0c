package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/domain/enum"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BillingSettings is the per-location configuration singleton. It is created
// once on the first successful login and only updated afterwards, never
// recreated.
type BillingSettings struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"location_id"`

	Industry enum.Industry `gorm:"size:20;default:'restaurant'" json:"industry"`

	// PaymentTypes and OrderTypes are stored as JSON-encoded string lists,
	// matching the remote wire format.
	PaymentTypes datatypes.JSON `gorm:"type:text" json:"payment_types"`
	OrderTypes   datatypes.JSON `gorm:"type:text" json:"order_types"`

	CashManagement    bool `gorm:"default:false" json:"cash_management"`
	ReceiptPrintCount int  `gorm:"default:1" json:"receipt_print_count"`

	// DiscountCoversModifiers controls whether cart discounts apply to
	// modifier add-ons or only to the base line amount.
	DiscountCoversModifiers bool `gorm:"default:false" json:"discount_covers_modifiers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating new settings
func (s *BillingSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillingSettings model
func (BillingSettings) TableName() string {
	return "billing_settings"
}
