package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer represents a customer with wallet and store-credit balances.
// Balances change after every order that redeems wallet or credit funds;
// the mutation happens atomically with the order completion step.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index" json:"location_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      *string   `gorm:"size:255" json:"email,omitempty"`
	Phone      *string   `gorm:"size:50" json:"phone,omitempty"`
	Address    *string   `gorm:"type:text" json:"address,omitempty"`

	CreditAvailable decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_available"`
	CreditUsed      decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_used"`
	CreditBlocked   decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_blocked"`
	Blacklisted     bool            `gorm:"default:false" json:"blacklisted"`
	WalletBalance   decimal.Decimal `gorm:"type:decimal(12,2)" json:"wallet_balance"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Orders []Order `gorm:"foreignKey:CustomerID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
