package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category groups products. Categories must be pulled before products.
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Position  int            `gorm:"default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Product is a sellable item pulled from the remote catalog. Variants and
// available modifiers are stored as JSON columns in the remote wire shape.
type Product struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	SKU        string     `gorm:"size:100;index" json:"sku"`

	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(5,2)" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	StockCount      int             `gorm:"default:0" json:"stock_count"`
	TrackStock      bool            `gorm:"default:true" json:"track_stock"`

	Variants  datatypes.JSON `gorm:"type:text" json:"variants,omitempty"`
	Modifiers datatypes.JSON `gorm:"type:text" json:"modifiers,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
