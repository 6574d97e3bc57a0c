package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/enum"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order represents a sales order, created by the checkout flow or pulled
// from the remote API. Once completed or cancelled it is immutable except
// for refund sub-records.
type Order struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	LocationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"location_id"`
	OrderNo    string           `gorm:"size:100;unique;not null" json:"order_no"`
	OrderType  enum.OrderType   `gorm:"default:0" json:"order_type"`
	Status     enum.OrderStatus `gorm:"default:0;index" json:"status"`
	CashierID  *uuid.UUID       `gorm:"type:uuid;index" json:"cashier_id,omitempty"`
	CustomerID *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	DriverID   *uuid.UUID       `gorm:"type:uuid" json:"driver_id,omitempty"`

	SubTotal       decimal.Decimal    `gorm:"type:decimal(12,2)" json:"sub_total"`
	VatAmount      decimal.Decimal    `gorm:"type:decimal(12,2)" json:"vat_amount"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(12,2)" json:"discount_amount"`
	Total          decimal.Decimal    `gorm:"type:decimal(12,2)" json:"total"`
	PaymentStatus  enum.PaymentStatus `gorm:"default:0" json:"payment_status"`

	Source enum.RecordSource `gorm:"size:10;default:'local';index" json:"source"`

	CreatedAt  time.Time      `json:"created_at"`
	AcceptedAt *time.Time     `json:"accepted_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Customer *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem      `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Breakups []PaymentBreakup `gorm:"foreignKey:OrderID" json:"breakups,omitempty"`
}

// Mutable reports whether items and payments may still change.
func (o *Order) Mutable() bool {
	return !o.Status.IsTerminal()
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Modifier is a per-unit add-on to a line item (e.g. "extra cheese").
// Modifiers are stored as a JSON column on the line item, matching the
// wire format of the remote API.
type Modifier struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid" json:"variant_id,omitempty"`
	Name      string     `gorm:"size:255" json:"name"`
	Quantity  int        `gorm:"not null" json:"quantity"`

	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(5,2)" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`

	Modifiers datatypes.JSON `gorm:"type:text" json:"modifiers,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new order item
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// PaymentBreakup is one tender entry against an order. Total is the amount
// handed over, Change what was returned, so the amount applied to the order
// is Total - Change.
type PaymentBreakup struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	OrderID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider   enum.PaymentProvider `gorm:"size:20;not null" json:"provider"`
	Total      decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"total"`
	Paid       decimal.Decimal      `gorm:"type:decimal(12,2)" json:"paid"`
	Change     decimal.Decimal      `gorm:"type:decimal(12,2)" json:"change"`
	TenderedAt time.Time            `json:"tendered_at"`
	CreatedAt  time.Time            `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment breakup
func (b *PaymentBreakup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentBreakup model
func (PaymentBreakup) TableName() string {
	return "payment_breakups"
}
