package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/pos/internal/domain/enum"
	"gorm.io/gorm"
)

// CashDrawerTransaction records the open or close of a cash drawer shift.
// At most one shift may be open per device; the repository enforces this
// inside a transaction.
type CashDrawerTransaction struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index" json:"location_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	TxType enum.DrawerTxType `gorm:"size:10;not null;index" json:"tx_type"`

	OpeningActual   decimal.Decimal  `gorm:"type:decimal(12,2)" json:"opening_actual"`
	OpeningExpected decimal.Decimal  `gorm:"type:decimal(12,2)" json:"opening_expected"`
	ClosingActual   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"closing_actual,omitempty"`
	ClosingExpected *decimal.Decimal `gorm:"type:decimal(12,2)" json:"closing_expected,omitempty"`
	Difference      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"difference,omitempty"`
	TotalSales      decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_sales"`

	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Source enum.RecordSource `gorm:"size:10;default:'local'" json:"source"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the shift has not been closed yet.
func (t *CashDrawerTransaction) Open() bool {
	return t.EndedAt == nil
}

// BeforeCreate generates a UUID before creating a new transaction
func (t *CashDrawerTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashDrawerTransaction model
func (CashDrawerTransaction) TableName() string {
	return "cash_drawer_transactions"
}
