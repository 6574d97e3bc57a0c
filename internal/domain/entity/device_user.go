package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceUser is a cashier or manager profile pulled from the server and
// cached locally so PIN login works offline. The failed-attempt counter and
// lockout are device-local state and never pushed.
type DeviceUser struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index" json:"location_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;index" json:"email"`
	Role       string    `gorm:"size:50;default:'cashier'" json:"role"`
	PINHash    string    `gorm:"size:255;column:pin_hash" json:"-"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Locked reports whether login is currently refused for this user.
func (u *DeviceUser) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// BeforeCreate generates a UUID before creating a new device user
func (u *DeviceUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DeviceUser model
func (DeviceUser) TableName() string {
	return "device_users"
}
