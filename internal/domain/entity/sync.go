package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncCursor stores the per-entity "last synced at" watermark bounding pull
// queries. It is read before each pull and advanced in the same transaction
// that writes the page, so a failed page write never moves it.
type SyncCursor struct {
	Entity       string    `gorm:"primaryKey;size:100" json:"entity"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for the SyncCursor model
func (SyncCursor) TableName() string {
	return "sync_cursors"
}

// PushMutation is a queued local write awaiting push to the remote API.
// A failed push leaves the row queued with its error recorded; it never
// advances any cursor.
type PushMutation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Entity    string         `gorm:"size:100;not null;index" json:"entity"`
	Op        string         `gorm:"size:20;not null" json:"op"`
	RecordID  uuid.UUID      `gorm:"type:uuid;not null" json:"record_id"`
	Payload   datatypes.JSON `gorm:"type:text;not null" json:"payload"`
	Attempts  int            `gorm:"default:0" json:"attempts"`
	LastError string         `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new push mutation
func (m *PushMutation) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PushMutation model
func (PushMutation) TableName() string {
	return "push_mutations"
}
