package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit target types.
const (
	TargetAccount = "account"
	TargetListing = "listing"
	TargetPayment = "payment"
)

// AuditEntry is an immutable record of a privileged action. Rows are only
// ever inserted; there is no update or delete path.
type AuditEntry struct {
	EntryID    uuid.UUID      `gorm:"column:entry_id;type:uuid;primaryKey" json:"entry_id"`
	ActorID    uuid.UUID      `gorm:"column:actor_id;type:uuid;not null;index" json:"actor_id"`
	Action     string         `gorm:"column:action;type:varchar(40);not null;index" json:"action"`
	TargetType string         `gorm:"column:target_type;type:varchar(20);not null;index" json:"target_type"`
	TargetID   uuid.UUID      `gorm:"column:target_id;type:uuid;not null;index" json:"target_id"`
	Details    string         `gorm:"column:details" json:"details"`
	Context    datatypes.JSON `gorm:"column:context;type:jsonb" json:"context,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

func (AuditEntry) TableName() string {
	return "AuditEntries"
}

func (e *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	return nil
}
