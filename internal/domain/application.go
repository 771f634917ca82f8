package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Broker application statuses. pending -> approved | rejected, terminal.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// BrokerApplication is a pending request for role elevation from user to
// broker. Only an admin may transition it; approval elevates the owning
// account's role in the same transaction.
type BrokerApplication struct {
	ApplicationID uuid.UUID `gorm:"column:application_id;type:uuid;primaryKey" json:"application_id"`
	AccountID     uuid.UUID `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	AgencyName    string    `gorm:"column:agency_name;not null" json:"agency_name"`
	ContactPhone  string    `gorm:"column:contact_phone;not null" json:"contact_phone"`
	LicenseNumber string    `gorm:"column:license_number;not null" json:"license_number"`
	Status        string    `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	RejectReason  string    `gorm:"column:reject_reason" json:"reject_reason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (BrokerApplication) TableName() string {
	return "BrokerApplications"
}

func (b *BrokerApplication) BeforeCreate(tx *gorm.DB) error {
	if b.ApplicationID == uuid.Nil {
		b.ApplicationID = uuid.New()
	}
	return nil
}
