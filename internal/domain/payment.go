package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment obligation statuses. confirmed and rejected are terminal; the
// conditional-update guard in the payments service enforces that.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentRejected  = "rejected"
)

// PaymentObligation is the recorded fee claim tied 1:1 to a listing
// submission event. The amount comes from the fee schedule at creation time;
// a human confirms or rejects the claim out-of-band.
type PaymentObligation struct {
	PaymentID  uuid.UUID  `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	ListingID  uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;uniqueIndex" json:"listing_id"`
	OwnerID    *uuid.UUID `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`
	Category   string     `gorm:"column:category;not null" json:"category"`
	Amount     float64    `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status     string     `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	AdminNotes string     `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (PaymentObligation) TableName() string {
	return "PaymentObligations"
}

func (p *PaymentObligation) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}
