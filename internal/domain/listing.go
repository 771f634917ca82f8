package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing statuses. pending_payment is the normal entry state; pending is
// reachable only through the fee-exempt guest channel. Only approved listings
// are publicly visible.
const (
	ListingPendingPayment = "pending_payment"
	ListingPending        = "pending"
	ListingApproved       = "approved"
	ListingRejected       = "rejected"
	ListingSold           = "sold"
)

// Submission channels.
const (
	ChannelRegistered = "registered"
	ChannelBroker     = "broker"
	ChannelGuest      = "guest"
)

// Listing is a submitted property record subject to the moderation state
// machine. OwnerID is nil for guest submissions; GuestContact then carries
// the submitter's contact handle.
type Listing struct {
	ListingID    uuid.UUID      `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	OwnerID      *uuid.UUID     `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	Category     string         `gorm:"column:category;not null" json:"category"`
	PropertyType string         `gorm:"column:property_type;not null" json:"property_type"`
	Price        float64        `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	City         string         `gorm:"column:city;not null" json:"city"`
	District     string         `gorm:"column:district" json:"district"`
	Address      string         `gorm:"column:address" json:"address"`
	AreaSqm      float64        `gorm:"column:area_sqm;type:decimal(10,2)" json:"area_sqm"`
	Rooms        int            `gorm:"column:rooms" json:"rooms"`
	Channel      string         `gorm:"column:channel;type:varchar(20);not null" json:"channel"`
	GuestContact string         `gorm:"column:guest_contact" json:"guest_contact,omitempty"`
	Status       string         `gorm:"column:status;type:varchar(20);not null;default:'pending_payment'" json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Listing) TableName() string {
	return "Listings"
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}

// IsValidListingStatus reports whether s is a known listing status.
func IsValidListingStatus(s string) bool {
	switch s {
	case ListingPendingPayment, ListingPending, ListingApproved, ListingRejected, ListingSold:
		return true
	}
	return false
}
