package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a registered identity. Role moves to "broker" only through an
// approved BrokerApplication referencing this account.
type Account struct {
	AccountID    uuid.UUID      `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Handle       string         `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	Fullname     string         `gorm:"column:fullname;not null" json:"fullname"`
	Email        string         `gorm:"column:email;not null" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Role         string         `gorm:"column:role;not null;default:user" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "Accounts"
}

// BeforeCreate sets the UUID if not set (for DBs without gen_random_uuid).
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
