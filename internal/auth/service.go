package auth

import (
	"propmarket-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// AccountFinder abstracts account lookup by handle+password (for production
// GORM or test doubles).
type AccountFinder interface {
	FindByHandleAndPassword(handle, password string) (*domain.Account, error)
}

// GormAccountFinder implements AccountFinder using GORM and bcrypt.
type GormAccountFinder struct{ DB *gorm.DB }

func (g *GormAccountFinder) FindByHandleAndPassword(handle, password string) (*domain.Account, error) {
	return LoginAccount(g.DB, LoginInput{Handle: handle, Password: password})
}

// LoginAccount finds an account by handle and verifies the password.
// bcrypt.CompareHashAndPassword is the constant-time comparison.
func LoginAccount(db *gorm.DB, input LoginInput) (*domain.Account, error) {
	if input.Handle == "" || input.Password == "" {
		return nil, ErrHandlePasswordRequired
	}
	var a domain.Account
	if err := db.Where("handle = ?", input.Handle).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidHandle
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidHandle
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &a, nil
}
