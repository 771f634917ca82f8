package accounts

import (
	"context"
	"errors"
	"strings"

	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/constants"
	"propmarket-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service is the credential store: account records, password hashes, roles.
type Service struct {
	DB *gorm.DB
}

// CreateInput for registration.
type CreateInput struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Create registers a new account with role "user".
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Account, error) {
	if strings.TrimSpace(in.Handle) == "" {
		return nil, errors.New("Handle is required and must be a non-empty string")
	}
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, errors.New("Invalid email format")
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, errors.New("Invalid password format")
	}
	trimmed := strings.TrimSpace(in.Fullname)
	if trimmed == "" {
		return nil, errors.New("Full name is required and must be a non-empty string")
	}
	if !validation.IsValidFullname(trimmed) {
		return nil, errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}

	handle := strings.TrimSpace(in.Handle)
	email := strings.TrimSpace(strings.ToLower(in.Email))

	var existing domain.Account
	if err := s.DB.WithContext(ctx).Where("handle = ?", handle).First(&existing).Error; err == nil {
		return nil, ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}

	a := &domain.Account{
		Handle:       handle,
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     trimmed,
		Role:         constants.User,
	}
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// FindByHandle looks up an account by its unique handle.
func (s *Service) FindByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	var a domain.Account
	if err := s.DB.WithContext(ctx).Where("handle = ?", handle).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByID looks up an account by id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", id).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateRole sets the account's role. GORM's Updates touches updated_at.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	if !constants.IsValidRole(role) {
		return ErrInvalidRole
	}
	res := s.DB.WithContext(ctx).Model(&domain.Account{}).
		Where("account_id = ?", id).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash after verifying the
// current password.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	if newPassword == "" || !validation.IsValidPassword(newPassword) {
		return errors.New("Invalid password format")
	}
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New("Incorrect password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 10)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(a).Update("password_hash", string(hash)).Error
}

// Delete removes the account and its broker application, dependent rows
// first, in one transaction. Deleting the last remaining admin fails with
// ErrLastAdminProtected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Account
		if err := tx.Where("account_id = ?", id).First(&a).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if a.Role == constants.Admin {
			var admins int64
			if err := tx.Model(&domain.Account{}).Where("role = ?", constants.Admin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdminProtected
			}
		}
		if err := tx.Where("account_id = ?", id).Delete(&domain.BrokerApplication{}).Error; err != nil {
			return err
		}
		return tx.Delete(&a).Error
	})
}

// CountByRole returns the number of accounts holding the role.
func (s *Service) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Account{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
