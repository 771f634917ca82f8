package vetting

import (
	"context"
	"errors"
	"strings"

	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// approveAttempts bounds retries of the approve transaction before the
// failure is surfaced as ErrIntegrity.
const approveAttempts = 3

// Service is the broker vetting machine. Transitions are invoked only by the
// moderation coordinator, which has already authorized the actor.
type Service struct {
	DB *gorm.DB
}

// ApplyInput carries the applicant profile.
type ApplyInput struct {
	AccountID     uuid.UUID
	AgencyName    string
	ContactPhone  string
	LicenseNumber string
}

// Apply files a new application in status pending. An account may hold at
// most one pending application at a time.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*domain.BrokerApplication, error) {
	if strings.TrimSpace(in.AgencyName) == "" {
		return nil, errors.New("Agency name is required")
	}
	if strings.TrimSpace(in.ContactPhone) == "" {
		return nil, errors.New("Contact phone is required")
	}
	if strings.TrimSpace(in.LicenseNumber) == "" {
		return nil, errors.New("License number is required")
	}
	var existing domain.BrokerApplication
	err := s.DB.WithContext(ctx).
		Where("account_id = ? AND status = ?", in.AccountID, domain.ApplicationPending).
		First(&existing).Error
	if err == nil {
		return nil, ErrPendingExists
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	app := &domain.BrokerApplication{
		AccountID:     in.AccountID,
		AgencyName:    strings.TrimSpace(in.AgencyName),
		ContactPhone:  strings.TrimSpace(in.ContactPhone),
		LicenseNumber: strings.TrimSpace(in.LicenseNumber),
		Status:        domain.ApplicationPending,
	}
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// FindByID returns the application.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.BrokerApplication, error) {
	var app domain.BrokerApplication
	if err := s.DB.WithContext(ctx).Where("application_id = ?", id).First(&app).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindByAccount returns the account's most recent application.
func (s *Service) FindByAccount(ctx context.Context, accountID uuid.UUID) (*domain.BrokerApplication, error) {
	var app domain.BrokerApplication
	err := s.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// ListByStatus returns applications in the status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.BrokerApplication, error) {
	var apps []domain.BrokerApplication
	if err := s.DB.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Approve transitions pending -> approved and elevates the owning account to
// broker as one transaction. A second approve (or approve after reject)
// observes the finalized status and fails with ErrAlreadyFinalized. The
// transaction is retried a bounded number of times on transient failure so
// the application is never left approved without the role change.
func (s *Service) Approve(ctx context.Context, applicationID uuid.UUID) (*domain.BrokerApplication, error) {
	var app *domain.BrokerApplication
	var lastErr error
	for attempt := 0; attempt < approveAttempts; attempt++ {
		app, lastErr = s.approveOnce(ctx, applicationID)
		if lastErr == nil || lastErr == ErrApplicationNotFound || lastErr == ErrAlreadyFinalized {
			return app, lastErr
		}
	}
	return nil, ErrIntegrity
}

func (s *Service) approveOnce(ctx context.Context, applicationID uuid.UUID) (*domain.BrokerApplication, error) {
	var app domain.BrokerApplication
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", applicationID).First(&app).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrApplicationNotFound
			}
			return err
		}
		res := tx.Model(&domain.BrokerApplication{}).
			Where("application_id = ? AND status = ?", applicationID, domain.ApplicationPending).
			Update("status", domain.ApplicationApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyFinalized
		}
		roleRes := tx.Model(&domain.Account{}).
			Where("account_id = ?", app.AccountID).
			Update("role", constants.Broker)
		if roleRes.Error != nil {
			return roleRes.Error
		}
		if roleRes.RowsAffected == 0 {
			return ErrIntegrity
		}
		app.Status = domain.ApplicationApproved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Reject transitions pending -> rejected and records the reason. Does not
// touch the account role.
func (s *Service) Reject(ctx context.Context, applicationID uuid.UUID, reason string) (*domain.BrokerApplication, error) {
	var app domain.BrokerApplication
	if err := s.DB.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	res := s.DB.WithContext(ctx).Model(&domain.BrokerApplication{}).
		Where("application_id = ? AND status = ?", applicationID, domain.ApplicationPending).
		Updates(map[string]interface{}{"status": domain.ApplicationRejected, "reject_reason": reason})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyFinalized
	}
	app.Status = domain.ApplicationRejected
	app.RejectReason = reason
	return &app, nil
}

// BulkFailure records one failed item of a bulk operation.
type BulkFailure struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Error         string    `json:"error"`
}

// BulkResult is the partial-success result of a bulk operation.
type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// RejectAllPending rejects every pending application with the given reason,
// continuing past individual failures.
func (s *Service) RejectAllPending(ctx context.Context, reason string) (*BulkResult, error) {
	apps, err := s.ListByStatus(ctx, domain.ApplicationPending)
	if err != nil {
		return nil, err
	}
	result := &BulkResult{Failed: []BulkFailure{}}
	for _, app := range apps {
		if _, err := s.Reject(ctx, app.ApplicationID, reason); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ApplicationID: app.ApplicationID, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// DeleteAllRejected deletes every rejected application, continuing past
// individual failures. Deleting an application never demotes an already
// elevated account.
func (s *Service) DeleteAllRejected(ctx context.Context) (*BulkResult, error) {
	apps, err := s.ListByStatus(ctx, domain.ApplicationRejected)
	if err != nil {
		return nil, err
	}
	result := &BulkResult{Failed: []BulkFailure{}}
	for _, app := range apps {
		if err := s.DB.WithContext(ctx).Where("application_id = ?", app.ApplicationID).Delete(&domain.BrokerApplication{}).Error; err != nil {
			result.Failed = append(result.Failed, BulkFailure{ApplicationID: app.ApplicationID, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// Delete removes a single application regardless of status.
func (s *Service) Delete(ctx context.Context, applicationID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("application_id = ?", applicationID).Delete(&domain.BrokerApplication{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
