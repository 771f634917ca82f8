package payments

import (
	"context"
	"errors"

	"propmarket-backend/internal/config"
	"propmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound  = errors.New("Payment not found")
	ErrAlreadyFinalized = errors.New("Payment already finalized")
	ErrUnknownCategory  = errors.New("No fee configured for this category")
)

// Service is the payment gate. It records fee obligations and lets a human
// finalize them; it never talks to a payment processor. Fees is injected so
// tests can substitute schedules.
type Service struct {
	DB          *gorm.DB
	Fees        config.FeeSchedule
	Destination string
	Contact     string
}

// WithTx returns the service bound to the transaction, keeping the fee
// schedule and transfer details.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	bound := *s
	bound.DB = tx
	return &bound
}

// Instructions tells the submitter where to send the fee and whom to notify
// with proof of payment.
type Instructions struct {
	Destination string  `json:"destination"`
	Contact     string  `json:"contact"`
	Amount      float64 `json:"amount"`
}

// Open creates the obligation for a listing submission in status pending,
// with the amount taken from the fee schedule for the listing category.
func (s *Service) Open(ctx context.Context, listingID uuid.UUID, ownerID *uuid.UUID, category string) (*domain.PaymentObligation, *Instructions, error) {
	amount, ok := s.Fees.AmountFor(category)
	if !ok {
		return nil, nil, ErrUnknownCategory
	}
	p := &domain.PaymentObligation{
		ListingID: listingID,
		OwnerID:   ownerID,
		Category:  category,
		Amount:    amount,
		Status:    domain.PaymentPending,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, nil, err
	}
	return p, &Instructions{Destination: s.Destination, Contact: s.Contact, Amount: amount}, nil
}

// FindByID returns the obligation.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentObligation, error) {
	var p domain.PaymentObligation
	if err := s.DB.WithContext(ctx).Where("payment_id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByListing returns the obligation tied to a listing.
func (s *Service) FindByListing(ctx context.Context, listingID uuid.UUID) (*domain.PaymentObligation, error) {
	var p domain.PaymentObligation
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByStatus returns obligations in the status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.PaymentObligation, error) {
	var ps []domain.PaymentObligation
	if err := s.DB.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

// Finalize moves the obligation from pending to the terminal status. The
// conditional update is the per-row compare-and-swap that serializes a
// concurrent confirm and reject: exactly one caller wins, the other gets
// ErrAlreadyFinalized.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, toStatus, notes string) (*domain.PaymentObligation, error) {
	if toStatus != domain.PaymentConfirmed && toStatus != domain.PaymentRejected {
		return nil, errors.New("Invalid payment status")
	}
	var p domain.PaymentObligation
	if err := s.DB.WithContext(ctx).Where("payment_id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	res := s.DB.WithContext(ctx).Model(&domain.PaymentObligation{}).
		Where("payment_id = ? AND status = ?", id, domain.PaymentPending).
		Updates(map[string]interface{}{"status": toStatus, "admin_notes": notes})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyFinalized
	}
	p.Status = toStatus
	p.AdminNotes = notes
	return &p, nil
}
