package listings

import (
	"context"
	"errors"
	"strings"

	"propmarket-backend/internal/application/payments"
	"propmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrInvalidStatus   = errors.New("Invalid listing status")
)

// Service is the listing record store. Status transitions into approved,
// rejected and sold belong to the moderation coordinator; nothing else calls
// UpdateStatus with those values.
type Service struct {
	DB *gorm.DB
}

// CreateInput carries the descriptive fields of a submission.
type CreateInput struct {
	OwnerID      *uuid.UUID
	Title        string
	Description  string
	Category     string
	PropertyType string
	Price        float64
	City         string
	District     string
	Address      string
	AreaSqm      float64
	Rooms        int
	Channel      string
	GuestContact string
	FeeExempt    bool
}

// Create stores a new listing. Status is pending_payment unless the
// submission is fee-exempt (guest channel), in which case it enters the
// moderation queue directly as pending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Listing, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("Title is required")
	}
	if in.Price <= 0 {
		return nil, errors.New("Price must be positive")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, errors.New("Category is required")
	}
	if strings.TrimSpace(in.City) == "" {
		return nil, errors.New("City is required")
	}
	if in.Channel == domain.ChannelGuest {
		if in.OwnerID != nil {
			return nil, errors.New("Guest submissions cannot carry an owner")
		}
		if strings.TrimSpace(in.GuestContact) == "" {
			return nil, errors.New("Guest submissions require a contact handle")
		}
	} else if in.OwnerID == nil {
		return nil, errors.New("Owner is required for registered submissions")
	}

	status := domain.ListingPendingPayment
	if in.FeeExempt {
		status = domain.ListingPending
	}
	listing := &domain.Listing{
		OwnerID:      in.OwnerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     strings.ToLower(strings.TrimSpace(in.Category)),
		PropertyType: in.PropertyType,
		Price:        in.Price,
		City:         in.City,
		District:     in.District,
		Address:      in.Address,
		AreaSqm:      in.AreaSqm,
		Rooms:        in.Rooms,
		Channel:      in.Channel,
		GuestContact: strings.TrimSpace(in.GuestContact),
		Status:       status,
	}
	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// WithTx returns the service bound to the transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// Submit creates the listing together with its payment obligation in one
// transaction. A fee-exempt submission opens no obligation. An unknown
// category fails the whole unit, so no listing is ever left stranded in
// pending_payment without an obligation to release it.
func (s *Service) Submit(ctx context.Context, in CreateInput, pay *payments.Service) (*domain.Listing, *domain.PaymentObligation, *payments.Instructions, error) {
	var (
		listing      *domain.Listing
		obligation   *domain.PaymentObligation
		instructions *payments.Instructions
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		listing, err = s.WithTx(tx).Create(ctx, in)
		if err != nil {
			return err
		}
		if in.FeeExempt {
			return nil
		}
		obligation, instructions, err = pay.WithTx(tx).Open(ctx, listing.ListingID, listing.OwnerID, listing.Category)
		return err
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return listing, obligation, instructions, nil
}

// FindByID returns the listing.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", id).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// ListByStatus returns listings in the status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.Listing, error) {
	if !domain.IsValidListingStatus(status) {
		return nil, ErrInvalidStatus
	}
	var listings []domain.Listing
	if err := s.DB.WithContext(ctx).Where("status = ?", status).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ListByOwner returns the owner's listings, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ListAll returns every listing, newest first (admin view).
func (s *Service) ListAll(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ListPublic returns approved listings only — the single public read path.
func (s *Service) ListPublic(ctx context.Context) ([]domain.Listing, error) {
	return s.ListByStatus(ctx, domain.ListingApproved)
}

// UpdateStatus moves the listing from one status to another. The conditional
// WHERE serializes concurrent transitions on the same row: the second caller
// sees zero affected rows.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	if !domain.IsValidListingStatus(to) {
		return ErrInvalidStatus
	}
	res := s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Where("listing_id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the listing.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("listing_id = ?", id).Delete(&domain.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}
