package moderation

import (
	"context"
	"fmt"

	"propmarket-backend/internal/application/accounts"
	"propmarket-backend/internal/application/audit"
	"propmarket-backend/internal/application/listings"
	"propmarket-backend/internal/application/payments"
	"propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// listingUpdateAttempts bounds retries of the side-effecting listing
// transition after a payment finalization.
const listingUpdateAttempts = 3

// Service is the moderation coordinator: the only component that moves
// listings into approved/rejected/sold, the only caller of broker application
// transitions, and the writer of the audit trail. Every operation re-resolves
// the actor's role from the credential store before mutating anything.
type Service struct {
	Accounts *accounts.Service
	Listings *listings.Service
	Payments *payments.Service
	Vetting  *vetting.Service
	Audit    *audit.Service
}

// resolveActor loads the actor and checks the action against the
// authorization table. Stale token claims never reach this point with any
// weight: the role comes from the store at call time.
func (s *Service) resolveActor(ctx context.Context, actorID uuid.UUID, action string) (*domain.Account, error) {
	actor, err := s.Accounts.FindByID(ctx, actorID)
	if err != nil {
		if err == accounts.ErrAccountNotFound {
			return nil, ErrActorNotFound
		}
		return nil, err
	}
	if !constants.CanPerform(actor.Role, action) {
		return nil, ErrForbidden
	}
	return actor, nil
}

// ConfirmPayment finalizes the obligation as confirmed and approves the
// associated listing. The obligation flip is the serialization point: a
// concurrent confirm/reject loses there with ErrAlreadyFinalized and no side
// effects run twice.
func (s *Service) ConfirmPayment(ctx context.Context, actorID, paymentID uuid.UUID, notes string) (*domain.PaymentObligation, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.ConfirmPayment); err != nil {
		return nil, err
	}
	p, err := s.Payments.Finalize(ctx, paymentID, domain.PaymentConfirmed, notes)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.ConfirmPayment,
		TargetType: domain.TargetPayment,
		TargetID:   p.PaymentID,
		Details:    notes,
	})
	s.transitionAfterPayment(ctx, actorID, p, domain.ListingApproved, constants.ApproveListing, "approved via payment confirmation")
	return p, nil
}

// RejectPayment finalizes the obligation as rejected and rejects the listing.
func (s *Service) RejectPayment(ctx context.Context, actorID, paymentID uuid.UUID, notes string) (*domain.PaymentObligation, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.RejectPayment); err != nil {
		return nil, err
	}
	p, err := s.Payments.Finalize(ctx, paymentID, domain.PaymentRejected, notes)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.RejectPayment,
		TargetType: domain.TargetPayment,
		TargetID:   p.PaymentID,
		Details:    notes,
	})
	s.transitionAfterPayment(ctx, actorID, p, domain.ListingRejected, constants.RejectListing, "rejected via payment rejection")
	return p, nil
}

// transitionAfterPayment moves the listing out of pending_payment after its
// obligation was finalized. The payment is already committed, so a failure
// here may not roll it back; it is retried and, if it still fails, reported
// to the operational channel so the orphan is observable.
func (s *Service) transitionAfterPayment(ctx context.Context, actorID uuid.UUID, p *domain.PaymentObligation, toStatus, action, details string) {
	var err error
	for attempt := 0; attempt < listingUpdateAttempts; attempt++ {
		err = s.Listings.UpdateStatus(ctx, p.ListingID, domain.ListingPendingPayment, toStatus)
		if err == nil || err == gorm.ErrRecordNotFound {
			break
		}
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("listing_id", p.ListingID.String()).
			Str("payment_id", p.PaymentID.String()).
			Str("to_status", toStatus).
			Msg("listing transition after payment finalization failed")
		s.appendAudit(ctx, audit.Entry{
			ActorID:    actorID,
			Action:     action,
			TargetType: domain.TargetListing,
			TargetID:   p.ListingID,
			Details:    "listing transition failed after payment finalization",
			Context: map[string]interface{}{
				"payment_id":     p.PaymentID,
				"payment_status": p.Status,
				"error":          err.Error(),
			},
		})
		return
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		TargetType: domain.TargetListing,
		TargetID:   p.ListingID,
		Details:    details,
		Context:    map[string]interface{}{"payment_id": p.PaymentID},
	})
}

// ApproveListing is the direct admin path, bypassing payment. A still-open
// obligation is left as found (orphaned); the audit entry records its state
// so the inconsistency stays observable.
func (s *Service) ApproveListing(ctx context.Context, actorID, listingID uuid.UUID) (*domain.Listing, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.ApproveListing); err != nil {
		return nil, err
	}
	listing, err := s.Listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingPendingPayment && listing.Status != domain.ListingPending {
		return nil, ErrInvalidTransition
	}
	if err := s.Listings.UpdateStatus(ctx, listingID, listing.Status, domain.ListingApproved); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	auditCtx := map[string]interface{}{"path": "direct"}
	if p, perr := s.Payments.FindByListing(ctx, listingID); perr == nil && p.Status != domain.PaymentConfirmed {
		auditCtx["orphaned_payment_id"] = p.PaymentID
		auditCtx["orphaned_payment_status"] = p.Status
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.ApproveListing,
		TargetType: domain.TargetListing,
		TargetID:   listingID,
		Details:    "approved directly by admin",
		Context:    auditCtx,
	})
	listing.Status = domain.ListingApproved
	return listing, nil
}

// RejectListing is the direct admin reject for pending or pending_payment
// listings.
func (s *Service) RejectListing(ctx context.Context, actorID, listingID uuid.UUID, reason string) (*domain.Listing, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.RejectListing); err != nil {
		return nil, err
	}
	listing, err := s.Listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingPendingPayment && listing.Status != domain.ListingPending {
		return nil, ErrInvalidTransition
	}
	if err := s.Listings.UpdateStatus(ctx, listingID, listing.Status, domain.ListingRejected); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.RejectListing,
		TargetType: domain.TargetListing,
		TargetID:   listingID,
		Details:    reason,
	})
	listing.Status = domain.ListingRejected
	return listing, nil
}

// MarkSold moves an approved listing to sold. Allowed for an admin or for
// the listing owner.
func (s *Service) MarkSold(ctx context.Context, actorID, listingID uuid.UUID) (*domain.Listing, error) {
	actor, err := s.resolveActor(ctx, actorID, constants.MarkListingSold)
	if err != nil {
		return nil, err
	}
	listing, err := s.Listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != constants.Admin {
		if listing.OwnerID == nil || *listing.OwnerID != actorID {
			return nil, ErrForbidden
		}
	}
	if listing.Status != domain.ListingApproved {
		return nil, ErrListingNotSellable
	}
	if err := s.Listings.UpdateStatus(ctx, listingID, domain.ListingApproved, domain.ListingSold); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrListingNotSellable
		}
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.MarkListingSold,
		TargetType: domain.TargetListing,
		TargetID:   listingID,
	})
	listing.Status = domain.ListingSold
	return listing, nil
}

// DeleteListing removes any listing that is not sold. A rejected record is
// still deletable.
func (s *Service) DeleteListing(ctx context.Context, actorID, listingID uuid.UUID) error {
	if _, err := s.resolveActor(ctx, actorID, constants.DeleteListing); err != nil {
		return err
	}
	listing, err := s.Listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status == domain.ListingSold {
		return ErrInvalidTransition
	}
	if err := s.Listings.Delete(ctx, listingID); err != nil {
		return err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.DeleteListing,
		TargetType: domain.TargetListing,
		TargetID:   listingID,
		Details:    fmt.Sprintf("deleted in status %s", listing.Status),
	})
	return nil
}

// ApproveApplication approves the broker application and elevates the owning
// account, then records both outcomes.
func (s *Service) ApproveApplication(ctx context.Context, actorID, applicationID uuid.UUID) (*domain.BrokerApplication, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.ApproveApplication); err != nil {
		return nil, err
	}
	app, err := s.Vetting.Approve(ctx, applicationID)
	if err != nil {
		if err == vetting.ErrIntegrity {
			// The invariant of approval-with-role-elevation could not be
			// restored; leave a forensic record before surfacing it.
			entry := audit.Entry{
				ActorID:    actorID,
				Action:     constants.ApproveApplication,
				TargetType: domain.TargetAccount,
				Details:    "application approval failed to elevate account role",
				Context:    map[string]interface{}{"application_id": applicationID},
			}
			if app, ferr := s.Vetting.FindByID(ctx, applicationID); ferr == nil {
				entry.TargetID = app.AccountID
			}
			s.appendAudit(ctx, entry)
		}
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.ApproveApplication,
		TargetType: domain.TargetAccount,
		TargetID:   app.AccountID,
		Details:    "broker application approved, role elevated",
		Context:    map[string]interface{}{"application_id": app.ApplicationID},
	})
	return app, nil
}

// RejectApplication rejects the broker application with a reason. The account
// role is untouched.
func (s *Service) RejectApplication(ctx context.Context, actorID, applicationID uuid.UUID, reason string) (*domain.BrokerApplication, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.RejectApplication); err != nil {
		return nil, err
	}
	app, err := s.Vetting.Reject(ctx, applicationID, reason)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.RejectApplication,
		TargetType: domain.TargetAccount,
		TargetID:   app.AccountID,
		Details:    reason,
		Context:    map[string]interface{}{"application_id": app.ApplicationID},
	})
	return app, nil
}

// RejectAllPendingApplications is the bulk reject; the summary lands in one
// audit entry.
func (s *Service) RejectAllPendingApplications(ctx context.Context, actorID uuid.UUID, reason string) (*vetting.BulkResult, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.RejectApplication); err != nil {
		return nil, err
	}
	result, err := s.Vetting.RejectAllPending(ctx, reason)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.RejectApplication,
		TargetType: domain.TargetAccount,
		TargetID:   actorID,
		Details:    fmt.Sprintf("bulk reject: %d succeeded, %d failed", result.Succeeded, len(result.Failed)),
	})
	return result, nil
}

// DeleteRejectedApplications is the bulk cleanup of rejected applications.
func (s *Service) DeleteRejectedApplications(ctx context.Context, actorID uuid.UUID) (*vetting.BulkResult, error) {
	if _, err := s.resolveActor(ctx, actorID, constants.DeleteApplications); err != nil {
		return nil, err
	}
	result, err := s.Vetting.DeleteAllRejected(ctx)
	if err != nil {
		return nil, err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.DeleteApplications,
		TargetType: domain.TargetAccount,
		TargetID:   actorID,
		Details:    fmt.Sprintf("bulk delete rejected: %d succeeded, %d failed", result.Succeeded, len(result.Failed)),
	})
	return result, nil
}

// UpdateRole is the direct admin role assignment. Broker is excluded here:
// that elevation only happens through an approved application.
func (s *Service) UpdateRole(ctx context.Context, actorID, targetID uuid.UUID, role string) error {
	if _, err := s.resolveActor(ctx, actorID, constants.AssignRole); err != nil {
		return err
	}
	if role == constants.Broker {
		return ErrBrokerViaVetting
	}
	if err := s.Accounts.UpdateRole(ctx, targetID, role); err != nil {
		return err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.AssignRole,
		TargetType: domain.TargetAccount,
		TargetID:   targetID,
		Details:    fmt.Sprintf("role set to %s", role),
	})
	return nil
}

// RemoveAccount deletes the account (dependent rows first) under last-admin
// protection.
func (s *Service) RemoveAccount(ctx context.Context, actorID, targetID uuid.UUID) error {
	if _, err := s.resolveActor(ctx, actorID, constants.RemoveAccount); err != nil {
		return err
	}
	if err := s.Accounts.Delete(ctx, targetID); err != nil {
		return err
	}
	s.appendAudit(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     constants.RemoveAccount,
		TargetType: domain.TargetAccount,
		TargetID:   targetID,
	})
	return nil
}

// appendAudit is fire-and-forget; Append reports its own failures to the
// operational channel.
func (s *Service) appendAudit(ctx context.Context, e audit.Entry) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Append(ctx, e)
}
