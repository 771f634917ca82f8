package moderation

import (
	"context"
	"encoding/json"
	"testing"

	"propmarket-backend/internal/application/accounts"
	"propmarket-backend/internal/application/audit"
	"propmarket-backend/internal/application/listings"
	"propmarket-backend/internal/application/payments"
	"propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/config"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupModerationTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Listing{},
		&domain.PaymentObligation{},
		&domain.BrokerApplication{},
		&domain.AuditEntry{},
	))
	svc := &Service{
		Accounts: &accounts.Service{DB: db},
		Listings: &listings.Service{DB: db},
		Payments: &payments.Service{
			DB:          db,
			Fees:        config.FeeSchedule{"sale": 50, "rent": 25},
			Destination: "KZ00 0000 0000 0000",
			Contact:     "@propmarket_support",
		},
		Vetting: &vetting.Service{DB: db},
		Audit:   &audit.Service{DB: db},
	}
	return svc, db
}

func seedAccount(t *testing.T, db *gorm.DB, handle, role string) *domain.Account {
	a := &domain.Account{
		Handle:       handle,
		Fullname:     "Test User",
		Email:        handle + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// submitListing creates a listing in pending_payment with its obligation,
// the same shape a registered submission produces.
func submitListing(t *testing.T, svc *Service, owner *domain.Account) (*domain.Listing, *domain.PaymentObligation) {
	listing, err := svc.Listings.Create(context.Background(), listings.CreateInput{
		OwnerID:  &owner.AccountID,
		Title:    "2-room apartment near Botanical Garden",
		Category: "sale",
		Price:    42000000,
		City:     "Almaty",
		Channel:  domain.ChannelRegistered,
	})
	require.NoError(t, err)
	p, _, err := svc.Payments.Open(context.Background(), listing.ListingID, listing.OwnerID, listing.Category)
	require.NoError(t, err)
	return listing, p
}

func auditEntries(t *testing.T, db *gorm.DB, targetID uuid.UUID) []domain.AuditEntry {
	var entries []domain.AuditEntry
	require.NoError(t, db.Where("target_id = ?", targetID).Order("created_at ASC").Find(&entries).Error)
	return entries
}

func TestSubmission_OpensObligationFromFeeSchedule(t *testing.T) {
	svc, _ := setupModerationTest(t)
	owner := seedAccount(t, svc.Accounts.DB, "aruzhan", constants.User)

	listing, p := submitListing(t, svc, owner)
	assert.Equal(t, domain.ListingPendingPayment, listing.Status)
	assert.Equal(t, 50.0, p.Amount)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, listing.ListingID, p.ListingID)
}

func TestConfirmPayment_ApprovesListing(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, p := submitListing(t, svc, owner)

	confirmed, err := svc.ConfirmPayment(context.Background(), admin.AccountID, p.PaymentID, "bank ref 4421")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentConfirmed, confirmed.Status)

	got, err := svc.Listings.FindByID(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingApproved, got.Status)

	// one entry for the payment, one for the listing transition
	paymentTrail := auditEntries(t, db, p.PaymentID)
	require.Len(t, paymentTrail, 1)
	assert.Equal(t, constants.ConfirmPayment, paymentTrail[0].Action)
	assert.Equal(t, admin.AccountID, paymentTrail[0].ActorID)

	listingTrail := auditEntries(t, db, listing.ListingID)
	require.Len(t, listingTrail, 1)
	assert.Equal(t, constants.ApproveListing, listingTrail[0].Action)

	var ctx map[string]interface{}
	require.NoError(t, json.Unmarshal(listingTrail[0].Context, &ctx))
	assert.Equal(t, p.PaymentID.String(), ctx["payment_id"])
}

func TestConfirmPayment_SecondConfirmIsIdempotentFailure(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, p := submitListing(t, svc, owner)

	_, err := svc.ConfirmPayment(context.Background(), admin.AccountID, p.PaymentID, "")
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), admin.AccountID, p.PaymentID, "")
	assert.Equal(t, payments.ErrAlreadyFinalized, err)

	// no second transition, no duplicate audit entries
	got, err := svc.Listings.FindByID(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingApproved, got.Status)
	assert.Len(t, auditEntries(t, db, p.PaymentID), 1)
	assert.Len(t, auditEntries(t, db, listing.ListingID), 1)
}

func TestRejectPayment_RejectsListing(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, p := submitListing(t, svc, owner)

	rejected, err := svc.RejectPayment(context.Background(), admin.AccountID, p.PaymentID, "no transfer found")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRejected, rejected.Status)

	got, err := svc.Listings.FindByID(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingRejected, got.Status)
}

func TestConfirmPayment_RoleComesFromStore(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	demoted := seedAccount(t, db, "ex-admin", constants.Admin)
	_, p := submitListing(t, svc, owner)

	// demotion lands between authentication and the call
	require.NoError(t, svc.Accounts.UpdateRole(context.Background(), demoted.AccountID, constants.User))

	_, err := svc.ConfirmPayment(context.Background(), demoted.AccountID, p.PaymentID, "")
	assert.Equal(t, ErrForbidden, err)

	got, err := svc.Payments.FindByID(context.Background(), p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)
}

func TestConfirmPayment_DeletedActor(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	_, p := submitListing(t, svc, owner)

	_, err := svc.ConfirmPayment(context.Background(), uuid.New(), p.PaymentID, "")
	assert.Equal(t, ErrActorNotFound, err)
}

func TestApproveListing_DirectPathRecordsOrphanedObligation(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, p := submitListing(t, svc, owner)

	approved, err := svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingApproved, approved.Status)

	// the obligation stays as found
	got, err := svc.Payments.FindByID(context.Background(), p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)

	trail := auditEntries(t, db, listing.ListingID)
	require.Len(t, trail, 1)
	var ctx map[string]interface{}
	require.NoError(t, json.Unmarshal(trail[0].Context, &ctx))
	assert.Equal(t, "direct", ctx["path"])
	assert.Equal(t, p.PaymentID.String(), ctx["orphaned_payment_id"])
	assert.Equal(t, domain.PaymentPending, ctx["orphaned_payment_status"])
}

func TestApproveListing_NonAdminForbidden(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.Broker)
	listing, _ := submitListing(t, svc, owner)

	_, err := svc.ApproveListing(context.Background(), owner.AccountID, listing.ListingID)
	assert.Equal(t, ErrForbidden, err)
}

func TestApproveListing_AlreadyApproved(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, _ := submitListing(t, svc, owner)

	_, err := svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)

	_, err = svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	assert.Equal(t, ErrInvalidTransition, err)
}

func TestMarkSold_OwnerPath(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, _ := submitListing(t, svc, owner)
	_, err := svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)

	sold, err := svc.MarkSold(context.Background(), owner.AccountID, listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingSold, sold.Status)
}

func TestMarkSold_StrangerForbidden(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	stranger := seedAccount(t, db, "dias", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, _ := submitListing(t, svc, owner)
	_, err := svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)

	_, err = svc.MarkSold(context.Background(), stranger.AccountID, listing.ListingID)
	assert.Equal(t, ErrForbidden, err)
}

func TestMarkSold_NotApproved(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	listing, _ := submitListing(t, svc, owner)

	_, err := svc.MarkSold(context.Background(), owner.AccountID, listing.ListingID)
	assert.Equal(t, ErrListingNotSellable, err)
}

func TestDeleteListing_SoldIsImmutable(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, _ := submitListing(t, svc, owner)
	_, err := svc.ApproveListing(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)
	_, err = svc.MarkSold(context.Background(), admin.AccountID, listing.ListingID)
	require.NoError(t, err)

	err = svc.DeleteListing(context.Background(), admin.AccountID, listing.ListingID)
	assert.Equal(t, ErrInvalidTransition, err)
}

func TestDeleteListing_RejectedIsDeletable(t *testing.T) {
	svc, db := setupModerationTest(t)
	owner := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	listing, _ := submitListing(t, svc, owner)
	_, err := svc.RejectListing(context.Background(), admin.AccountID, listing.ListingID, "duplicate")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteListing(context.Background(), admin.AccountID, listing.ListingID))

	_, err = svc.Listings.FindByID(context.Background(), listing.ListingID)
	assert.Equal(t, listings.ErrListingNotFound, err)
}

func TestApproveApplication_ElevatesAndAudits(t *testing.T) {
	svc, db := setupModerationTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	app, err := svc.Vetting.Apply(context.Background(), vetting.ApplyInput{
		AccountID:     applicant.AccountID,
		AgencyName:    "Astana Realty",
		ContactPhone:  "+77010000000",
		LicenseNumber: "KZ-123",
	})
	require.NoError(t, err)

	approved, err := svc.ApproveApplication(context.Background(), admin.AccountID, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, approved.Status)

	account, err := svc.Accounts.FindByID(context.Background(), applicant.AccountID)
	require.NoError(t, err)
	assert.Equal(t, constants.Broker, account.Role)

	trail := auditEntries(t, db, applicant.AccountID)
	require.Len(t, trail, 1)
	assert.Equal(t, constants.ApproveApplication, trail[0].Action)
	assert.Equal(t, domain.TargetAccount, trail[0].TargetType)
}

func TestApproveApplication_IntegrityFailureTargetsAccount(t *testing.T) {
	svc, db := setupModerationTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	app, err := svc.Vetting.Apply(context.Background(), vetting.ApplyInput{
		AccountID:     applicant.AccountID,
		AgencyName:    "Astana Realty",
		ContactPhone:  "+77010000000",
		LicenseNumber: "KZ-123",
	})
	require.NoError(t, err)

	// the applicant account vanishes before the approval lands
	require.NoError(t, db.Where("account_id = ?", applicant.AccountID).Delete(&domain.Account{}).Error)

	_, err = svc.ApproveApplication(context.Background(), admin.AccountID, app.ApplicationID)
	assert.Equal(t, vetting.ErrIntegrity, err)

	// the forensic record targets the owning account, with the application
	// id in its context
	trail := auditEntries(t, db, applicant.AccountID)
	require.Len(t, trail, 1)
	assert.Equal(t, constants.ApproveApplication, trail[0].Action)
	assert.Equal(t, domain.TargetAccount, trail[0].TargetType)
	var entryCtx map[string]interface{}
	require.NoError(t, json.Unmarshal(trail[0].Context, &entryCtx))
	assert.Equal(t, app.ApplicationID.String(), entryCtx["application_id"])
}

func TestRejectApplication_RecordsReason(t *testing.T) {
	svc, db := setupModerationTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)
	app, err := svc.Vetting.Apply(context.Background(), vetting.ApplyInput{
		AccountID:     applicant.AccountID,
		AgencyName:    "Astana Realty",
		ContactPhone:  "+77010000000",
		LicenseNumber: "KZ-123",
	})
	require.NoError(t, err)

	rejected, err := svc.RejectApplication(context.Background(), admin.AccountID, app.ApplicationID, "incomplete license")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, rejected.Status)
	assert.Equal(t, "incomplete license", rejected.RejectReason)

	account, err := svc.Accounts.FindByID(context.Background(), applicant.AccountID)
	require.NoError(t, err)
	assert.Equal(t, constants.User, account.Role)
}

func TestUpdateRole_BrokerOnlyViaVetting(t *testing.T) {
	svc, db := setupModerationTest(t)
	target := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)

	err := svc.UpdateRole(context.Background(), admin.AccountID, target.AccountID, constants.Broker)
	assert.Equal(t, ErrBrokerViaVetting, err)

	require.NoError(t, svc.UpdateRole(context.Background(), admin.AccountID, target.AccountID, constants.Admin))
	account, err := svc.Accounts.FindByID(context.Background(), target.AccountID)
	require.NoError(t, err)
	assert.Equal(t, constants.Admin, account.Role)
}

func TestRemoveAccount_LastAdmin(t *testing.T) {
	svc, db := setupModerationTest(t)
	admin := seedAccount(t, db, "root", constants.Admin)

	err := svc.RemoveAccount(context.Background(), admin.AccountID, admin.AccountID)
	assert.Equal(t, accounts.ErrLastAdminProtected, err)
}
