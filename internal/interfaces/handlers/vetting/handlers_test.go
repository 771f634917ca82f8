package vetting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"propmarket-backend/internal/application/accounts"
	"propmarket-backend/internal/application/audit"
	"propmarket-backend/internal/application/listings"
	modsvc "propmarket-backend/internal/application/moderation"
	"propmarket-backend/internal/application/payments"
	vetsvc "propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupVettingTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Listing{},
		&domain.PaymentObligation{},
		&domain.BrokerApplication{},
		&domain.AuditEntry{},
	))
	vet := &vetsvc.Service{DB: db}
	h := &Handlers{
		Vetting: vet,
		Moderation: &modsvc.Service{
			Accounts: &accounts.Service{DB: db},
			Listings: &listings.Service{DB: db},
			Payments: &payments.Service{DB: db},
			Vetting:  vet,
			Audit:    &audit.Service{DB: db},
		},
	}
	return h, db
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

func asActor(a *domain.Account) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("actor", &middleware.Actor{AccountID: a.AccountID, Handle: a.Handle, Role: a.Role})
		return c.Next()
	}
}

func applyBody() []byte {
	body, _ := json.Marshal(map[string]string{
		"agency_name":    "Astana Realty",
		"contact_phone":  "+77010000000",
		"license_number": "KZ-123",
	})
	return body
}

func TestApply_Success(t *testing.T) {
	h, db := setupVettingTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)

	app := fiber.New()
	app.Post("/apply", asActor(applicant), h.Apply)

	req := httptest.NewRequest("POST", "/apply", bytes.NewReader(applyBody()))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestApply_SecondPendingConflicts(t *testing.T) {
	h, db := setupVettingTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)

	app := fiber.New()
	app.Post("/apply", asActor(applicant), h.Apply)

	req := httptest.NewRequest("POST", "/apply", bytes.NewReader(applyBody()))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	req = httptest.NewRequest("POST", "/apply", bytes.NewReader(applyBody()))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestApprove_ElevatesApplicant(t *testing.T) {
	h, db := setupVettingTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)

	application, err := h.Vetting.Apply(context.Background(), vetsvc.ApplyInput{
		AccountID:     applicant.AccountID,
		AgencyName:    "Astana Realty",
		ContactPhone:  "+77010000000",
		LicenseNumber: "KZ-123",
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/approve-application", asActor(admin), h.Approve)

	body, _ := json.Marshal(map[string]string{"application_id": application.ApplicationID.String()})
	req := httptest.NewRequest("POST", "/approve-application", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var account domain.Account
	require.NoError(t, db.Where("account_id = ?", applicant.AccountID).First(&account).Error)
	assert.Equal(t, constants.Broker, account.Role)

	// second approve hits the finalized application
	req = httptest.NewRequest("POST", "/approve-application", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestReject_RecordsReason(t *testing.T) {
	h, db := setupVettingTest(t)
	applicant := seedAccount(t, db, "aruzhan", constants.User)
	admin := seedAccount(t, db, "root", constants.Admin)

	application, err := h.Vetting.Apply(context.Background(), vetsvc.ApplyInput{
		AccountID:     applicant.AccountID,
		AgencyName:    "Astana Realty",
		ContactPhone:  "+77010000000",
		LicenseNumber: "KZ-123",
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/reject-application", asActor(admin), h.Reject)

	body, _ := json.Marshal(map[string]string{
		"application_id": application.ApplicationID.String(),
		"reason":         "incomplete license",
	})
	req := httptest.NewRequest("POST", "/reject-application", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var got domain.BrokerApplication
	require.NoError(t, db.Where("application_id = ?", application.ApplicationID).First(&got).Error)
	assert.Equal(t, domain.ApplicationRejected, got.Status)
	assert.Equal(t, "incomplete license", got.RejectReason)

	var account domain.Account
	require.NoError(t, db.Where("account_id = ?", applicant.AccountID).First(&account).Error)
	assert.Equal(t, constants.User, account.Role)
}

func TestRejectAllPending_ReportsCounts(t *testing.T) {
	h, db := setupVettingTest(t)
	admin := seedAccount(t, db, "root", constants.Admin)
	for _, handle := range []string{"aruzhan", "dias"} {
		applicant := seedAccount(t, db, handle, constants.User)
		_, err := h.Vetting.Apply(context.Background(), vetsvc.ApplyInput{
			AccountID:     applicant.AccountID,
			AgencyName:    "Astana Realty",
			ContactPhone:  "+77010000000",
			LicenseNumber: "KZ-123",
		})
		require.NoError(t, err)
	}

	app := fiber.New()
	app.Post("/reject-all-pending", asActor(admin), h.RejectAllPending)

	body, _ := json.Marshal(map[string]string{"reason": "registry purge"})
	req := httptest.NewRequest("POST", "/reject-all-pending", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data := result["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["succeeded"])
	assert.Empty(t, data["failed"])
}
