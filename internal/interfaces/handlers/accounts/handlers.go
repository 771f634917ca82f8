package accounts

import (
	acctsvc "propmarket-backend/internal/application/accounts"
	modsvc "propmarket-backend/internal/application/moderation"
	vetsvc "propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for account endpoints.
type Handlers struct {
	Accounts   *acctsvc.Service
	Vetting    *vetsvc.Service
	Moderation *modsvc.Service
}

// RegisterRequest body for plain registration.
type RegisterRequest struct {
	Handle   string `json:"handle"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Register POST /api/v1/accounts/register — create a user account.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	account, err := h.Accounts.Create(c.Context(), acctsvc.CreateInput{
		Handle:   req.Handle,
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		if err == acctsvc.ErrDuplicateIdentity {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Account created successfully", account, nil)
}

// RegisterBrokerRequest adds the applicant profile to registration.
type RegisterBrokerRequest struct {
	RegisterRequest
	AgencyName    string `json:"agency_name"`
	ContactPhone  string `json:"contact_phone"`
	LicenseNumber string `json:"license_number"`
}

// RegisterBroker POST /api/v1/accounts/register-broker — create a user
// account plus a pending broker application. The role stays "user" until an
// admin approves the application.
func (h *Handlers) RegisterBroker(c *fiber.Ctx) error {
	var req RegisterBrokerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	account, err := h.Accounts.Create(c.Context(), acctsvc.CreateInput{
		Handle:   req.Handle,
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		if err == acctsvc.ErrDuplicateIdentity {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	app, err := h.Vetting.Apply(c.Context(), vetsvc.ApplyInput{
		AccountID:     account.AccountID,
		AgencyName:    req.AgencyName,
		ContactPhone:  req.ContactPhone,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Broker registration submitted", fiber.Map{
		"account":     account,
		"application": app,
	}, nil)
}

// UpdatePasswordRequest body.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword PATCH /api/v1/accounts/update-password — self service.
func (h *Handlers) UpdatePassword(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.Accounts.UpdatePassword(c.Context(), actor.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Password updated successfully", nil, nil)
}

// UpdateRoleRequest body.
type UpdateRoleRequest struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

// UpdateRole PATCH /api/v1/accounts/update-role — admin role assignment via
// the moderation coordinator (broker excluded there).
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	targetID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return response.Error(c, "Invalid account_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Moderation.UpdateRole(c.Context(), actor.AccountID, targetID, req.Role); err != nil {
		switch err {
		case modsvc.ErrForbidden:
			return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
		case modsvc.ErrBrokerViaVetting, acctsvc.ErrInvalidRole:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case acctsvc.ErrAccountNotFound:
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Role updated successfully", nil, nil)
}

// RemoveAccountRequest body.
type RemoveAccountRequest struct {
	AccountID string `json:"account_id"`
}

// RemoveAccount DELETE /api/v1/accounts/remove-account — admin delete with
// last-admin protection and cascade of the broker application.
func (h *Handlers) RemoveAccount(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req RemoveAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	targetID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return response.Error(c, "Invalid account_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Moderation.RemoveAccount(c.Context(), actor.AccountID, targetID); err != nil {
		switch err {
		case modsvc.ErrForbidden:
			return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
		case acctsvc.ErrLastAdminProtected:
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		case acctsvc.ErrAccountNotFound:
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Account removed successfully", nil, nil)
}
