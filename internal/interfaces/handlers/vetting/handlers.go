package vetting

import (
	modsvc "propmarket-backend/internal/application/moderation"
	vetsvc "propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for broker vetting endpoints.
type Handlers struct {
	Vetting    *vetsvc.Service
	Moderation *modsvc.Service
}

// ApplyRequest carries the applicant profile.
type ApplyRequest struct {
	AgencyName    string `json:"agency_name"`
	ContactPhone  string `json:"contact_phone"`
	LicenseNumber string `json:"license_number"`
}

// Apply POST /api/v1/vetting/apply — an existing account files a broker
// application.
func (h *Handlers) Apply(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	app, err := h.Vetting.Apply(c.Context(), vetsvc.ApplyInput{
		AccountID:     actor.AccountID,
		AgencyName:    req.AgencyName,
		ContactPhone:  req.ContactPhone,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		if err == vetsvc.ErrPendingExists {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Application submitted", app, nil)
}

// GetMine GET /api/v1/vetting/get-my-application
func (h *Handlers) GetMine(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	app, err := h.Vetting.FindByAccount(c.Context(), actor.AccountID)
	if err != nil {
		if err == vetsvc.ErrApplicationNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Application fetched successfully", app, nil)
}

// GetPending GET /api/v1/vetting/get-pending-applications — admin queue.
func (h *Handlers) GetPending(c *fiber.Ctx) error {
	apps, err := h.Vetting.ListByStatus(c.Context(), domain.ApplicationPending)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Applications fetched successfully", apps, nil)
}

// DecisionRequest body for approve/reject.
type DecisionRequest struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
}

// Approve POST /api/v1/vetting/approve-application
func (h *Handlers) Approve(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return response.Error(c, "Invalid application_id format", fiber.StatusBadRequest, nil)
	}
	app, err := h.Moderation.ApproveApplication(c.Context(), actor.AccountID, appID)
	if err != nil {
		return vettingError(c, err)
	}
	return response.Success(c, "Application approved", app, nil)
}

// Reject POST /api/v1/vetting/reject-application
func (h *Handlers) Reject(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return response.Error(c, "Invalid application_id format", fiber.StatusBadRequest, nil)
	}
	app, err := h.Moderation.RejectApplication(c.Context(), actor.AccountID, appID, req.Reason)
	if err != nil {
		return vettingError(c, err)
	}
	return response.Success(c, "Application rejected", app, nil)
}

// BulkRejectRequest body.
type BulkRejectRequest struct {
	Reason string `json:"reason"`
}

// RejectAllPending POST /api/v1/vetting/reject-all-pending — bulk, partial
// success reported per item.
func (h *Handlers) RejectAllPending(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req BulkRejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := h.Moderation.RejectAllPendingApplications(c.Context(), actor.AccountID, req.Reason)
	if err != nil {
		return vettingError(c, err)
	}
	return response.Success(c, "Bulk reject completed", result, nil)
}

// DeleteRejected DELETE /api/v1/vetting/delete-rejected — bulk cleanup.
func (h *Handlers) DeleteRejected(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	result, err := h.Moderation.DeleteRejectedApplications(c.Context(), actor.AccountID)
	if err != nil {
		return vettingError(c, err)
	}
	return response.Success(c, "Bulk delete completed", result, nil)
}

func vettingError(c *fiber.Ctx, err error) error {
	switch err {
	case modsvc.ErrForbidden:
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case vetsvc.ErrApplicationNotFound:
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case vetsvc.ErrAlreadyFinalized:
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case vetsvc.ErrIntegrity:
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	default:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
