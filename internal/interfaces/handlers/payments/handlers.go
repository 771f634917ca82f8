package payments

import (
	modsvc "propmarket-backend/internal/application/moderation"
	paysvc "propmarket-backend/internal/application/payments"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/constants"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for payment endpoints.
type Handlers struct {
	Payments   *paysvc.Service
	Moderation *modsvc.Service
}

// FinalizeRequest body for confirm/reject.
type FinalizeRequest struct {
	PaymentID string `json:"payment_id"`
	Notes     string `json:"notes"`
}

// Confirm POST /api/v1/payments/confirm-payment — admin confirms the claimed
// payment; the coordinator approves the listing as a side effect.
func (h *Handlers) Confirm(c *fiber.Ctx) error {
	return h.finalize(c, true)
}

// Reject POST /api/v1/payments/reject-payment
func (h *Handlers) Reject(c *fiber.Ctx) error {
	return h.finalize(c, false)
}

func (h *Handlers) finalize(c *fiber.Ctx, confirm bool) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req FinalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return response.Error(c, "Invalid payment_id format", fiber.StatusBadRequest, nil)
	}
	var payment *domain.PaymentObligation
	if confirm {
		payment, err = h.Moderation.ConfirmPayment(c.Context(), actor.AccountID, paymentID, req.Notes)
	} else {
		payment, err = h.Moderation.RejectPayment(c.Context(), actor.AccountID, paymentID, req.Notes)
	}
	if err != nil {
		switch err {
		case modsvc.ErrForbidden:
			return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
		case paysvc.ErrPaymentNotFound:
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		case paysvc.ErrAlreadyFinalized:
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	message := "Payment confirmed successfully"
	if !confirm {
		message = "Payment rejected successfully"
	}
	return response.Success(c, message, payment, nil)
}

// GetByID GET /api/v1/payments/get-payment/:payment_id — owner or admin.
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	paymentID, err := uuid.Parse(c.Params("payment_id"))
	if err != nil {
		return response.Error(c, "Invalid payment_id format", fiber.StatusBadRequest, nil)
	}
	payment, err := h.Payments.FindByID(c.Context(), paymentID)
	if err != nil {
		if err == paysvc.ErrPaymentNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if actor.Role != constants.Admin {
		if payment.OwnerID == nil || *payment.OwnerID != actor.AccountID {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
	}
	return response.Success(c, "Payment fetched successfully", payment, nil)
}

// GetPending GET /api/v1/payments/get-pending-payments — admin review queue.
func (h *Handlers) GetPending(c *fiber.Ctx) error {
	data, err := h.Payments.ListByStatus(c.Context(), domain.PaymentPending)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Payments fetched successfully", data, nil)
}
