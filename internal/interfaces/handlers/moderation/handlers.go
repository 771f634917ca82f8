package moderation

import (
	"errors"

	listsvc "propmarket-backend/internal/application/listings"
	modsvc "propmarket-backend/internal/application/moderation"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for listing moderation endpoints.
type Handlers struct {
	Moderation *modsvc.Service
}

// ListingRequest body with optional reason.
type ListingRequest struct {
	ListingID string `json:"listing_id"`
	Reason    string `json:"reason"`
}

var (
	errInvalidBody      = errors.New("Invalid request body")
	errInvalidListingID = errors.New("Invalid listing_id format")
)

func parseListingID(c *fiber.Ctx) (uuid.UUID, *ListingRequest, error) {
	var req ListingRequest
	if err := c.BodyParser(&req); err != nil {
		return uuid.Nil, nil, errInvalidBody
	}
	id, err := uuid.Parse(req.ListingID)
	if err != nil {
		return uuid.Nil, nil, errInvalidListingID
	}
	return id, &req, nil
}

// Approve POST /api/v1/moderation/approve-listing — the direct admin path.
func (h *Handlers) Approve(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, _, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Moderation.ApproveListing(c.Context(), actor.AccountID, listingID)
	if err != nil {
		return moderationError(c, err)
	}
	return response.Success(c, "Listing approved", listing, nil)
}

// Reject POST /api/v1/moderation/reject-listing
func (h *Handlers) Reject(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, req, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Moderation.RejectListing(c.Context(), actor.AccountID, listingID, req.Reason)
	if err != nil {
		return moderationError(c, err)
	}
	return response.Success(c, "Listing rejected", listing, nil)
}

// MarkSold POST /api/v1/moderation/mark-sold — admin or owner.
func (h *Handlers) MarkSold(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, _, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Moderation.MarkSold(c.Context(), actor.AccountID, listingID)
	if err != nil {
		return moderationError(c, err)
	}
	return response.Success(c, "Listing marked sold", listing, nil)
}

// Delete DELETE /api/v1/moderation/delete-listing
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, _, err := parseListingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Moderation.DeleteListing(c.Context(), actor.AccountID, listingID); err != nil {
		return moderationError(c, err)
	}
	return response.Success(c, "Listing deleted", nil, nil)
}

func moderationError(c *fiber.Ctx, err error) error {
	switch err {
	case modsvc.ErrForbidden:
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case listsvc.ErrListingNotFound:
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case modsvc.ErrInvalidTransition, modsvc.ErrListingNotSellable:
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
