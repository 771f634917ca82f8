package listings

import (
	listsvc "propmarket-backend/internal/application/listings"
	paysvc "propmarket-backend/internal/application/payments"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/constants"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for listing endpoints.
type Handlers struct {
	Listings       *listsvc.Service
	Payments       *paysvc.Service
	GuestFeeExempt bool
}

// SubmitRequest carries the descriptive listing fields.
type SubmitRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	PropertyType string  `json:"property_type"`
	Price        float64 `json:"price"`
	City         string  `json:"city"`
	District     string  `json:"district"`
	Address      string  `json:"address"`
	AreaSqm      float64 `json:"area_sqm"`
	Rooms        int     `json:"rooms"`
	GuestContact string  `json:"guest_contact"`
}

// Submit POST /api/v1/listings/submit-listing — authenticated submission.
// Creates the listing in pending_payment and its payment obligation as one
// transaction; the response metadata carries the payment instructions.
func (h *Handlers) Submit(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	channel := domain.ChannelRegistered
	if actor.Role == constants.Broker {
		channel = domain.ChannelBroker
	}
	ownerID := actor.AccountID
	listing, payment, instructions, err := h.Listings.Submit(c.Context(), listsvc.CreateInput{
		OwnerID:      &ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PropertyType: req.PropertyType,
		Price:        req.Price,
		City:         req.City,
		District:     req.District,
		Address:      req.Address,
		AreaSqm:      req.AreaSqm,
		Rooms:        req.Rooms,
		Channel:      channel,
	}, h.Payments)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Listing submitted, awaiting payment", fiber.Map{
		"listing": listing,
		"payment": payment,
	}, fiber.Map{"payment_instructions": instructions})
}

// SubmitGuest POST /api/v1/listings/public/submit-listing — anonymous
// channel. When the fee exemption is on, the listing enters moderation as
// pending without an obligation; otherwise it owes the normal fee.
func (h *Handlers) SubmitGuest(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, payment, instructions, err := h.Listings.Submit(c.Context(), listsvc.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PropertyType: req.PropertyType,
		Price:        req.Price,
		City:         req.City,
		District:     req.District,
		Address:      req.Address,
		AreaSqm:      req.AreaSqm,
		Rooms:        req.Rooms,
		Channel:      domain.ChannelGuest,
		GuestContact: req.GuestContact,
		FeeExempt:    h.GuestFeeExempt,
	}, h.Payments)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if payment == nil {
		return response.SuccessCreated(c, "Listing submitted for moderation", fiber.Map{"listing": listing}, nil)
	}
	return response.SuccessCreated(c, "Listing submitted, awaiting payment", fiber.Map{
		"listing": listing,
		"payment": payment,
	}, fiber.Map{"payment_instructions": instructions})
}

// GetApproved GET /api/v1/listings/public/get-approved-listings — the only
// public read; approved listings only.
func (h *Handlers) GetApproved(c *fiber.Ctx) error {
	data, err := h.Listings.ListPublic(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched successfully", data, nil)
}

// GetMine GET /api/v1/listings/get-my-listings
func (h *Handlers) GetMine(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	data, err := h.Listings.ListByOwner(c.Context(), actor.AccountID)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched successfully", data, nil)
}

// GetByID GET /api/v1/listings/get-listing/:listing_id — approved listings
// are readable by anyone authenticated; otherwise only the owner or an admin.
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Listings.FindByID(c.Context(), listingID)
	if err != nil {
		if err == listsvc.ErrListingNotFound {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if listing.Status != domain.ListingApproved && actor.Role != constants.Admin {
		if listing.OwnerID == nil || *listing.OwnerID != actor.AccountID {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// GetByStatus GET /api/v1/listings/get-listings-by-status/:status — admin.
func (h *Handlers) GetByStatus(c *fiber.Ctx) error {
	data, err := h.Listings.ListByStatus(c.Context(), c.Params("status"))
	if err != nil {
		if err == listsvc.ErrInvalidStatus {
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched successfully", data, nil)
}

// GetAll GET /api/v1/listings/get-all-listings — admin.
func (h *Handlers) GetAll(c *fiber.Ctx) error {
	data, err := h.Listings.ListAll(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Listings fetched successfully", data, nil)
}
