package audit

import (
	"strconv"

	auditsvc "propmarket-backend/internal/application/audit"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for audit endpoints.
type Handlers struct {
	Audit *auditsvc.Service
}

// GetEntries GET /api/v1/audit/get-audit-entries — admin; filterable by
// actor_id, action, target_type, target_id, limit. Time-descending.
func (h *Handlers) GetEntries(c *fiber.Ctx) error {
	var filter auditsvc.QueryFilter
	if s := c.Query("actor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid actor_id format", fiber.StatusBadRequest, nil)
		}
		filter.ActorID = id
	}
	if s := c.Query("target_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid target_id format", fiber.StatusBadRequest, nil)
		}
		filter.TargetID = id
	}
	filter.Action = c.Query("action")
	filter.TargetType = c.Query("target_type")
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return response.Error(c, "Invalid limit", fiber.StatusBadRequest, nil)
		}
		filter.Limit = n
	}
	entries, err := h.Audit.Query(c.Context(), filter)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Audit entries fetched successfully", entries, nil)
}
