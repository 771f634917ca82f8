package middleware

import (
	"propmarket-backend/internal/pkg/constants"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizeAction checks the resolved actor's role against the action table.
// Unconfigured action -> 500; role not allowed -> 403. Must run after
// RequireAuth so the role comes from the store, not the token.
func AuthorizeAction(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		roles, ok := constants.ActionRoles[action]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Permission configuration error", 500, nil)
		}
		if !constants.CanPerform(actor.Role, action) {
			return response.Error(c, "User is Forbidden from performing this action", 403, nil)
		}
		return c.Next()
	}
}
