package middleware

import (
	"context"
	"strings"

	"propmarket-backend/internal/auth"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	actorLocal = "actor"
	// RevokedTokenPrefix is the Redis key prefix for logged-out token IDs.
	RevokedTokenPrefix = "revoked:"
)

// Actor is the authenticated caller attached to the request context. Role is
// always the role currently stored on the account, not the role claim baked
// into the token: a promotion or demotion after token issuance must take
// effect on the very next request.
type Actor struct {
	AccountID uuid.UUID
	Handle    string
	Role      string
	TokenID   string
}

// RequireAuth verifies the bearer token, rejects revoked tokens, and
// re-resolves the account from the credential store. 401 on any failure.
func RequireAuth(tokens *auth.TokenManager, db *gorm.DB, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := tokens.Verify(bearerToken(c))
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if rdb != nil && claims.ID != "" {
			if n, err := rdb.Exists(context.Background(), RevokedTokenPrefix+claims.ID).Result(); err == nil && n > 0 {
				return response.Unauthorized(c, "Unauthorized")
			}
		}
		accountID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		var account domain.Account
		if err := db.Where("account_id = ?", accountID).First(&account).Error; err != nil {
			// Deleted accounts lose access immediately regardless of token validity.
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(actorLocal, &Actor{
			AccountID: account.AccountID,
			Handle:    account.Handle,
			Role:      account.Role,
			TokenID:   claims.ID,
		})
		return c.Next()
	}
}

// GetActor returns the authenticated actor from Locals (nil if not logged in).
func GetActor(c *fiber.Ctx) *Actor {
	actor, _ := c.Locals(actorLocal).(*Actor)
	return actor
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}
