package auth

import (
	"context"
	"time"

	authsvc "propmarket-backend/internal/auth"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Finder authsvc.AccountFinder
	Tokens *authsvc.TokenManager
	Rdb    *redis.Client
}

// LoginRequest body.
type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login — authenticate and issue a signed session token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Finder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Handle and password are required", fiber.StatusBadRequest, nil)
	}
	if req.Handle == "" || req.Password == "" {
		return response.Error(c, "Handle and password are required", fiber.StatusBadRequest, nil)
	}

	account, err := h.Finder.FindByHandleAndPassword(req.Handle, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrHandlePasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrInvalidHandle, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	token, err := h.Tokens.Issue(account.AccountID, account.Handle, account.Role)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	return response.Success(c, "Login successful", fiber.Map{
		"token": token,
		"account": fiber.Map{
			"account_id": account.AccountID.String(),
			"handle":     account.Handle,
			"fullname":   account.Fullname,
			"email":      account.Email,
			"role":       account.Role,
		},
	}, nil)
}

// Me GET /api/v1/auth/me — return the freshly resolved account (runs behind
// RequireAuth, so the role here is the stored one, not the token claim).
func (h *Handlers) Me(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	return response.Success(c, "Authenticated", fiber.Map{
		"account_id": actor.AccountID.String(),
		"handle":     actor.Handle,
		"role":       actor.Role,
	}, nil)
}

// Logout DELETE /api/v1/auth/logout — revoke the presented token until its
// natural expiry.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.Rdb != nil && actor.TokenID != "" {
		ttl := 24 * time.Hour
		if h.Tokens != nil {
			ttl = h.Tokens.TTL()
		}
		_ = h.Rdb.Set(context.Background(), middleware.RevokedTokenPrefix+actor.TokenID, "1", ttl).Err()
	}
	return response.Success(c, "Logged out", nil, nil)
}
