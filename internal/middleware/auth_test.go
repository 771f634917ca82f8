package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"propmarket-backend/internal/auth"
	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthMiddlewareTest(t *testing.T) (*fiber.App, *auth.TokenManager, *gorm.DB, *redis.Client) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Account{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tokens := auth.NewTokenManager("test-secret", time.Hour)

	app := fiber.New()
	app.Get("/whoami", RequireAuth(tokens, db, rdb), func(c *fiber.Ctx) error {
		actor := GetActor(c)
		return c.JSON(fiber.Map{"handle": actor.Handle, "role": actor.Role})
	})
	return app, tokens, db, rdb
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

func TestRequireAuth_NoHeader(t *testing.T) {
	app, _, _, _ := setupAuthMiddlewareTest(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRequireAuth_BadToken(t *testing.T) {
	app, _, _, _ := setupAuthMiddlewareTest(t)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRequireAuth_RoleFromStoreNotToken(t *testing.T) {
	app, tokens, db, _ := setupAuthMiddlewareTest(t)
	a := seedAccount(t, db, "aruzhan", constants.User)

	token, err := tokens.Issue(a.AccountID, a.Handle, a.Role)
	require.NoError(t, err)

	// promotion after issuance must be visible on the next request
	require.NoError(t, db.Model(&domain.Account{}).
		Where("account_id = ?", a.AccountID).
		Update("role", constants.Admin).Error)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, constants.Admin, body["role"])
}

func TestRequireAuth_DeletedAccount(t *testing.T) {
	app, tokens, db, _ := setupAuthMiddlewareTest(t)
	a := seedAccount(t, db, "aruzhan", constants.User)

	token, err := tokens.Issue(a.AccountID, a.Handle, a.Role)
	require.NoError(t, err)
	require.NoError(t, db.Delete(a).Error)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	app, tokens, db, rdb := setupAuthMiddlewareTest(t)
	a := seedAccount(t, db, "aruzhan", constants.User)

	token, err := tokens.Issue(a.AccountID, a.Handle, a.Role)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), RevokedTokenPrefix+claims.ID, "1", time.Hour).Err())

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthorizeAction_Forbidden(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		func(c *fiber.Ctx) error {
			c.Locals(actorLocal, &Actor{Role: constants.User, Handle: "aruzhan"})
			return c.Next()
		},
		AuthorizeAction(constants.ApproveListing),
		func(c *fiber.Ctx) error { return c.SendStatus(200) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin-only", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestAuthorizeAction_Allowed(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		func(c *fiber.Ctx) error {
			c.Locals(actorLocal, &Actor{Role: constants.Admin, Handle: "root"})
			return c.Next()
		},
		AuthorizeAction(constants.ApproveListing),
		func(c *fiber.Ctx) error { return c.SendStatus(200) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin-only", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAuthorizeAction_NoActor(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		AuthorizeAction(constants.ApproveListing),
		func(c *fiber.Ctx) error { return c.SendStatus(200) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin-only", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthorizeAction_UnknownAction(t *testing.T) {
	app := fiber.New()
	app.Get("/misconfigured",
		func(c *fiber.Ctx) error {
			c.Locals(actorLocal, &Actor{Role: constants.Admin})
			return c.Next()
		},
		AuthorizeAction("no_such_action"),
		func(c *fiber.Ctx) error { return c.SendStatus(200) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/misconfigured", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
