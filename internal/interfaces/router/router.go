package router

import (
	"propmarket-backend/internal/application/accounts"
	auditsvc "propmarket-backend/internal/application/audit"
	listsvc "propmarket-backend/internal/application/listings"
	modsvc "propmarket-backend/internal/application/moderation"
	paysvc "propmarket-backend/internal/application/payments"
	vetsvc "propmarket-backend/internal/application/vetting"
	"propmarket-backend/internal/auth"
	"propmarket-backend/internal/config"
	"propmarket-backend/internal/health"
	"propmarket-backend/internal/infrastructure/database"
	accthandler "propmarket-backend/internal/interfaces/handlers/accounts"
	audithandler "propmarket-backend/internal/interfaces/handlers/audit"
	authhandler "propmarket-backend/internal/interfaces/handlers/auth"
	listhandler "propmarket-backend/internal/interfaces/handlers/listings"
	modhandler "propmarket-backend/internal/interfaces/handlers/moderation"
	payhandler "propmarket-backend/internal/interfaces/handlers/payments"
	vethandler "propmarket-backend/internal/interfaces/handlers/vetting"
	"propmarket-backend/internal/middleware"
	"propmarket-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	}
	if rdb != nil {
		app.Use(middleware.HealthMarker(rdb))
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
	}

	// Health module (GET /, GET /reset, GET /health/json, GET /health/errors)
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", healthHandlers.Dashboard)
	app.Get("/reset", healthHandlers.Reset)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)

	if db == nil {
		// No DB (e.g. some tests): only health routes are available.
		return app, db, rdb, nil
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	requireAuth := middleware.RequireAuth(tokens, db, rdb)

	accountService := &accounts.Service{DB: db}
	listingService := &listsvc.Service{DB: db}
	paymentService := &paysvc.Service{
		DB:          db,
		Fees:        cfg.Fees,
		Destination: cfg.PaymentDestination,
		Contact:     cfg.PaymentContact,
	}
	vettingService := &vetsvc.Service{DB: db}
	auditService := &auditsvc.Service{DB: db, Rdb: rdb}
	moderationService := &modsvc.Service{
		Accounts: accountService,
		Listings: listingService,
		Payments: paymentService,
		Vetting:  vettingService,
		Audit:    auditService,
	}

	// Auth: POST login (public), GET me, DELETE logout
	authHandlers := &authhandler.Handlers{
		Finder: &auth.GormAccountFinder{DB: db},
		Tokens: tokens,
		Rdb:    rdb,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", requireAuth, authHandlers.Me)
	authGroup.Delete("/logout", requireAuth, authHandlers.Logout)

	// Accounts: registration is public, the rest requires auth
	acctHandlers := &accthandler.Handlers{
		Accounts:   accountService,
		Vetting:    vettingService,
		Moderation: moderationService,
	}
	app.Post("/api/v1/accounts/register", acctHandlers.Register)
	app.Post("/api/v1/accounts/register-broker", acctHandlers.RegisterBroker)
	acctGroup := app.Group("/api/v1/accounts", requireAuth)
	acctGroup.Patch("/update-password", acctHandlers.UpdatePassword)
	acctGroup.Patch("/update-role", middleware.AuthorizeAction(constants.AssignRole), acctHandlers.UpdateRole)
	acctGroup.Delete("/remove-account", middleware.AuthorizeAction(constants.RemoveAccount), acctHandlers.RemoveAccount)

	// Listings: guest submission + public read are unauthenticated
	listHandlers := &listhandler.Handlers{
		Listings:       listingService,
		Payments:       paymentService,
		GuestFeeExempt: cfg.GuestFeeExempt,
	}
	app.Post("/api/v1/listings/public/submit-listing", listHandlers.SubmitGuest)
	app.Get("/api/v1/listings/public/get-approved-listings", listHandlers.GetApproved)
	listGroup := app.Group("/api/v1/listings", requireAuth)
	listGroup.Post("/submit-listing", middleware.AuthorizeAction(constants.SubmitListing), listHandlers.Submit)
	listGroup.Get("/get-my-listings", listHandlers.GetMine)
	listGroup.Get("/get-listing/:listing_id", listHandlers.GetByID)
	listGroup.Get("/get-listings-by-status/:status", middleware.AuthorizeAction(constants.ViewAllListings), listHandlers.GetByStatus)
	listGroup.Get("/get-all-listings", middleware.AuthorizeAction(constants.ViewAllListings), listHandlers.GetAll)

	// Payments: admin decisions + reads
	payHandlers := &payhandler.Handlers{Payments: paymentService, Moderation: moderationService}
	payGroup := app.Group("/api/v1/payments", requireAuth)
	payGroup.Post("/confirm-payment", middleware.AuthorizeAction(constants.ConfirmPayment), payHandlers.Confirm)
	payGroup.Post("/reject-payment", middleware.AuthorizeAction(constants.RejectPayment), payHandlers.Reject)
	payGroup.Get("/get-payment/:payment_id", payHandlers.GetByID)
	payGroup.Get("/get-pending-payments", middleware.AuthorizeAction(constants.ViewAllPayments), payHandlers.GetPending)

	// Vetting: application filing + admin decisions
	vetHandlers := &vethandler.Handlers{Vetting: vettingService, Moderation: moderationService}
	vetGroup := app.Group("/api/v1/vetting", requireAuth)
	vetGroup.Post("/apply", vetHandlers.Apply)
	vetGroup.Get("/get-my-application", vetHandlers.GetMine)
	vetGroup.Get("/get-pending-applications", middleware.AuthorizeAction(constants.ApproveApplication), vetHandlers.GetPending)
	vetGroup.Post("/approve-application", middleware.AuthorizeAction(constants.ApproveApplication), vetHandlers.Approve)
	vetGroup.Post("/reject-application", middleware.AuthorizeAction(constants.RejectApplication), vetHandlers.Reject)
	vetGroup.Post("/reject-all-pending", middleware.AuthorizeAction(constants.RejectApplication), vetHandlers.RejectAllPending)
	vetGroup.Delete("/delete-rejected", middleware.AuthorizeAction(constants.DeleteApplications), vetHandlers.DeleteRejected)

	// Moderation: direct listing decisions
	modHandlers := &modhandler.Handlers{Moderation: moderationService}
	modGroup := app.Group("/api/v1/moderation", requireAuth)
	modGroup.Post("/approve-listing", middleware.AuthorizeAction(constants.ApproveListing), modHandlers.Approve)
	modGroup.Post("/reject-listing", middleware.AuthorizeAction(constants.RejectListing), modHandlers.Reject)
	modGroup.Post("/mark-sold", modHandlers.MarkSold)
	modGroup.Delete("/delete-listing", middleware.AuthorizeAction(constants.DeleteListing), modHandlers.Delete)

	// Audit: admin only
	auditHandlers := &audithandler.Handlers{Audit: auditService}
	app.Get("/api/v1/audit/get-audit-entries", requireAuth, middleware.AuthorizeAction(constants.ViewAudit), auditHandlers.GetEntries)

	return app, db, rdb, nil
}
