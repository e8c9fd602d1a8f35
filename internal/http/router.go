package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/techno-hippies/heaven-sessions/internal/config"
	"github.com/techno-hippies/heaven-sessions/internal/http/handlers"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	slotHandler *handlers.SlotHandler,
	bookingHandler *handlers.BookingHandler,
	requestHandler *handlers.RequestHandler,
	ledgerHandler *handlers.LedgerHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/proof-payload", authHandler.GeneratePayload)
	api.Post("/auth/wallet", authHandler.WalletAuth)

	// Rate-limited beyond this point
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Host pricing
	protected.Put("/hosts/me/price", slotHandler.SetPrice)
	protected.Get("/hosts/:address/price", slotHandler.GetPrice)

	// Slots
	protected.Post("/slots", slotHandler.CreateSlot)
	protected.Post("/slots/batch", slotHandler.CreateSlotsBatch)
	protected.Get("/slots", slotHandler.ListSlots)
	protected.Get("/slots/:id", slotHandler.GetSlot)
	protected.Post("/slots/:id/cancel", slotHandler.CancelSlot)
	protected.Post("/slots/:id/book", bookingHandler.Book)

	// Bookings
	protected.Get("/bookings", bookingHandler.ListBookings)
	protected.Get("/bookings/:id", bookingHandler.GetBooking)
	protected.Post("/bookings/:id/cancel", bookingHandler.Cancel)
	protected.Post("/bookings/:id/attest", bookingHandler.Attest)
	protected.Post("/bookings/:id/claim-unattested", bookingHandler.ClaimUnattested)
	protected.Post("/bookings/:id/challenge", bookingHandler.Challenge)
	protected.Post("/bookings/:id/resolve", bookingHandler.ResolveDispute)
	protected.Post("/bookings/:id/resolve-timeout", bookingHandler.ResolveDisputeByTimeout)
	protected.Post("/bookings/:id/finalize", bookingHandler.Finalize)
	protected.Get("/bookings/:id/events", bookingHandler.GetEvents)

	// Requests
	protected.Post("/requests", requestHandler.CreateRequest)
	protected.Get("/requests", requestHandler.ListRequests)
	protected.Get("/requests/:id", requestHandler.GetRequest)
	protected.Post("/requests/:id/cancel", requestHandler.CancelRequest)
	protected.Post("/requests/:id/accept", requestHandler.AcceptRequest)

	// Ledger
	protected.Get("/ledger", ledgerHandler.GetLedger)
	protected.Post("/ledger/sweep", ledgerHandler.Sweep)
	protected.Get("/ledger/payouts", ledgerHandler.ListPendingPayouts)
	protected.Post("/ledger/payouts/:id/sent", ledgerHandler.MarkPayoutSent)

	// Admin params (owner-checked in the service)
	protected.Get("/admin/params", adminHandler.GetParams)
	protected.Put("/admin/params", adminHandler.UpdateParams)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
