package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/config"
	"github.com/techno-hippies/heaven-sessions/internal/db"
	"github.com/techno-hippies/heaven-sessions/internal/events"
	apphttp "github.com/techno-hippies/heaven-sessions/internal/http"
	"github.com/techno-hippies/heaven-sessions/internal/http/handlers"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	hostRepo := repositories.NewHostRepo(pool)
	slotRepo := repositories.NewSlotRepo(pool)
	bookingRepo := repositories.NewBookingRepo(pool)
	requestRepo := repositories.NewRequestRepo(pool)
	paramsRepo := repositories.NewParamsRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	payoutRepo := repositories.NewPayoutRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	locks := services.NewKeyLock()
	adminService := services.NewAdminService(paramsRepo, auditRepo, publisher, log)
	if err := adminService.Bootstrap(ctx, cfg); err != nil {
		log.Fatal("failed to bootstrap engine params", zap.Error(err))
	}
	slotService := services.NewSlotService(pool, hostRepo, slotRepo, paramsRepo, auditRepo, publisher, locks, log)
	bookingService := services.NewBookingService(pool, bookingRepo, slotRepo, paramsRepo, ledgerRepo, payoutRepo, auditRepo, publisher, locks, log)
	requestService := services.NewRequestService(pool, requestRepo, hostRepo, slotRepo, bookingRepo, paramsRepo, ledgerRepo, payoutRepo, auditRepo, publisher, locks, log)
	ledgerService := services.NewLedgerService(pool, ledgerRepo, payoutRepo, paramsRepo, auditRepo, publisher, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(proofRepo, cfg, log)
	slotHandler := handlers.NewSlotHandler(slotService, log)
	bookingHandler := handlers.NewBookingHandler(bookingService, auditRepo, log)
	requestHandler := handlers.NewRequestHandler(requestService, log)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, log)
	adminHandler := handlers.NewAdminHandler(adminService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, slotHandler, bookingHandler, requestHandler, ledgerHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
