package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techno-hippies/heaven-sessions/internal/config"
	"github.com/techno-hippies/heaven-sessions/internal/db"
	"github.com/techno-hippies/heaven-sessions/internal/events"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

const batchLimit = 100

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	hostRepo := repositories.NewHostRepo(pool)
	slotRepo := repositories.NewSlotRepo(pool)
	bookingRepo := repositories.NewBookingRepo(pool)
	requestRepo := repositories.NewRequestRepo(pool)
	paramsRepo := repositories.NewParamsRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	payoutRepo := repositories.NewPayoutRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	locks := services.NewKeyLock()
	bookingService := services.NewBookingService(pool, bookingRepo, slotRepo, paramsRepo, ledgerRepo, payoutRepo, auditRepo, publisher, locks, log)
	requestService := services.NewRequestService(pool, requestRepo, hostRepo, slotRepo, bookingRepo, paramsRepo, ledgerRepo, payoutRepo, auditRepo, publisher, locks, log)

	log.Info("worker started")

	// The engine has no internal timers: the tickers just re-evaluate
	// timestamp gates and drive the permissionless operations.
	finalizeTicker := time.NewTicker(1 * time.Minute)
	disputeTicker := time.NewTicker(2 * time.Minute)
	requestTicker := time.NewTicker(1 * time.Minute)
	cleanupTicker := time.NewTicker(30 * time.Minute)
	defer finalizeTicker.Stop()
	defer disputeTicker.Stop()
	defer requestTicker.Stop()
	defer cleanupTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-finalizeTicker.C:
			if n := bookingService.FinalizeDue(ctx, batchLimit); n > 0 {
				log.Info("finalized bookings", zap.Int("count", n))
			}
		case <-disputeTicker.C:
			if n := bookingService.TimeoutDisputesDue(ctx, batchLimit); n > 0 {
				log.Info("closed timed-out disputes", zap.Int("count", n))
			}
		case <-requestTicker.C:
			if n := requestService.ExpireDue(ctx, batchLimit); n > 0 {
				log.Info("refunded expired requests", zap.Int("count", n))
			}
		case <-cleanupTicker.C:
			if n, err := proofRepo.DeleteExpired(ctx); err != nil {
				log.Error("failed to clean proof payloads", zap.Error(err))
			} else if n > 0 {
				log.Info("cleaned stale proof payloads", zap.Int64("count", n))
			}
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
