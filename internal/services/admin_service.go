package services

import (
	"context"
	"fmt"

	"github.com/techno-hippies/heaven-sessions/internal/config"
	"github.com/techno-hippies/heaven-sessions/internal/events"
	"github.com/techno-hippies/heaven-sessions/internal/models"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"go.uber.org/zap"
)

const maxBPS = 10_000

type AdminService struct {
	paramsRepo *repositories.ParamsRepo
	auditRepo  *repositories.AuditRepo
	publisher  events.Publisher
	log        *zap.Logger
}

func NewAdminService(
	paramsRepo *repositories.ParamsRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		paramsRepo: paramsRepo,
		auditRepo:  auditRepo,
		publisher:  publisher,
		log:        log,
	}
}

// Bootstrap seeds the params row from env on first boot. Subsequent boots
// leave whatever the owner has since configured.
func (s *AdminService) Bootstrap(ctx context.Context, cfg *config.Config) error {
	p := &models.EngineParams{
		OwnerAddress:         cfg.OwnerAddress,
		OracleAddress:        cfg.OracleAddress,
		TreasuryAddress:      cfg.TreasuryAddress,
		PlatformFeeBPS:       cfg.PlatformFeeBPS,
		LateCancelPenaltyBPS: cfg.LateCancelPenaltyBPS,
		ChallengeWindowSecs:  cfg.ChallengeWindowSecs,
		NoAttestBufferSecs:   cfg.NoAttestBufferSecs,
		DisputeTimeoutSecs:   cfg.DisputeTimeoutSecs,
		DisputeBondNano:      cfg.DisputeBondNano,
		MinLeadTimeMins:      cfg.MinLeadTimeMins,
	}
	if err := validateParams(p); err != nil {
		return err
	}
	if err := s.paramsRepo.Bootstrap(ctx, p); err != nil {
		return err
	}
	s.log.Info("engine params ready",
		zap.String("owner", p.OwnerAddress),
		zap.String("oracle", p.OracleAddress),
		zap.String("treasury", p.TreasuryAddress),
	)
	return nil
}

func (s *AdminService) GetParams(ctx context.Context) (*models.EngineParams, error) {
	return s.paramsRepo.Get(ctx)
}

// UpdateParams replaces the whole params row. Owner only; in-flight
// bookings keep the timings they were attested under only where those were
// stamped onto the row (finalizable_at), everything else reads live params.
func (s *AdminService) UpdateParams(ctx context.Context, caller string, p *models.EngineParams) (*models.EngineParams, error) {
	current, err := s.paramsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if caller != current.OwnerAddress {
		return nil, ErrForbidden
	}
	if err := validateParams(p); err != nil {
		return nil, err
	}

	updated, err := s.paramsRepo.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &caller, "user", "params_updated", "engine_params", nil, p)
	_ = s.publisher.Publish(ctx, events.StreamSession, events.Event{
		Type:    events.EventParamsUpdated,
		Payload: map[string]any{"owner": updated.OwnerAddress},
	})

	return updated, nil
}

func validateParams(p *models.EngineParams) error {
	if p.OwnerAddress == "" || p.OracleAddress == "" || p.TreasuryAddress == "" {
		return fmt.Errorf("owner, oracle and treasury addresses are all required")
	}
	if p.PlatformFeeBPS < 0 || p.PlatformFeeBPS > maxBPS {
		return fmt.Errorf("platform fee bps out of range: %d", p.PlatformFeeBPS)
	}
	if p.LateCancelPenaltyBPS < 0 || p.LateCancelPenaltyBPS > maxBPS {
		return fmt.Errorf("late cancel penalty bps out of range: %d", p.LateCancelPenaltyBPS)
	}
	if p.ChallengeWindowSecs <= 0 || p.NoAttestBufferSecs <= 0 || p.DisputeTimeoutSecs <= 0 {
		return fmt.Errorf("challenge window, no-attest buffer and dispute timeout must be positive")
	}
	if p.DisputeBondNano <= 0 {
		return fmt.Errorf("dispute bond must be positive, got %d", p.DisputeBondNano)
	}
	if p.MinLeadTimeMins < 0 {
		return fmt.Errorf("min lead time must be non-negative, got %d", p.MinLeadTimeMins)
	}
	return nil
}
