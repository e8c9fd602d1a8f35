package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"github.com/techno-hippies/heaven-sessions/internal/models"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *services.AdminService
	log          *zap.Logger
}

func NewAdminHandler(adminService *services.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, log: log}
}

func (h *AdminHandler) GetParams(c *fiber.Ctx) error {
	params, err := h.adminService.GetParams(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(params)
}

func (h *AdminHandler) UpdateParams(c *fiber.Ctx) error {
	var req dto.UpdateParamsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	params, err := h.adminService.UpdateParams(c.Context(), middleware.GetAddress(c), &models.EngineParams{
		OwnerAddress:         req.OwnerAddress,
		OracleAddress:        req.OracleAddress,
		TreasuryAddress:      req.TreasuryAddress,
		PlatformFeeBPS:       req.PlatformFeeBPS,
		LateCancelPenaltyBPS: req.LateCancelPenaltyBPS,
		ChallengeWindowSecs:  req.ChallengeWindowSecs,
		NoAttestBufferSecs:   req.NoAttestBufferSecs,
		DisputeTimeoutSecs:   req.DisputeTimeoutSecs,
		DisputeBondNano:      req.DisputeBondNano,
		MinLeadTimeMins:      req.MinLeadTimeMins,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(params)
}
