package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
	log           *zap.Logger
}

func NewLedgerHandler(ledgerService *services.LedgerService, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, log: log}
}

func (h *LedgerHandler) GetLedger(c *fiber.Ctx) error {
	view, err := h.ledgerService.Get(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(view)
}

func (h *LedgerHandler) Sweep(c *fiber.Ctx) error {
	payout, err := h.ledgerService.Sweep(c.Context(), middleware.GetAddress(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(payout)
}

func (h *LedgerHandler) ListPendingPayouts(c *fiber.Ctx) error {
	limit, _ := parsePagination(c)
	payouts, err := h.ledgerService.ListPendingPayouts(c.Context(), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(payouts)
}

// MarkPayoutSent confirms an out-of-band hot wallet transfer. Owner only.
func (h *LedgerHandler) MarkPayoutSent(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid payout id"})
	}
	var req dto.MarkPayoutSentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.TxHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "tx_hash is required"})
	}

	if err := h.ledgerService.MarkPayoutSent(c.Context(), middleware.GetAddress(c), id, req.TxHash); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
