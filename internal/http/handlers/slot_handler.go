package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

type SlotHandler struct {
	slotService *services.SlotService
	log         *zap.Logger
}

func NewSlotHandler(slotService *services.SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{slotService: slotService, log: log}
}

func (h *SlotHandler) SetPrice(c *fiber.Ctx) error {
	var req dto.SetPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	listing, err := h.slotService.SetBasePrice(c.Context(), middleware.GetAddress(c), req.PriceNano)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(listing)
}

func (h *SlotHandler) GetPrice(c *fiber.Ctx) error {
	listing, err := h.slotService.GetListing(c.Context(), c.Params("address"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(listing)
}

func slotInput(item dto.SlotItem) services.SlotInput {
	return services.SlotInput{
		StartTime:        item.StartTime,
		DurationMins:     item.DurationMins,
		GraceMins:        item.GraceMins,
		MinOverlapMins:   item.MinOverlapMins,
		CancelCutoffMins: item.CancelCutoffMins,
	}
}

func (h *SlotHandler) CreateSlot(c *fiber.Ctx) error {
	var req dto.CreateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	slot, err := h.slotService.CreateSlot(c.Context(), middleware.GetAddress(c), slotInput(req.SlotItem))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

func (h *SlotHandler) CreateSlotsBatch(c *fiber.Ctx) error {
	var req dto.CreateSlotsBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	inputs := make([]services.SlotInput, len(req.Slots))
	for i, item := range req.Slots {
		inputs[i] = slotInput(item)
	}

	slots, err := h.slotService.CreateSlotsBatch(c.Context(), middleware.GetAddress(c), inputs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slots)
}

func (h *SlotHandler) GetSlot(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid slot id"})
	}
	slot, err := h.slotService.GetSlot(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slot)
}

func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	if host := c.Query("host"); host != "" {
		slots, err := h.slotService.ListHostSlots(c.Context(), host, c.Query("status"), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(slots)
	}
	slots, err := h.slotService.ListOpenSlots(c.Context(), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slots)
}

func (h *SlotHandler) CancelSlot(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid slot id"})
	}
	slot, err := h.slotService.CancelSlot(c.Context(), middleware.GetAddress(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slot)
}
