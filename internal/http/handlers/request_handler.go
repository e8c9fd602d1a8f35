package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *services.RequestService
	log            *zap.Logger
}

func NewRequestHandler(requestService *services.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, log: log}
}

func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	created, err := h.requestService.CreateRequest(c.Context(), middleware.GetAddress(c), services.RequestInput{
		HostAddress:  req.HostAddress,
		WindowStart:  req.WindowStart,
		WindowEnd:    req.WindowEnd,
		DurationMins: req.DurationMins,
		OfferNano:    req.OfferNano,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request id"})
	}
	req, err := h.requestService.GetRequest(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(req)
}

func (h *RequestHandler) ListRequests(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	addr := middleware.GetAddress(c)
	if c.Query("mine") == "true" {
		reqs, err := h.requestService.ListByGuest(c.Context(), addr, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reqs)
	}
	// Open requests the caller could accept as a host.
	reqs, err := h.requestService.ListOpen(c.Context(), addr, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(reqs)
}

func (h *RequestHandler) CancelRequest(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request id"})
	}
	req, err := h.requestService.CancelRequest(c.Context(), middleware.GetAddress(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(req)
}

func (h *RequestHandler) AcceptRequest(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request id"})
	}
	var req dto.AcceptRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	accepted, err := h.requestService.AcceptRequest(c.Context(), middleware.GetAddress(c), id, req.StartTime, services.SlotInput{
		GraceMins:        req.GraceMins,
		MinOverlapMins:   req.MinOverlapMins,
		CancelCutoffMins: req.CancelCutoffMins,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(accepted)
}
