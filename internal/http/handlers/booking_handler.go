package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/middleware"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"github.com/techno-hippies/heaven-sessions/internal/services"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookingService *services.BookingService
	auditRepo      *repositories.AuditRepo
	log            *zap.Logger
}

func NewBookingHandler(bookingService *services.BookingService, auditRepo *repositories.AuditRepo, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, auditRepo: auditRepo, log: log}
}

// Book escrows the declared payment against the slot in the path.
func (h *BookingHandler) Book(c *fiber.Ctx) error {
	slotID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid slot id"})
	}
	var req dto.BookSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	booking, err := h.bookingService.Book(c.Context(), middleware.GetAddress(c), slotID, req.PaymentNano)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	booking, err := h.bookingService.GetBooking(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	addr := middleware.GetAddress(c)
	if c.Query("role") == "host" {
		bookings, err := h.bookingService.ListByHost(c.Context(), addr, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bookings)
	}
	bookings, err := h.bookingService.ListByGuest(c.Context(), addr, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(bookings)
}

// Cancel dispatches on who is calling: the slot's host cancels as host
// (full refund), anyone else goes down the guest path.
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	caller := middleware.GetAddress(c)

	current, err := h.bookingService.GetBooking(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	if caller == current.HostAddress {
		booking, err := h.bookingService.CancelAsHost(c.Context(), caller, id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(booking)
	}
	booking, err := h.bookingService.CancelAsGuest(c.Context(), caller, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Attest(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	var req dto.AttestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	booking, err := h.bookingService.Attest(c.Context(), middleware.GetAddress(c), id, req.Outcome, req.MetricsRef)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) ClaimUnattested(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	booking, err := h.bookingService.ClaimIfUnattested(c.Context(), middleware.GetAddress(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Challenge(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	var req dto.ChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	booking, err := h.bookingService.Challenge(c.Context(), middleware.GetAddress(c), id, req.BondNano)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) ResolveDispute(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	booking, err := h.bookingService.ResolveDispute(c.Context(), middleware.GetAddress(c), id, req.Outcome)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) ResolveDisputeByTimeout(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	booking, err := h.bookingService.ResolveDisputeByTimeout(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Finalize(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	booking, err := h.bookingService.Finalize(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

// GetEvents returns the audit trail plus the payout rows of a booking.
func (h *BookingHandler) GetEvents(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid booking id"})
	}
	trail, err := h.auditRepo.ListByEntity(c.Context(), "booking", id)
	if err != nil {
		return serviceError(c, err)
	}
	payouts, err := h.bookingService.PayoutsForBooking(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"events": trail, "payouts": payouts})
}
