package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type bookingApplicationService interface {
	RequestBooking(ctx context.Context, clientID, trainerID, date, timeSlot string) (*services.BookingResult, error)
	RespondToBooking(ctx context.Context, actorID, meetingID string, accept bool) (*models.Meeting, error)
	ReleasePayment(ctx context.Context, actorID, meetingID string) (*models.Meeting, error)
	GetMeeting(ctx context.Context, actorID, meetingID string) (*models.Meeting, error)
	ListClientMeetings(ctx context.Context, userID string) ([]models.Meeting, error)
	ListTrainerMeetings(ctx context.Context, ownerID string) ([]models.Meeting, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service bookingApplicationService) *BookingHandler {
	return &BookingHandler{service: service}
}

type requestBookingRequest struct {
	TrainerID string `json:"trainer_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type respondBookingRequest struct {
	Accept bool `json:"accept"`
}

func (h *BookingHandler) RequestBooking(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req requestBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.RequestBooking(c.Context(), userID, req.TrainerID, req.Date, req.Time)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *BookingHandler) Respond(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req respondBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	meeting, err := h.service.RespondToBooking(c.Context(), userID, c.Params("id"), req.Accept)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"meeting": meeting})
}

func (h *BookingHandler) ReleasePayment(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	meeting, err := h.service.ReleasePayment(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"meeting": meeting})
}

func (h *BookingHandler) GetMeeting(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	meeting, err := h.service.GetMeeting(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"meeting": meeting})
}

// ListMeetings returns the client side by default; trainers pass ?side=trainer
// to see bookings against their listings.
func (h *BookingHandler) ListMeetings(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var meetings []models.Meeting
	if c.Query("side") == "trainer" {
		meetings, err = h.service.ListTrainerMeetings(c.Context(), userID)
	} else {
		meetings, err = h.service.ListClientMeetings(c.Context(), userID)
	}
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"meetings": meetings})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient balance"})
	case errors.Is(err, services.ErrSelfBooking):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Cannot book your own profile"})
	case errors.Is(err, services.ErrAlreadyResolved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Meeting already resolved"})
	case errors.Is(err, services.ErrNotEligible):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Meeting not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
