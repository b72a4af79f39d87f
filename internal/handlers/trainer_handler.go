package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type profileApplicationService interface {
	CreateTrainerProfile(ctx context.Context, ownerID string, input services.TrainerInput) (*models.Trainer, error)
	UpdateTrainerProfile(ctx context.Context, ownerID, trainerID string, input services.TrainerInput) (*models.Trainer, error)
	DeleteTrainerProfile(ctx context.Context, ownerID, trainerID string) error
	GetTrainer(ctx context.Context, trainerID string) (*models.Trainer, error)
	ListTrainers(ctx context.Context) ([]models.Trainer, error)
	ListOwnProfiles(ctx context.Context, ownerID string) ([]models.Trainer, error)
	AddReview(ctx context.Context, authorID, trainerID string, rating float32, text string) (*models.Review, error)
	ListReviews(ctx context.Context, trainerID string) ([]models.Review, error)
	TopUpBalance(ctx context.Context, userID string, amount int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID, name, description string) (*models.User, error)
	SetAvatar(ctx context.Context, userID, avatar string) (*models.User, error)
	AddGalleryPhoto(ctx context.Context, userID, photoPath string) (*models.User, error)
	RemoveGalleryPhoto(ctx context.Context, userID, photoPath string) (*models.User, error)
}

type TrainerHandler struct {
	service profileApplicationService
}

func NewTrainerHandler(service profileApplicationService) *TrainerHandler {
	return &TrainerHandler{service: service}
}

type trainerRequest struct {
	Category      string   `json:"category"`
	HobbyName     string   `json:"hobby_name"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	Gender        *string  `json:"gender"`
	Avatar        string   `json:"avatar"`
	AvailableTime string   `json:"available_time"`
	AvailableDays []int32  `json:"available_days"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Photos        []string `json:"photos"`
}

func (r trainerRequest) toInput() services.TrainerInput {
	return services.TrainerInput{
		Category:      r.Category,
		HobbyName:     r.HobbyName,
		Description:   r.Description,
		Price:         r.Price,
		Gender:        r.Gender,
		Avatar:        r.Avatar,
		AvailableTime: r.AvailableTime,
		AvailableDays: r.AvailableDays,
		Address:       r.Address,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Photos:        r.Photos,
	}
}

type reviewRequest struct {
	Rating float32 `json:"rating"`
	Text   string  `json:"text"`
}

type topUpRequest struct {
	Amount int64 `json:"amount"`
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type photoRequest struct {
	Path string `json:"path"`
}

func (h *TrainerHandler) ListTrainers(c *fiber.Ctx) error {
	trainers, err := h.service.ListTrainers(c.Context())
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"trainers": trainers})
}

func (h *TrainerHandler) GetTrainer(c *fiber.Ctx) error {
	trainer, err := h.service.GetTrainer(c.Context(), c.Params("id"))
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) CreateTrainer(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req trainerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	trainer, err := h.service.CreateTrainerProfile(c.Context(), userID, req.toInput())
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) UpdateTrainer(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req trainerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	trainer, err := h.service.UpdateTrainerProfile(c.Context(), userID, c.Params("id"), req.toInput())
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) DeleteTrainer(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.DeleteTrainerProfile(c.Context(), userID, c.Params("id")); err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *TrainerHandler) ListOwnProfiles(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	trainers, err := h.service.ListOwnProfiles(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"trainers": trainers})
}

func (h *TrainerHandler) AddReview(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	review, err := h.service.AddReview(c.Context(), userID, c.Params("id"), req.Rating, req.Text)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}

func (h *TrainerHandler) ListReviews(c *fiber.Ctx) error {
	reviews, err := h.service.ListReviews(c.Context(), c.Params("id"))
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

func (h *TrainerHandler) TopUpBalance(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.TopUpBalance(c.Context(), userID, req.Amount)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *TrainerHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.UpdateUserProfile(c.Context(), userID, req.Name, req.Description)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *TrainerHandler) SetAvatar(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req photoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.SetAvatar(c.Context(), userID, req.Path)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *TrainerHandler) AddGalleryPhoto(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req photoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.AddGalleryPhoto(c.Context(), userID, req.Path)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *TrainerHandler) RemoveGalleryPhoto(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req photoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.RemoveGalleryPhoto(c.Context(), userID, req.Path)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process profile request"})
	}
}
