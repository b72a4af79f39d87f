package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type moderationApplicationService interface {
	FileReport(ctx context.Context, reporterID string, input services.FileReportInput) (*models.Report, error)
	ListReports(ctx context.Context, adminID, statusFilter string) ([]models.Report, error)
	ResolveReport(ctx context.Context, adminID, reportID, outcome, banTargetID string) (*models.Report, error)
	BanUser(ctx context.Context, adminID, userID string) error
}

type ModerationHandler struct {
	service moderationApplicationService
}

func NewModerationHandler(service moderationApplicationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

type fileReportRequest struct {
	TargetType string  `json:"target_type"`
	TargetID   string  `json:"target_id"`
	TargetName string  `json:"target_name"`
	Reason     string  `json:"reason"`
	ChatType   *string `json:"chat_type"`
}

type resolveReportRequest struct {
	Outcome     string `json:"outcome"`
	BanTargetID string `json:"ban_target_id"`
}

func (h *ModerationHandler) FileReport(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req fileReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := h.service.FileReport(c.Context(), userID, services.FileReportInput{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		TargetName: req.TargetName,
		Reason:     req.Reason,
		ChatType:   req.ChatType,
	})
	if err != nil {
		return mapModerationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": report})
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reports, err := h.service.ListReports(c.Context(), userID, c.Query("status"))
	if err != nil {
		return mapModerationError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (h *ModerationHandler) ResolveReport(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req resolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := h.service.ResolveReport(c.Context(), userID, c.Params("id"), req.Outcome, req.BanTargetID)
	if err != nil {
		return mapModerationError(c, err)
	}
	return c.JSON(fiber.Map{"report": report})
}

func (h *ModerationHandler) BanUser(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.BanUser(c.Context(), userID, c.Params("id")); err != nil {
		return mapModerationError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func mapModerationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrAlreadyResolved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Report already resolved"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process moderation request"})
	}
}
