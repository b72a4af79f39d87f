package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type groupApplicationService interface {
	CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*models.GroupChat, error)
	GetGroup(ctx context.Context, actorID, groupID string) (*models.GroupChat, error)
	ListGroupsFor(ctx context.Context, userID string) ([]models.GroupChat, error)
	InviteToGroup(ctx context.Context, actorID, groupID, userID string) (*models.GroupChat, error)
	LeaveGroup(ctx context.Context, actorID, groupID string) (*models.GroupChat, error)
	RenameGroup(ctx context.Context, actorID, groupID, name string) (*models.GroupChat, error)
	SetGroupPhoto(ctx context.Context, actorID, groupID, photoPath string) (*models.GroupChat, error)
	DeleteGroup(ctx context.Context, actorID, groupID string) error
	ListGroupMessages(ctx context.Context, actorID, groupID string) ([]models.Message, error)
	SendGroup(ctx context.Context, senderID, groupID string, input services.SendMessageInput) (*models.Message, error)
	MarkGroupRead(ctx context.Context, actorID, groupID string) error
}

type GroupHandler struct {
	service groupApplicationService
}

func NewGroupHandler(service groupApplicationService) *GroupHandler {
	return &GroupHandler{service: service}
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
}

type renameGroupRequest struct {
	Name string `json:"name"`
}

type groupPhotoRequest struct {
	PhotoPath string `json:"photo_path"`
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := h.service.CreateGroup(c.Context(), userID, req.Name, req.Members)
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	groups, err := h.service.ListGroupsFor(c.Context(), userID)
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	group, err := h.service.GetGroup(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) Invite(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := h.service.InviteToGroup(c.Context(), userID, c.Params("id"), req.UserID)
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) Leave(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	group, err := h.service.LeaveGroup(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) Rename(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req renameGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := h.service.RenameGroup(c.Context(), userID, c.Params("id"), req.Name)
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) SetPhoto(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req groupPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := h.service.SetGroupPhoto(c.Context(), userID, c.Params("id"), req.PhotoPath)
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.DeleteGroup(c.Context(), userID, c.Params("id")); err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, err := h.service.ListGroupMessages(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{
		"messages":   paginate(messages, page, limit),
		"pagination": buildPaginationMeta(page, limit, len(messages)),
	})
}

func (h *GroupHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.SendGroup(c.Context(), userID, c.Params("id"), services.SendMessageInput{
		Text:           req.Text,
		AttachmentType: req.AttachmentType,
		AttachmentPath: req.AttachmentPath,
	})
	if err != nil {
		return mapGroupError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *GroupHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.MarkGroupRead(c.Context(), userID, c.Params("id")); err != nil {
		return mapGroupError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func mapGroupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process group request"})
	}
}
