package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
	chatws "github.com/krasol/hobbyhub-backend/internal/websocket"
	"github.com/krasol/hobbyhub-backend/pkg/utils"
)

type chatApplicationService interface {
	SendDirect(ctx context.Context, senderID, receiverID string, input services.SendMessageInput) (*models.Message, error)
	SendGroup(ctx context.Context, senderID, groupID string, input services.SendMessageInput) (*models.Message, error)
	ListDirectMessages(ctx context.Context, actorID, peerID string) ([]models.Message, error)
	EditMessage(ctx context.Context, actorID, messageID, newText string) (*models.Message, error)
	DeleteMessage(ctx context.Context, actorID, messageID string) (*models.Message, error)
	MarkDirectRead(ctx context.Context, actorID, peerID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	UnreadFeed(ctx context.Context, userID string) ([]models.Message, error)
	ChatListFor(ctx context.Context, userID string) ([]models.ChatSummary, error)
	ClearForUser(ctx context.Context, userID, chatID string) error
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

type sendMessageRequest struct {
	Text           string  `json:"text"`
	AttachmentType *string `json:"attachment_type"`
	AttachmentPath *string `json:"attachment_path"`
}

type editMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	chats, err := h.service.ChatListFor(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"chats": chats})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	peerID := c.Params("peerId")
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, err := h.service.ListDirectMessages(c.Context(), userID, peerID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages":   paginate(messages, page, limit),
		"pagination": buildPaginationMeta(page, limit, len(messages)),
	})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.SendDirect(c.Context(), userID, c.Params("peerId"), services.SendMessageInput{
		Text:           req.Text,
		AttachmentType: req.AttachmentType,
		AttachmentPath: req.AttachmentPath,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.MarkDirectRead(c.Context(), userID, c.Params("peerId")); err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req editMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.EditMessage(c.Context(), userID, c.Params("id"), req.Text)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	message, err := h.service.DeleteMessage(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

// ClearChat hides a conversation from the caller's list only. The param is
// the full chat key, "group_"-prefixed for groups.
func (h *ChatHandler) ClearChat(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	chatID := strings.TrimSpace(c.Params("chatId"))
	if err := h.service.ClearForUser(c.Context(), userID, chatID); err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ChatHandler) Notifications(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	messages, err := h.service.UnreadFeed(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": messages})
}

func (h *ChatHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	count, err := h.service.UnreadCount(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
