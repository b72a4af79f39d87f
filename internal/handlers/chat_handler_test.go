package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type stubChatService struct {
	sendDirectFn func(ctx context.Context, senderID, receiverID string, input services.SendMessageInput) (*models.Message, error)
	listFn       func(ctx context.Context, actorID, peerID string) ([]models.Message, error)
	clearFn      func(ctx context.Context, userID, chatID string) error
	countFn      func(ctx context.Context, userID string) (int, error)
}

func (s *stubChatService) SendDirect(ctx context.Context, senderID, receiverID string, input services.SendMessageInput) (*models.Message, error) {
	return s.sendDirectFn(ctx, senderID, receiverID, input)
}

func (s *stubChatService) SendGroup(context.Context, string, string, services.SendMessageInput) (*models.Message, error) {
	return nil, nil
}

func (s *stubChatService) ListDirectMessages(ctx context.Context, actorID, peerID string) ([]models.Message, error) {
	return s.listFn(ctx, actorID, peerID)
}

func (s *stubChatService) EditMessage(context.Context, string, string, string) (*models.Message, error) {
	return nil, nil
}

func (s *stubChatService) DeleteMessage(context.Context, string, string) (*models.Message, error) {
	return nil, nil
}

func (s *stubChatService) MarkDirectRead(context.Context, string, string) error {
	return nil
}

func (s *stubChatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.countFn(ctx, userID)
}

func (s *stubChatService) UnreadFeed(context.Context, string) ([]models.Message, error) {
	return nil, nil
}

func (s *stubChatService) ChatListFor(context.Context, string) ([]models.ChatSummary, error) {
	return nil, nil
}

func (s *stubChatService) ClearForUser(ctx context.Context, userID, chatID string) error {
	return s.clearFn(ctx, userID, chatID)
}

func newChatTestApp(service chatApplicationService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "alice")
		c.Locals("role", "user")
		return c.Next()
	})
	handler := NewChatHandler(service, nil, "test-secret")
	app.Get("/chats/:peerId/messages", handler.GetMessages)
	app.Post("/chats/:peerId/messages", handler.SendMessage)
	app.Delete("/chats/:chatId", handler.ClearChat)
	app.Get("/notifications/count", handler.UnreadCount)
	return app
}

func TestSendMessageCreated(t *testing.T) {
	service := &stubChatService{
		sendDirectFn: func(_ context.Context, senderID, receiverID string, input services.SendMessageInput) (*models.Message, error) {
			if senderID != "alice" || receiverID != "bob" || input.Text != "hello" {
				t.Errorf("unexpected args: %s %s %q", senderID, receiverID, input.Text)
			}
			return &models.Message{ID: "m-1", Text: "hello"}, nil
		},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest("POST", "/chats/bob/messages", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestSendMessageErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", services.ErrInvalidInput, fiber.StatusBadRequest},
		{"forbidden", services.ErrForbidden, fiber.StatusForbidden},
		{"receiver missing", services.ErrUserNotFound, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubChatService{
				sendDirectFn: func(context.Context, string, string, services.SendMessageInput) (*models.Message, error) {
					return nil, tt.err
				},
			}
			app := newChatTestApp(service)

			req := httptest.NewRequest("POST", "/chats/bob/messages", strings.NewReader(`{"text":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGetMessagesPaginates(t *testing.T) {
	messages := make([]models.Message, 0, 120)
	for i := 0; i < 120; i++ {
		messages = append(messages, models.Message{ID: "m", Text: "x"})
	}
	service := &stubChatService{
		listFn: func(context.Context, string, string) ([]models.Message, error) {
			return messages, nil
		},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/chats/bob/messages?page=2&limit=50", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Messages   []models.Message      `json:"messages"`
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 50 {
		t.Errorf("page size = %d, want 50", len(body.Messages))
	}
	if body.Pagination.Total != 120 || body.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", body.Pagination)
	}
}

func TestClearChatPassesFullKey(t *testing.T) {
	var gotChatID string
	service := &stubChatService{
		clearFn: func(_ context.Context, _, chatID string) error {
			gotChatID = chatID
			return nil
		},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/chats/group_g1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotChatID != "group_g1" {
		t.Errorf("chat id = %q, want group_g1", gotChatID)
	}
}

func TestUnreadCount(t *testing.T) {
	service := &stubChatService{
		countFn: func(context.Context, string) (int, error) {
			return 4, nil
		},
	}
	app := newChatTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/notifications/count", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 4 {
		t.Errorf("count = %d, want 4", body.Count)
	}
}
