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

type stubModerationService struct {
	fileFn    func(ctx context.Context, reporterID string, input services.FileReportInput) (*models.Report, error)
	listFn    func(ctx context.Context, adminID, statusFilter string) ([]models.Report, error)
	resolveFn func(ctx context.Context, adminID, reportID, outcome, banTargetID string) (*models.Report, error)
	banFn     func(ctx context.Context, adminID, userID string) error
}

func (s *stubModerationService) FileReport(ctx context.Context, reporterID string, input services.FileReportInput) (*models.Report, error) {
	return s.fileFn(ctx, reporterID, input)
}

func (s *stubModerationService) ListReports(ctx context.Context, adminID, statusFilter string) ([]models.Report, error) {
	return s.listFn(ctx, adminID, statusFilter)
}

func (s *stubModerationService) ResolveReport(ctx context.Context, adminID, reportID, outcome, banTargetID string) (*models.Report, error) {
	return s.resolveFn(ctx, adminID, reportID, outcome, banTargetID)
}

func (s *stubModerationService) BanUser(ctx context.Context, adminID, userID string) error {
	return s.banFn(ctx, adminID, userID)
}

func newModerationTestApp(service moderationApplicationService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "admin-1")
		c.Locals("role", "admin")
		return c.Next()
	})
	handler := NewModerationHandler(service)
	app.Post("/reports", handler.FileReport)
	app.Get("/reports", handler.ListReports)
	app.Post("/reports/:id/resolve", handler.ResolveReport)
	app.Post("/users/:id/ban", handler.BanUser)
	return app
}

func TestFileReportCreated(t *testing.T) {
	service := &stubModerationService{
		fileFn: func(_ context.Context, reporterID string, input services.FileReportInput) (*models.Report, error) {
			if reporterID != "admin-1" {
				t.Errorf("reporter = %q", reporterID)
			}
			if input.TargetType != models.ReportTargetChat || input.ChatType == nil || *input.ChatType != "private" {
				t.Errorf("unexpected input: %+v", input)
			}
			return &models.Report{ID: "r-1", Status: models.ReportStatusPending}, nil
		},
	}
	app := newModerationTestApp(service)

	body := `{"target_type":"CHAT","target_id":"alice_bob","reason":"spam","chat_type":"private"}`
	req := httptest.NewRequest("POST", "/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestListReportsPassesStatusFilter(t *testing.T) {
	var gotFilter string
	service := &stubModerationService{
		listFn: func(_ context.Context, _, statusFilter string) ([]models.Report, error) {
			gotFilter = statusFilter
			return []models.Report{{ID: "r-1"}}, nil
		},
	}
	app := newModerationTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/reports?status=PENDING", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotFilter != "PENDING" {
		t.Errorf("filter = %q, want PENDING", gotFilter)
	}

	var body struct {
		Reports []models.Report `json:"reports"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reports) != 1 {
		t.Errorf("reports = %+v", body.Reports)
	}
}

func TestResolveReportErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"already resolved", services.ErrAlreadyResolved, fiber.StatusConflict},
		{"not admin", services.ErrForbidden, fiber.StatusForbidden},
		{"bad outcome", services.ErrInvalidInput, fiber.StatusBadRequest},
		{"missing user", services.ErrUserNotFound, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubModerationService{
				resolveFn: func(context.Context, string, string, string, string) (*models.Report, error) {
					return nil, tt.err
				},
			}
			app := newModerationTestApp(service)

			req := httptest.NewRequest("POST", "/reports/r-1/resolve", strings.NewReader(`{"outcome":"dismiss"}`))
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

func TestBanUserOK(t *testing.T) {
	var banned string
	service := &stubModerationService{
		banFn: func(_ context.Context, adminID, userID string) error {
			if adminID != "admin-1" {
				t.Errorf("admin = %q", adminID)
			}
			banned = userID
			return nil
		},
	}
	app := newModerationTestApp(service)

	resp, err := app.Test(httptest.NewRequest("POST", "/users/u-7/ban", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if banned != "u-7" {
		t.Errorf("banned = %q, want u-7", banned)
	}
}
