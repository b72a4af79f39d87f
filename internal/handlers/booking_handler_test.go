package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
)

type stubBookingService struct {
	requestFn func(ctx context.Context, clientID, trainerID, date, timeSlot string) (*services.BookingResult, error)
	respondFn func(ctx context.Context, actorID, meetingID string, accept bool) (*models.Meeting, error)
	releaseFn func(ctx context.Context, actorID, meetingID string) (*models.Meeting, error)
}

func (s *stubBookingService) RequestBooking(ctx context.Context, clientID, trainerID, date, timeSlot string) (*services.BookingResult, error) {
	return s.requestFn(ctx, clientID, trainerID, date, timeSlot)
}

func (s *stubBookingService) RespondToBooking(ctx context.Context, actorID, meetingID string, accept bool) (*models.Meeting, error) {
	return s.respondFn(ctx, actorID, meetingID, accept)
}

func (s *stubBookingService) ReleasePayment(ctx context.Context, actorID, meetingID string) (*models.Meeting, error) {
	return s.releaseFn(ctx, actorID, meetingID)
}

func (s *stubBookingService) GetMeeting(context.Context, string, string) (*models.Meeting, error) {
	return nil, nil
}

func (s *stubBookingService) ListClientMeetings(context.Context, string) ([]models.Meeting, error) {
	return nil, nil
}

func (s *stubBookingService) ListTrainerMeetings(context.Context, string) ([]models.Meeting, error) {
	return nil, nil
}

func newBookingTestApp(service bookingApplicationService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "client-1")
		c.Locals("role", "user")
		return c.Next()
	})
	handler := NewBookingHandler(service)
	app.Post("/meetings", handler.RequestBooking)
	app.Post("/meetings/:id/respond", handler.Respond)
	app.Post("/meetings/:id/release", handler.ReleasePayment)
	return app
}

func TestRequestBookingCreated(t *testing.T) {
	service := &stubBookingService{
		requestFn: func(_ context.Context, clientID, trainerID, date, timeSlot string) (*services.BookingResult, error) {
			if clientID != "client-1" || trainerID != "tr-9" || date != "20.12.2030" || timeSlot != "14:00" {
				t.Errorf("unexpected args: %s %s %s %s", clientID, trainerID, date, timeSlot)
			}
			return &services.BookingResult{
				Meeting: &models.Meeting{ID: "m-1", Status: models.MeetingPending},
				Message: &models.Message{ID: "msg-1"},
				Balance: 200,
			}, nil
		},
	}
	app := newBookingTestApp(service)

	req := httptest.NewRequest("POST", "/meetings", strings.NewReader(`{"trainer_id":"tr-9","date":"20.12.2030","time":"14:00"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body services.BookingResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Meeting == nil || body.Meeting.ID != "m-1" || body.Balance != 200 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestBookingErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient funds", services.ErrInsufficientFunds, fiber.StatusPaymentRequired},
		{"self booking", services.ErrSelfBooking, fiber.StatusUnprocessableEntity},
		{"trainer missing", services.ErrTrainerNotFound, fiber.StatusNotFound},
		{"invalid input", services.ErrInvalidInput, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubBookingService{
				requestFn: func(context.Context, string, string, string, string) (*services.BookingResult, error) {
					return nil, tt.err
				},
			}
			app := newBookingTestApp(service)

			req := httptest.NewRequest("POST", "/meetings", strings.NewReader(`{"trainer_id":"tr-9","date":"x","time":"y"}`))
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

func TestRespondConflictOnDoubleResolve(t *testing.T) {
	service := &stubBookingService{
		respondFn: func(context.Context, string, string, bool) (*models.Meeting, error) {
			return nil, services.ErrAlreadyResolved
		},
	}
	app := newBookingTestApp(service)

	req := httptest.NewRequest("POST", "/meetings/m-1/respond", strings.NewReader(`{"accept":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestReleaseSurfacesEligibilityReason(t *testing.T) {
	service := &stubBookingService{
		releaseFn: func(context.Context, string, string) (*models.Meeting, error) {
			return nil, fmt.Errorf("%w: meeting not completed yet", services.ErrNotEligible)
		},
	}
	app := newBookingTestApp(service)

	req := httptest.NewRequest("POST", "/meetings/m-1/release", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "meeting not completed yet") {
		t.Errorf("error body %q does not carry the reason", body.Error)
	}
}
