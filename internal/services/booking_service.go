package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
)

// meetingTimeLayout is the textual slot format carried on meetings.
const meetingTimeLayout = "02.01.2006 15:04"

type BookingService struct {
	db          *pgxpool.Pool
	userRepo    *repository.UserRepository
	trainerRepo *repository.TrainerRepository
	meetingRepo *repository.MeetingRepository
	notifier    Notifier
}

func NewBookingService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	trainerRepo *repository.TrainerRepository,
	meetingRepo *repository.MeetingRepository,
	notifier Notifier,
) *BookingService {
	return &BookingService{
		db:          db,
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		meetingRepo: meetingRepo,
		notifier:    notifier,
	}
}

type BookingResult struct {
	Meeting *models.Meeting `json:"meeting"`
	Message *models.Message `json:"message"`
	Balance int64           `json:"balance"`
}

// RequestBooking debits the client up front and creates a pending, already
// paid meeting plus the chat message that surfaces it as an actionable card
// in the client / trainer-owner conversation. One transaction: either the
// debit, the meeting and the message all land, or none do.
func (s *BookingService) RequestBooking(
	ctx context.Context,
	clientID string,
	trainerID string,
	date string,
	timeSlot string,
) (*BookingResult, error) {
	date = strings.TrimSpace(date)
	timeSlot = strings.TrimSpace(timeSlot)
	if trainerID == "" || date == "" || timeSlot == "" {
		return nil, ErrInvalidInput
	}

	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	ownerID := trainer.OwnerID()
	if ownerID == clientID {
		return nil, ErrSelfBooking
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txMeetingRepo := repository.NewMeetingRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)

	client, err := txUserRepo.GetByIDForUpdate(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if client.Balance < trainer.Price {
		return nil, ErrInsufficientFunds
	}

	client, err = txUserRepo.AdjustBalance(ctx, clientID, -trainer.Price)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	meeting := &models.Meeting{
		ID:         uuid.NewString(),
		TrainerID:  trainerID,
		UserID:     clientID,
		Date:       date,
		Time:       timeSlot,
		Status:     models.MeetingPending,
		CreatedAt:  now,
		IsPaid:     true,
		AmountPaid: trainer.Price,
	}
	if err := txMeetingRepo.Create(ctx, meeting); err != nil {
		return nil, err
	}

	chatID := ChatIDFor(clientID, ownerID)
	message := &models.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		SenderID:   clientID,
		ReceiverID: ownerID,
		Text:       fmt.Sprintf("Meeting request for %s %s", date, timeSlot),
		Timestamp:  now,
		MeetingID:  &meeting.ID,
	}
	if err := txMessageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := txClearedRepo.RemoveForParticipants(ctx, chatID, []string{clientID, ownerID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(ownerID, message)
	return &BookingResult{Meeting: meeting, Message: message, Balance: client.Balance}, nil
}

// RespondToBooking resolves a pending meeting exactly once. Accept copies the
// requested slot into the trainer-selected fields; reject refunds the escrow
// and keeps the meeting as a rejected record. Either way a system message
// with the same meeting id lands in the chat so the existing card re-renders.
func (s *BookingService) RespondToBooking(
	ctx context.Context,
	actorID string,
	meetingID string,
	accept bool,
) (*models.Meeting, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txMeetingRepo := repository.NewMeetingRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)

	meeting, err := txMeetingRepo.GetByIDForUpdate(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.trainerOwner(ctx, meeting.TrainerID)
	if err != nil {
		return nil, err
	}
	if ownerID != actorID {
		return nil, ErrForbidden
	}

	var updated *models.Meeting
	var text string
	if accept {
		updated, err = txMeetingRepo.ResolveIfPending(
			ctx,
			meetingID,
			models.MeetingConfirmed,
			&meeting.Date,
			&meeting.Time,
			meeting.IsPaid,
			meeting.AmountPaid,
		)
		text = fmt.Sprintf("Meeting confirmed for %s %s", meeting.Date, meeting.Time)
	} else {
		updated, err = txMeetingRepo.ResolveIfPending(
			ctx,
			meetingID,
			models.MeetingRejected,
			nil,
			nil,
			false,
			0,
		)
		text = "Meeting request declined"
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyResolved
		}
		return nil, err
	}

	if !accept && meeting.IsPaid {
		if _, err := txUserRepo.AdjustBalance(ctx, meeting.UserID, meeting.AmountPaid); err != nil {
			return nil, err
		}
	}

	chatID := ChatIDFor(meeting.UserID, ownerID)
	message := &models.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		SenderID:   SystemSenderID,
		ReceiverID: meeting.UserID,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
		MeetingID:  &meeting.ID,
	}
	if err := txMessageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := txClearedRepo.RemoveForParticipants(ctx, chatID, []string{meeting.UserID, ownerID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.Notify(meeting.UserID, message)
	return updated, nil
}

// ReleasePayment is the client-initiated escrow release: confirmed, paid,
// past-due, never released before. Credits the trainer owner exactly once.
func (s *BookingService) ReleasePayment(ctx context.Context, actorID, meetingID string) (*models.Meeting, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txMeetingRepo := repository.NewMeetingRepository(tx)

	meeting, err := txMeetingRepo.GetByIDForUpdate(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.UserID != actorID {
		return nil, ErrForbidden
	}
	if meeting.Status != models.MeetingConfirmed {
		return nil, fmt.Errorf("%w: meeting not confirmed", ErrNotEligible)
	}
	if !meeting.IsPaid {
		return nil, fmt.Errorf("%w: meeting not paid", ErrNotEligible)
	}
	if meeting.IsPaymentReleased {
		return nil, fmt.Errorf("%w: payment already released", ErrNotEligible)
	}
	if !meetingOverdue(meeting, time.Now()) {
		return nil, fmt.Errorf("%w: meeting not completed yet", ErrNotEligible)
	}

	updated, err := txMeetingRepo.ReleasePaymentOnce(ctx, meetingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment already released", ErrNotEligible)
		}
		return nil, err
	}

	ownerID, err := s.trainerOwner(ctx, meeting.TrainerID)
	if err != nil {
		return nil, err
	}
	if _, err := txUserRepo.AdjustBalance(ctx, ownerID, meeting.AmountPaid); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BookingService) GetMeeting(ctx context.Context, actorID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.UserID == actorID {
		return meeting, nil
	}
	ownerID, err := s.trainerOwner(ctx, meeting.TrainerID)
	if err != nil {
		return nil, err
	}
	if ownerID != actorID {
		return nil, ErrForbidden
	}
	return meeting, nil
}

func (s *BookingService) ListClientMeetings(ctx context.Context, userID string) ([]models.Meeting, error) {
	return s.meetingRepo.ListForClient(ctx, userID)
}

func (s *BookingService) ListTrainerMeetings(ctx context.Context, ownerID string) ([]models.Meeting, error) {
	return s.meetingRepo.ListForTrainerOwner(ctx, ownerID)
}

// trainerOwner resolves the user behind a trainer profile id. When the
// profile is gone (deleted listing, legacy data) the raw trainer id is
// treated as the owner id.
func (s *BookingService) trainerOwner(ctx context.Context, trainerID string) (string, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trainerID, nil
		}
		return "", err
	}
	return trainer.OwnerID(), nil
}

// meetingOverdue reports whether the effective slot is strictly in the past.
// Unparsable slots fail closed: no release.
func meetingOverdue(meeting *models.Meeting, now time.Time) bool {
	date, timeSlot := meeting.EffectiveDateTime()
	scheduled, err := time.ParseInLocation(meetingTimeLayout, date+" "+timeSlot, time.Local)
	if err != nil {
		return false
	}
	return scheduled.Before(now)
}
