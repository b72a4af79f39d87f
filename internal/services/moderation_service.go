package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
)

const (
	ResolutionDeleteProfile = "delete_profile"
	ResolutionBanUser       = "ban_user"
	ResolutionDismiss       = "dismiss"
)

type ModerationService struct {
	db          *pgxpool.Pool
	userRepo    *repository.UserRepository
	trainerRepo *repository.TrainerRepository
	reportRepo  *repository.ReportRepository
}

func NewModerationService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	trainerRepo *repository.TrainerRepository,
	reportRepo *repository.ReportRepository,
) *ModerationService {
	return &ModerationService{
		db:          db,
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		reportRepo:  reportRepo,
	}
}

type FileReportInput struct {
	TargetType string
	TargetID   string
	TargetName string
	Reason     string
	ChatType   *string
}

// FileReport records a complaint in PENDING state. No dedup: the same user
// may report the same target repeatedly.
func (s *ModerationService) FileReport(ctx context.Context, reporterID string, input FileReportInput) (*models.Report, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" || input.TargetID == "" {
		return nil, ErrInvalidInput
	}

	switch input.TargetType {
	case models.ReportTargetTrainerProfile, models.ReportTargetUserProfile:
		if input.ChatType != nil {
			return nil, ErrInvalidInput
		}
	case models.ReportTargetChat:
		if input.ChatType == nil {
			return nil, ErrInvalidInput
		}
		switch *input.ChatType {
		case models.ChatTypePrivate:
		case models.ChatTypeGroup:
			// Group reports target the projection key, not the raw group id.
			if _, ok := GroupIDFromKey(input.TargetID); !ok {
				return nil, ErrInvalidInput
			}
		default:
			return nil, ErrInvalidInput
		}
	default:
		return nil, ErrInvalidInput
	}

	reporter, err := s.userRepo.GetByID(ctx, reporterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	report := &models.Report{
		ID:           uuid.NewString(),
		ReporterID:   &reporter.ID,
		ReporterName: reporter.Name,
		TargetID:     input.TargetID,
		TargetType:   input.TargetType,
		TargetName:   input.TargetName,
		Reason:       reason,
		Status:       models.ReportStatusPending,
		CreatedAt:    time.Now().UnixMilli(),
		ChatType:     input.ChatType,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ModerationService) ListReports(ctx context.Context, adminID, statusFilter string) ([]models.Report, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.reportRepo.List(ctx, statusFilter)
}

// ResolveReport applies one of the three admin outcomes and stamps the
// resolution, all in one transaction. A second resolution attempt fails with
// ErrAlreadyResolved and leaves everything untouched.
//
// banTargetID is only consulted for CHAT reports, where a private chat has
// two candidate participants and the admin picks which one to ban.
func (s *ModerationService) ResolveReport(
	ctx context.Context,
	adminID string,
	reportID string,
	outcome string,
	banTargetID string,
) (*models.Report, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if admin.Role() != "admin" {
		return nil, ErrForbidden
	}

	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txTrainerRepo := repository.NewTrainerRepository(tx)
	txReportRepo := repository.NewReportRepository(tx)

	var action string
	switch outcome {
	case ResolutionDismiss:
		action = "dismissed"

	case ResolutionDeleteProfile:
		if report.TargetType != models.ReportTargetTrainerProfile {
			return nil, ErrInvalidInput
		}
		if _, err := txTrainerRepo.Delete(ctx, report.TargetID); err != nil {
			return nil, err
		}
		action = "profile deleted"

	case ResolutionBanUser:
		bannedID := ""
		switch report.TargetType {
		case models.ReportTargetUserProfile:
			bannedID = report.TargetID
		case models.ReportTargetChat:
			bannedID = banTargetID
		default:
			return nil, ErrInvalidInput
		}
		if bannedID == "" {
			return nil, ErrInvalidInput
		}
		if err := banCascade(ctx, tx, bannedID); err != nil {
			return nil, err
		}
		action = "user banned"

	default:
		return nil, ErrInvalidInput
	}

	status := models.ReportStatusActionTaken
	if outcome == ResolutionDismiss {
		status = models.ReportStatusDismissed
	}

	resolved, err := txReportRepo.ResolveIfPending(
		ctx,
		reportID,
		status,
		action,
		admin.ID,
		admin.Name,
		time.Now().UnixMilli(),
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyResolved
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return resolved, nil
}

// BanUser runs the ban cascade directly, outside any report.
func (s *ModerationService) BanUser(ctx context.Context, adminID, userID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := banCascade(ctx, tx, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *ModerationService) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if admin.Role() != "admin" {
		return ErrForbidden
	}
	return nil
}

// banCascade applies the fixed deletion order inside the caller's
// transaction. Every step is idempotent, so re-running a cascade for an
// already-banned user is harmless.
//
// Order matters: meetings are matched through trainer-profile ownership and
// must go before the profiles do.
func banCascade(ctx context.Context, tx pgx.Tx, userID string) error {
	txUserRepo := repository.NewUserRepository(tx)
	txTrainerRepo := repository.NewTrainerRepository(tx)
	txMeetingRepo := repository.NewMeetingRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)
	txGroupRepo := repository.NewGroupChatRepository(tx)
	txClearedRepo := repository.NewClearedChatRepository(tx)

	if _, err := txUserRepo.SetBanned(ctx, userID, true); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if err := txMeetingRepo.DeleteForBannedUser(ctx, userID); err != nil {
		return err
	}
	if err := txTrainerRepo.DeleteByOwner(ctx, userID); err != nil {
		return err
	}
	if err := txMessageRepo.DeleteForBannedUser(ctx, userID); err != nil {
		return err
	}

	ownedGroups, err := txGroupRepo.ListCreatedBy(ctx, userID)
	if err != nil {
		return err
	}
	for _, groupID := range ownedGroups {
		if err := txMessageRepo.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		if err := txClearedRepo.DeleteByChat(ctx, GroupChatKey(groupID)); err != nil {
			return err
		}
		if _, err := txGroupRepo.Delete(ctx, groupID); err != nil {
			return err
		}
	}

	if err := txGroupRepo.RemoveMemberEverywhere(ctx, userID); err != nil {
		return err
	}
	return txClearedRepo.DeleteByUser(ctx, userID)
}
