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

type ProfileService struct {
	db          *pgxpool.Pool
	userRepo    *repository.UserRepository
	trainerRepo *repository.TrainerRepository
	reviewRepo  *repository.ReviewRepository
}

func NewProfileService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	trainerRepo *repository.TrainerRepository,
	reviewRepo *repository.ReviewRepository,
) *ProfileService {
	return &ProfileService{
		db:          db,
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		reviewRepo:  reviewRepo,
	}
}

type TrainerInput struct {
	Category      string
	HobbyName     string
	Description   string
	Price         int64
	Gender        *string
	Avatar        string
	AvailableTime string
	AvailableDays []int32
	Address       string
	Latitude      *float64
	Longitude     *float64
	Photos        []string
}

// CreateTrainerProfile creates a new listing owned by the actor. The listing
// name is denormalized from the owner and refreshed on rename. Trainer
// accounts only.
func (s *ProfileService) CreateTrainerProfile(ctx context.Context, ownerID string, input TrainerInput) (*models.Trainer, error) {
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if owner.Role() != "trainer" {
		return nil, ErrForbidden
	}
	if input.Price <= 0 {
		return nil, ErrInvalidInput
	}

	trainer := &models.Trainer{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		Name:          owner.Name,
		Category:      strings.TrimSpace(input.Category),
		HobbyName:     strings.TrimSpace(input.HobbyName),
		Description:   input.Description,
		Price:         input.Price,
		Gender:        input.Gender,
		Avatar:        input.Avatar,
		AvailableTime: input.AvailableTime,
		AvailableDays: input.AvailableDays,
		Address:       input.Address,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Photos:        input.Photos,
	}
	if trainer.AvailableDays == nil {
		trainer.AvailableDays = []int32{}
	}
	if trainer.Photos == nil {
		trainer.Photos = []string{}
	}
	if err := s.trainerRepo.Upsert(ctx, trainer); err != nil {
		return nil, err
	}
	return trainer, nil
}

func (s *ProfileService) UpdateTrainerProfile(ctx context.Context, ownerID, trainerID string, input TrainerInput) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if trainer.OwnerID() != ownerID {
		return nil, ErrForbidden
	}
	if input.Price <= 0 {
		return nil, ErrInvalidInput
	}

	trainer.Category = strings.TrimSpace(input.Category)
	trainer.HobbyName = strings.TrimSpace(input.HobbyName)
	trainer.Description = input.Description
	trainer.Price = input.Price
	trainer.Gender = input.Gender
	trainer.Avatar = input.Avatar
	trainer.AvailableTime = input.AvailableTime
	trainer.AvailableDays = input.AvailableDays
	trainer.Address = input.Address
	trainer.Latitude = input.Latitude
	trainer.Longitude = input.Longitude
	trainer.Photos = input.Photos
	if trainer.AvailableDays == nil {
		trainer.AvailableDays = []int32{}
	}
	if trainer.Photos == nil {
		trainer.Photos = []string{}
	}

	if err := s.trainerRepo.Upsert(ctx, trainer); err != nil {
		return nil, err
	}
	return s.withRating(ctx, trainer)
}

func (s *ProfileService) DeleteTrainerProfile(ctx context.Context, ownerID, trainerID string) error {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTrainerNotFound
		}
		return err
	}
	if trainer.OwnerID() != ownerID {
		return ErrForbidden
	}
	_, err = s.trainerRepo.Delete(ctx, trainerID)
	return err
}

func (s *ProfileService) GetTrainer(ctx context.Context, trainerID string) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return s.withRating(ctx, trainer)
}

// ListTrainers returns the catalog with ratings recomputed from reviews in a
// single aggregate pass.
func (s *ProfileService) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	trainers, err := s.trainerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.applyRatings(ctx, trainers)
}

func (s *ProfileService) ListOwnProfiles(ctx context.Context, ownerID string) ([]models.Trainer, error) {
	trainers, err := s.trainerRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.applyRatings(ctx, trainers)
}

func (s *ProfileService) applyRatings(ctx context.Context, trainers []models.Trainer) ([]models.Trainer, error) {
	averages, err := s.reviewRepo.AveragesByTrainer(ctx)
	if err != nil {
		return nil, err
	}
	for i := range trainers {
		trainers[i].Rating = averages[trainers[i].ID]
	}
	return trainers, nil
}

func (s *ProfileService) withRating(ctx context.Context, trainer *models.Trainer) (*models.Trainer, error) {
	rating, err := s.reviewRepo.AverageForTrainer(ctx, trainer.ID)
	if err != nil {
		return nil, err
	}
	trainer.Rating = rating
	return trainer, nil
}

func (s *ProfileService) AddReview(ctx context.Context, authorID, trainerID string, rating float32, text string) (*models.Review, error) {
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidInput
	}
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if trainer.OwnerID() == authorID {
		return nil, ErrInvalidInput
	}
	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		TrainerID: trainerID,
		UserID:    authorID,
		UserName:  author.Name,
		Rating:    rating,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ProfileService) ListReviews(ctx context.Context, trainerID string) ([]models.Review, error) {
	return s.reviewRepo.ListForTrainer(ctx, trainerID)
}

// TopUpBalance is the demo wallet deposit.
func (s *ProfileService) TopUpBalance(ctx context.Context, userID string, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.AdjustBalance(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserProfile renames the account and propagates the new name to every
// listing the user owns, in one transaction.
func (s *ProfileService) UpdateUserProfile(ctx context.Context, userID, name, description string) (*models.User, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txTrainerRepo := repository.NewTrainerRepository(tx)

	user, err := txUserRepo.UpdateProfile(ctx, userID, trimmed, description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := txTrainerRepo.UpdateNameForOwner(ctx, userID, trimmed); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) SetAvatar(ctx context.Context, userID, avatar string) (*models.User, error) {
	user, err := s.userRepo.UpdateAvatar(ctx, userID, avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) AddGalleryPhoto(ctx context.Context, userID, photoPath string) (*models.User, error) {
	if photoPath == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.AddGalleryPhoto(ctx, userID, photoPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) RemoveGalleryPhoto(ctx context.Context, userID, photoPath string) (*models.User, error) {
	user, err := s.userRepo.RemoveGalleryPhoto(ctx, userID, photoPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
