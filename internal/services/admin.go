package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
	"github.com/krasol/hobbyhub-backend/pkg/utils"
)

// EnsureAdminAccount seeds the tech admin on startup. A no-op when the
// credentials are not configured or the account already exists.
func EnsureAdminAccount(ctx context.Context, userRepo *repository.UserRepository, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lookup admin account: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		ID:            uuid.NewString(),
		Name:          "Admin",
		Email:         email,
		PasswordHash:  hash,
		UserType:      models.UserTypeTechAdmin,
		GalleryPhotos: []string{},
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	return nil
}
