package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

// integrationTestPool returns a shared pool for integration tests, skipping
// the test when DB_URL is not configured.
func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("..", "..", ".env"))

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		t.Skip("DB_URL not set; skipping integration test")
	}

	testDBOnce.Do(func() {
		testDBPool, testDBErr = pgxpool.New(context.Background(), dbURL)
	})
	if testDBErr != nil {
		t.Fatalf("connect test database: %v", testDBErr)
	}
	return testDBPool
}

func createTestAccount(t *testing.T, pool *pgxpool.Pool, userType string, balance int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.NewString(),
		Name:          "Test " + userType,
		Email:         uuid.NewString() + "@test.local",
		PasswordHash:  "not-a-real-hash",
		UserType:      userType,
		Balance:       balance,
		GalleryPhotos: []string{},
	}
	if err := repository.NewUserRepository(pool).Create(context.Background(), user); err != nil {
		t.Fatalf("create test account: %v", err)
	}
	t.Cleanup(func() { cleanupTestUser(pool, user.ID) })
	return user
}

func createTestTrainer(t *testing.T, pool *pgxpool.Pool, ownerID string, price int64) *models.Trainer {
	t.Helper()

	trainer := &models.Trainer{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		Name:          "Test Trainer",
		Category:      "sport",
		HobbyName:     "climbing",
		Price:         price,
		AvailableDays: []int32{1, 3, 5},
		Photos:        []string{},
	}
	if err := repository.NewTrainerRepository(pool).Upsert(context.Background(), trainer); err != nil {
		t.Fatalf("create test trainer: %v", err)
	}
	return trainer
}

// cleanupTestUser removes a test account and everything hanging off it. Best
// effort; later deletes still run when earlier ones fail.
func cleanupTestUser(pool *pgxpool.Pool, id string) {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `DELETE FROM meetings WHERE user_id = $1 OR trainer_id IN (SELECT id FROM trainers WHERE user_id = $1 OR id = $1)`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 OR trainer_id IN (SELECT id FROM trainers WHERE user_id = $1 OR id = $1)`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM messages WHERE receiver_id IN (SELECT id FROM group_chats WHERE created_by = $1)`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM reports WHERE reporter_id = $1 OR target_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM cleared_chats WHERE user_id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM group_chats WHERE created_by = $1`, id)
	_, _ = pool.Exec(ctx, `UPDATE group_chats SET members = array_remove(members, $1) WHERE $1 = ANY(members)`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM trainers WHERE user_id = $1 OR id = $1`, id)
	_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func newTestChatService(pool *pgxpool.Pool) *ChatService {
	return NewChatService(
		pool,
		repository.NewMessageRepository(pool),
		repository.NewGroupChatRepository(pool),
		repository.NewClearedChatRepository(pool),
		repository.NewUserRepository(pool),
		repository.NewTrainerRepository(pool),
		NopNotifier{},
	)
}

func newTestBookingService(pool *pgxpool.Pool) *BookingService {
	return NewBookingService(
		pool,
		repository.NewUserRepository(pool),
		repository.NewTrainerRepository(pool),
		repository.NewMeetingRepository(pool),
		NopNotifier{},
	)
}

func newTestModerationService(pool *pgxpool.Pool) *ModerationService {
	return NewModerationService(
		pool,
		repository.NewUserRepository(pool),
		repository.NewTrainerRepository(pool),
		repository.NewReportRepository(pool),
	)
}
