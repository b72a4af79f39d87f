package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

type ClearedChatRepository struct {
	db DBTX
}

func NewClearedChatRepository(db DBTX) *ClearedChatRepository {
	return &ClearedChatRepository{db: db}
}

// Upsert refreshes the cleared-at time when the tombstone already exists, so
// clearing twice is harmless.
func (r *ClearedChatRepository) Upsert(ctx context.Context, userID, chatID string, clearedAt int64) error {
	query := `
		INSERT INTO cleared_chats (user_id, chat_id, cleared_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET cleared_at = EXCLUDED.cleared_at
	`
	_, err := r.db.Exec(ctx, query, userID, chatID, clearedAt)
	return err
}

func (r *ClearedChatRepository) Get(ctx context.Context, userID, chatID string) (*models.ClearedChatEntry, error) {
	var entry models.ClearedChatEntry
	err := r.db.QueryRow(ctx, `
		SELECT user_id, chat_id, cleared_at
		FROM cleared_chats
		WHERE user_id = $1 AND chat_id = $2
	`, userID, chatID).Scan(&entry.UserID, &entry.ChatID, &entry.ClearedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ClearedChatRepository) Exists(ctx context.Context, userID, chatID string) (bool, error) {
	_, err := r.Get(ctx, userID, chatID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// RemoveForParticipants drops the tombstones of the given users for one chat.
// Called on every send so an active conversation reappears.
func (r *ClearedChatRepository) RemoveForParticipants(ctx context.Context, chatID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		DELETE FROM cleared_chats
		WHERE chat_id = $1 AND user_id = ANY($2)
	`, chatID, userIDs)
	return err
}

func (r *ClearedChatRepository) DeleteByChat(ctx context.Context, chatID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cleared_chats WHERE chat_id = $1`, chatID)
	return err
}

func (r *ClearedChatRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cleared_chats WHERE user_id = $1`, userID)
	return err
}
