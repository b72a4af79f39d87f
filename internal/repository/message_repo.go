package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

const messageColumns = `id, chat_id, sender_id, receiver_id, text, ts, is_read, meeting_id, attachment_type, attachment_path, is_group_message, is_edited, is_deleted`

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	err := row.Scan(
		&message.ID,
		&message.ChatID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Text,
		&message.Timestamp,
		&message.IsRead,
		&message.MeetingID,
		&message.AttachmentType,
		&message.AttachmentPath,
		&message.IsGroupMessage,
		&message.IsEdited,
		&message.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) collect(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, receiver_id, text, ts, is_read, meeting_id, attachment_type, attachment_path, is_group_message, is_edited, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		message.ID,
		message.ChatID,
		message.SenderID,
		message.ReceiverID,
		message.Text,
		message.Timestamp,
		message.IsRead,
		message.MeetingID,
		message.AttachmentType,
		message.AttachmentPath,
		message.IsGroupMessage,
		message.IsEdited,
		message.IsDeleted,
	)
	return err
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1
		ORDER BY ts ASC, id ASC
	`
	return r.collect(ctx, query, chatID)
}

func (r *MessageRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_group_message AND receiver_id = $1
		ORDER BY ts ASC, id ASC
	`
	return r.collect(ctx, query, groupID)
}

func (r *MessageRepository) UpdateText(ctx context.Context, id, newText string) (*models.Message, error) {
	query := `
		UPDATE messages
		SET text = $2, is_edited = TRUE
		WHERE id = $1
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, id, newText))
}

// SoftDelete keeps the row so ordering and history survive; only the text is
// replaced with the placeholder.
func (r *MessageRepository) SoftDelete(ctx context.Context, id, placeholder string) (*models.Message, error) {
	query := `
		UPDATE messages
		SET text = $2, is_deleted = TRUE
		WHERE id = $1
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, id, placeholder))
}

func (r *MessageRepository) MarkDirectRead(ctx context.Context, chatID, readerID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE chat_id = $1
		  AND NOT is_group_message
		  AND receiver_id = $2
		  AND NOT is_read
	`, chatID, readerID)
	return err
}

func (r *MessageRepository) MarkGroupRead(ctx context.Context, groupID, readerID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE is_group_message
		  AND receiver_id = $1
		  AND sender_id <> $2
		  AND NOT is_read
	`, groupID, readerID)
	return err
}

// UnreadCountForUser counts direct messages addressed to the user plus group
// messages in groups the user belongs to, authored by someone else.
func (r *MessageRepository) UnreadCountForUser(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM messages
			 WHERE NOT is_group_message AND receiver_id = $1 AND NOT is_read)
			+
			(SELECT COUNT(*) FROM messages m
			 JOIN group_chats g ON m.is_group_message AND m.receiver_id = g.id
			 WHERE $1 = ANY(g.members) AND m.sender_id <> $1 AND NOT m.is_read)
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepository) ListUnreadForUser(ctx context.Context, userID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE NOT is_group_message AND receiver_id = $1 AND NOT is_read
		UNION ALL
		SELECT m.id, m.chat_id, m.sender_id, m.receiver_id, m.text, m.ts, m.is_read, m.meeting_id, m.attachment_type, m.attachment_path, m.is_group_message, m.is_edited, m.is_deleted
		FROM messages m
		JOIN group_chats g ON m.is_group_message AND m.receiver_id = g.id
		WHERE $1 = ANY(g.members) AND m.sender_id <> $1 AND NOT m.is_read
		ORDER BY ts DESC, id DESC
	`
	return r.collect(ctx, query, userID)
}

// DirectChatSummaries returns one row per visible 1:1 conversation of the
// user: last message and unread count, tombstoned chats excluded, newest
// first. Peer name resolution happens in the service layer.
func (r *MessageRepository) DirectChatSummaries(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `
		SELECT c.chat_id, last.sender_id, last.receiver_id, last.text, last.ts, COALESCE(uc.n, 0)
		FROM (
			SELECT DISTINCT chat_id
			FROM messages
			WHERE NOT is_group_message AND (sender_id = $1 OR receiver_id = $1)
		) c
		JOIN LATERAL (
			SELECT sender_id, receiver_id, text, ts
			FROM messages
			WHERE chat_id = c.chat_id
			ORDER BY ts DESC, id DESC
			LIMIT 1
		) last ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS n
			FROM messages
			WHERE chat_id = c.chat_id AND receiver_id = $1 AND NOT is_read
		) uc ON TRUE
		WHERE NOT EXISTS (
			SELECT 1 FROM cleared_chats t
			WHERE t.user_id = $1 AND t.chat_id = c.chat_id
		)
		ORDER BY last.ts DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ChatSummary, 0)
	for rows.Next() {
		var summary models.ChatSummary
		var senderID, receiverID string
		if err := rows.Scan(
			&summary.ChatID,
			&senderID,
			&receiverID,
			&summary.LastMessage,
			&summary.LastMessageTime,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}
		if senderID == userID {
			summary.PeerID = receiverID
		} else {
			summary.PeerID = senderID
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// GroupLastMessage returns the newest message of a group, or pgx.ErrNoRows
// for an empty group.
func (r *MessageRepository) GroupLastMessage(ctx context.Context, groupID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE is_group_message AND receiver_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`
	return scanMessage(r.db.QueryRow(ctx, query, groupID))
}

func (r *MessageRepository) GroupUnreadCount(ctx context.Context, groupID, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE is_group_message AND receiver_id = $1 AND sender_id <> $2 AND NOT is_read
	`, groupID, userID).Scan(&count)
	return count, err
}

func (r *MessageRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM messages WHERE is_group_message AND receiver_id = $1`, groupID)
	return err
}

// DeleteForBannedUser removes the user's own messages everywhere plus direct
// messages addressed to them. Other members' group messages stay; groups the
// user created are torn down separately.
func (r *MessageRepository) DeleteForBannedUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM messages
		WHERE sender_id = $1
		   OR (NOT is_group_message AND receiver_id = $1)
	`, userID)
	return err
}
