package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

const groupChatColumns = `id, name, created_by, members, created_at, photo_path`

type GroupChatRepository struct {
	db DBTX
}

func NewGroupChatRepository(db DBTX) *GroupChatRepository {
	return &GroupChatRepository{db: db}
}

func scanGroupChat(row pgx.Row) (*models.GroupChat, error) {
	var group models.GroupChat
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.Members,
		&group.CreatedAt,
		&group.PhotoPath,
	)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupChatRepository) Create(ctx context.Context, group *models.GroupChat) error {
	query := `
		INSERT INTO group_chats (id, name, created_by, members, created_at, photo_path)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		group.ID,
		group.Name,
		group.CreatedBy,
		group.Members,
		group.CreatedAt,
		group.PhotoPath,
	)
	return err
}

func (r *GroupChatRepository) GetByID(ctx context.Context, id string) (*models.GroupChat, error) {
	return scanGroupChat(r.db.QueryRow(ctx, `SELECT `+groupChatColumns+` FROM group_chats WHERE id = $1`, id))
}

func (r *GroupChatRepository) ListForUser(ctx context.Context, userID string) ([]models.GroupChat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+groupChatColumns+`
		FROM group_chats
		WHERE $1 = ANY(members)
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.GroupChat, 0)
	for rows.Next() {
		group, err := scanGroupChat(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, rows.Err()
}

func (r *GroupChatRepository) Rename(ctx context.Context, id, name string) (*models.GroupChat, error) {
	query := `
		UPDATE group_chats
		SET name = $2
		WHERE id = $1
		RETURNING ` + groupChatColumns
	return scanGroupChat(r.db.QueryRow(ctx, query, id, name))
}

func (r *GroupChatRepository) SetPhoto(ctx context.Context, id, photoPath string) (*models.GroupChat, error) {
	query := `
		UPDATE group_chats
		SET photo_path = $2
		WHERE id = $1
		RETURNING ` + groupChatColumns
	return scanGroupChat(r.db.QueryRow(ctx, query, id, photoPath))
}

func (r *GroupChatRepository) AddMember(ctx context.Context, id, userID string) (*models.GroupChat, error) {
	query := `
		UPDATE group_chats
		SET members = array_append(members, $2)
		WHERE id = $1 AND NOT ($2 = ANY(members))
		RETURNING ` + groupChatColumns
	return scanGroupChat(r.db.QueryRow(ctx, query, id, userID))
}

func (r *GroupChatRepository) RemoveMember(ctx context.Context, id, userID string) (*models.GroupChat, error) {
	query := `
		UPDATE group_chats
		SET members = array_remove(members, $2)
		WHERE id = $1
		RETURNING ` + groupChatColumns
	return scanGroupChat(r.db.QueryRow(ctx, query, id, userID))
}

// RemoveMemberEverywhere strips the user from every group they belong to and
// did not create. Part of the ban cascade.
func (r *GroupChatRepository) RemoveMemberEverywhere(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE group_chats
		SET members = array_remove(members, $1)
		WHERE $1 = ANY(members) AND created_by <> $1
	`, userID)
	return err
}

func (r *GroupChatRepository) ListCreatedBy(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM group_chats WHERE created_by = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *GroupChatRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM group_chats WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
