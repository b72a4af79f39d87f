package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can be
// rebound inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, email, password_hash, user_type, gender, description, balance, gallery_photos, avatar, is_banned`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.UserType,
		&user.Gender,
		&user.Description,
		&user.Balance,
		&user.GalleryPhotos,
		&user.Avatar,
		&user.IsBanned,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, user_type, gender, description, balance, gallery_photos, avatar, is_banned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.UserType,
		user.Gender,
		user.Description,
		user.Balance,
		user.GalleryPhotos,
		user.Avatar,
		user.IsBanned,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, description string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, description = $3
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, name, description))
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) (*models.User, error) {
	query := `
		UPDATE users
		SET avatar = $2
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, avatar))
}

// AdjustBalance applies a signed delta, clamping the result at zero as the
// balance invariant demands.
func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta int64) (*models.User, error) {
	query := `
		UPDATE users
		SET balance = GREATEST(0, balance + $2)
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, delta))
}

func (r *UserRepository) AddGalleryPhoto(ctx context.Context, id, photoPath string) (*models.User, error) {
	query := `
		UPDATE users
		SET gallery_photos = array_append(gallery_photos, $2)
		WHERE id = $1 AND NOT ($2 = ANY(gallery_photos))
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id, photoPath))
	if errors.Is(err, pgx.ErrNoRows) {
		// Photo already present; return the row unchanged.
		return r.GetByID(ctx, id)
	}
	return user, err
}

func (r *UserRepository) RemoveGalleryPhoto(ctx context.Context, id, photoPath string) (*models.User, error) {
	query := `
		UPDATE users
		SET gallery_photos = array_remove(gallery_photos, $2)
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, photoPath))
}

func (r *UserRepository) SetBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	query := `
		UPDATE users
		SET is_banned = $2
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, banned))
}
