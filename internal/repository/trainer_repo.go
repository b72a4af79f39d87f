package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

const trainerColumns = `id, user_id, name, category, hobby_name, description, price, gender, avatar, available_time, available_days, address, latitude, longitude, photos`

type TrainerRepository struct {
	db DBTX
}

func NewTrainerRepository(db DBTX) *TrainerRepository {
	return &TrainerRepository{db: db}
}

func scanTrainer(row pgx.Row) (*models.Trainer, error) {
	var trainer models.Trainer
	err := row.Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.Name,
		&trainer.Category,
		&trainer.HobbyName,
		&trainer.Description,
		&trainer.Price,
		&trainer.Gender,
		&trainer.Avatar,
		&trainer.AvailableTime,
		&trainer.AvailableDays,
		&trainer.Address,
		&trainer.Latitude,
		&trainer.Longitude,
		&trainer.Photos,
	)
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

func (r *TrainerRepository) collect(ctx context.Context, query string, args ...any) ([]models.Trainer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := make([]models.Trainer, 0)
	for rows.Next() {
		trainer, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, *trainer)
	}
	return trainers, rows.Err()
}

func (r *TrainerRepository) Upsert(ctx context.Context, trainer *models.Trainer) error {
	query := `
		INSERT INTO trainers (id, user_id, name, category, hobby_name, description, price, gender, avatar, available_time, available_days, address, latitude, longitude, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			hobby_name = EXCLUDED.hobby_name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			gender = EXCLUDED.gender,
			avatar = EXCLUDED.avatar,
			available_time = EXCLUDED.available_time,
			available_days = EXCLUDED.available_days,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			photos = EXCLUDED.photos
	`
	_, err := r.db.Exec(ctx, query,
		trainer.ID,
		trainer.UserID,
		trainer.Name,
		trainer.Category,
		trainer.HobbyName,
		trainer.Description,
		trainer.Price,
		trainer.Gender,
		trainer.Avatar,
		trainer.AvailableTime,
		trainer.AvailableDays,
		trainer.Address,
		trainer.Latitude,
		trainer.Longitude,
		trainer.Photos,
	)
	return err
}

func (r *TrainerRepository) GetByID(ctx context.Context, id string) (*models.Trainer, error) {
	return scanTrainer(r.db.QueryRow(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id))
}

func (r *TrainerRepository) ListAll(ctx context.Context) ([]models.Trainer, error) {
	return r.collect(ctx, `SELECT `+trainerColumns+` FROM trainers ORDER BY name ASC, id ASC`)
}

// ListByOwner matches both modern rows (user_id set) and legacy rows where
// the profile id doubles as the owner id.
func (r *TrainerRepository) ListByOwner(ctx context.Context, userID string) ([]models.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers
		WHERE user_id = $1 OR (user_id = '' AND id = $1)
		ORDER BY id ASC
	`
	return r.collect(ctx, query, userID)
}

// FindByOwner resolves the conversation peer: the first profile whose owning
// user is the given id, if any.
func (r *TrainerRepository) FindByOwner(ctx context.Context, userID string) (*models.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers
		WHERE user_id = $1 OR (user_id = '' AND id = $1)
		ORDER BY id ASC
		LIMIT 1
	`
	return scanTrainer(r.db.QueryRow(ctx, query, userID))
}

func (r *TrainerRepository) UpdateNameForOwner(ctx context.Context, userID, newName string) error {
	query := `
		UPDATE trainers
		SET name = $2
		WHERE user_id = $1 OR (user_id = '' AND id = $1)
	`
	_, err := r.db.Exec(ctx, query, userID, newName)
	return err
}

func (r *TrainerRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trainers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TrainerRepository) DeleteByOwner(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM trainers WHERE user_id = $1 OR (user_id = '' AND id = $1)`, userID)
	return err
}
