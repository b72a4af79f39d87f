package repository

import (
	"context"

	"github.com/krasol/hobbyhub-backend/internal/models"
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, trainer_id, user_id, user_name, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.TrainerID,
		review.UserID,
		review.UserName,
		review.Rating,
		review.Text,
		review.CreatedAt,
	)
	return err
}

func (r *ReviewRepository) ListForTrainer(ctx context.Context, trainerID string) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trainer_id, user_id, user_name, rating, text, created_at
		FROM reviews
		WHERE trainer_id = $1
		ORDER BY created_at DESC, id DESC
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.TrainerID,
			&review.UserID,
			&review.UserName,
			&review.Rating,
			&review.Text,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// AveragesByTrainer returns the derived rating of every reviewed trainer in
// one pass, for catalog listings.
func (r *ReviewRepository) AveragesByTrainer(ctx context.Context) (map[string]float32, error) {
	rows, err := r.db.Query(ctx, `
		SELECT trainer_id, AVG(rating)
		FROM reviews
		GROUP BY trainer_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	averages := make(map[string]float32)
	for rows.Next() {
		var trainerID string
		var avg float32
		if err := rows.Scan(&trainerID, &avg); err != nil {
			return nil, err
		}
		averages[trainerID] = avg
	}
	return averages, rows.Err()
}

// AverageForTrainer recomputes the derived rating; zero when unreviewed.
func (r *ReviewRepository) AverageForTrainer(ctx context.Context, trainerID string) (float32, error) {
	var avg float32
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)
		FROM reviews
		WHERE trainer_id = $1
	`, trainerID).Scan(&avg)
	return avg, err
}
