package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

const meetingColumns = `id, trainer_id, user_id, date, time, status, created_at, trainer_selected_date, trainer_selected_time, is_paid, amount_paid, is_payment_released`

type MeetingRepository struct {
	db DBTX
}

func NewMeetingRepository(db DBTX) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var meeting models.Meeting
	err := row.Scan(
		&meeting.ID,
		&meeting.TrainerID,
		&meeting.UserID,
		&meeting.Date,
		&meeting.Time,
		&meeting.Status,
		&meeting.CreatedAt,
		&meeting.TrainerSelectedDate,
		&meeting.TrainerSelectedTime,
		&meeting.IsPaid,
		&meeting.AmountPaid,
		&meeting.IsPaymentReleased,
	)
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *MeetingRepository) collect(ctx context.Context, query string, args ...any) ([]models.Meeting, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := make([]models.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, *meeting)
	}
	return meetings, rows.Err()
}

func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	query := `
		INSERT INTO meetings (id, trainer_id, user_id, date, time, status, created_at, trainer_selected_date, trainer_selected_time, is_paid, amount_paid, is_payment_released)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		meeting.ID,
		meeting.TrainerID,
		meeting.UserID,
		meeting.Date,
		meeting.Time,
		meeting.Status,
		meeting.CreatedAt,
		meeting.TrainerSelectedDate,
		meeting.TrainerSelectedTime,
		meeting.IsPaid,
		meeting.AmountPaid,
		meeting.IsPaymentReleased,
	)
	return err
}

func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	return scanMeeting(r.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
}

func (r *MeetingRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Meeting, error) {
	return scanMeeting(r.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1 FOR UPDATE`, id))
}

func (r *MeetingRepository) ListForClient(ctx context.Context, userID string) ([]models.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE user_id = $1
		ORDER BY date ASC, time ASC, id ASC
	`
	return r.collect(ctx, query, userID)
}

// ListForTrainerOwner matches meetings through the owner's trainer profiles as
// well as legacy rows where trainer_id held the owner's user id directly.
func (r *MeetingRepository) ListForTrainerOwner(ctx context.Context, ownerID string) ([]models.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE trainer_id = $1
		   OR trainer_id IN (
				SELECT id FROM trainers
				WHERE user_id = $1 OR (user_id = '' AND id = $1)
		   )
		ORDER BY date ASC, time ASC, id ASC
	`
	return r.collect(ctx, query, ownerID)
}

// ResolveIfPending is the single guarded transition of the booking state
// machine: pending -> confirmed|rejected. Returns pgx.ErrNoRows when the
// meeting was already resolved.
func (r *MeetingRepository) ResolveIfPending(
	ctx context.Context,
	id string,
	nextStatus string,
	selectedDate *string,
	selectedTime *string,
	isPaid bool,
	amountPaid int64,
) (*models.Meeting, error) {
	query := `
		UPDATE meetings
		SET status = $2,
		    trainer_selected_date = $3,
		    trainer_selected_time = $4,
		    is_paid = $5,
		    amount_paid = $6
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + meetingColumns
	return scanMeeting(r.db.QueryRow(ctx, query, id, nextStatus, selectedDate, selectedTime, isPaid, amountPaid))
}

// ReleasePaymentOnce flips is_payment_released exactly once; a second call
// finds no row and reports pgx.ErrNoRows.
func (r *MeetingRepository) ReleasePaymentOnce(ctx context.Context, id string) (*models.Meeting, error) {
	query := `
		UPDATE meetings
		SET is_payment_released = TRUE
		WHERE id = $1
		  AND status = 'confirmed'
		  AND is_paid
		  AND amount_paid > 0
		  AND NOT is_payment_released
		RETURNING ` + meetingColumns
	return scanMeeting(r.db.QueryRow(ctx, query, id))
}

// DeleteForBannedUser removes meetings where the user is the client or the
// trainer-side owner, matched through profile ownership. Must run before the
// owner's trainer profiles are deleted.
func (r *MeetingRepository) DeleteForBannedUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM meetings
		WHERE user_id = $1
		   OR trainer_id = $1
		   OR trainer_id IN (
				SELECT id FROM trainers
				WHERE user_id = $1 OR (user_id = '' AND id = $1)
		   )
	`, userID)
	return err
}
