package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/krasol/hobbyhub-backend/internal/models"
)

const reportColumns = `id, reporter_id, reporter_name, target_id, target_type, target_name, reason, status, created_at, resolved_at, resolved_by, resolved_by_name, action, chat_type`

type ReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var report models.Report
	err := row.Scan(
		&report.ID,
		&report.ReporterID,
		&report.ReporterName,
		&report.TargetID,
		&report.TargetType,
		&report.TargetName,
		&report.Reason,
		&report.Status,
		&report.CreatedAt,
		&report.ResolvedAt,
		&report.ResolvedBy,
		&report.ResolvedByName,
		&report.Action,
		&report.ChatType,
	)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (id, reporter_id, reporter_name, target_id, target_type, target_name, reason, status, created_at, chat_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		report.ID,
		report.ReporterID,
		report.ReporterName,
		report.TargetID,
		report.TargetType,
		report.TargetName,
		report.Reason,
		report.Status,
		report.CreatedAt,
		report.ChatType,
	)
	return err
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	return scanReport(r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
}

func (r *ReportRepository) List(ctx context.Context, statusFilter string) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	args := []any{}
	if status := strings.TrimSpace(statusFilter); status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// ResolveIfPending stamps the resolution exactly once; resolving a resolved
// report finds no row and reports pgx.ErrNoRows.
func (r *ReportRepository) ResolveIfPending(
	ctx context.Context,
	id string,
	status string,
	action string,
	resolvedBy string,
	resolvedByName string,
	resolvedAt int64,
) (*models.Report, error) {
	query := `
		UPDATE reports
		SET status = $2,
		    action = $3,
		    resolved_by = $4,
		    resolved_by_name = $5,
		    resolved_at = $6
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + reportColumns
	return scanReport(r.db.QueryRow(ctx, query, id, status, action, resolvedBy, resolvedByName, resolvedAt))
}
