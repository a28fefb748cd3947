package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// ReportRepository handles persistence for weekly report snapshots.
type ReportRepository interface {
	Create(ctx context.Context, snapshot *domain.WeeklyReportSnapshot) error
	GetByWeek(ctx context.Context, workspaceID string, weekStart time.Time) (*domain.WeeklyReportSnapshot, error)
	Latest(ctx context.Context, workspaceID string) (*domain.WeeklyReportSnapshot, error)
}

type reportRepository struct {
	db DBTX
}

const snapshotColumns = `id, workspace_id, week_start_date, payload, created_at`

func (r *reportRepository) Create(ctx context.Context, snapshot *domain.WeeklyReportSnapshot) error {
	const query = `
        INSERT INTO weekly_report_snapshots (workspace_id, week_start_date, payload)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		snapshot.WorkspaceID,
		snapshot.WeekStartDate,
		snapshot.Payload,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
}

func (r *reportRepository) GetByWeek(ctx context.Context, workspaceID string, weekStart time.Time) (*domain.WeeklyReportSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM weekly_report_snapshots
        WHERE workspace_id=$1 AND week_start_date=$2`
	return r.fetchSingle(ctx, query, workspaceID, weekStart)
}

func (r *reportRepository) Latest(ctx context.Context, workspaceID string) (*domain.WeeklyReportSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM weekly_report_snapshots
        WHERE workspace_id=$1 ORDER BY week_start_date DESC LIMIT 1`
	return r.fetchSingle(ctx, query, workspaceID)
}

func (r *reportRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.WeeklyReportSnapshot, error) {
	var snapshot domain.WeeklyReportSnapshot
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&snapshot.ID,
		&snapshot.WorkspaceID,
		&snapshot.WeekStartDate,
		&snapshot.Payload,
		&snapshot.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
