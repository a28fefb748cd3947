package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// SLAPolicyRepository handles persistence for SLA policies.
type SLAPolicyRepository interface {
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	Update(ctx context.Context, policy *domain.SLAPolicy) error
	GetByID(ctx context.Context, workspaceID, id string) (*domain.SLAPolicy, error)
	GetByName(ctx context.Context, workspaceID, name string) (*domain.SLAPolicy, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.SLAPolicy, error)
}

type slaPolicyRepository struct {
	db DBTX
}

const policyColumns = `id, workspace_id, name, first_response_time_minutes, resolution_time_minutes, is_active, created_at, updated_at`

func (r *slaPolicyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (workspace_id, name, first_response_time_minutes, resolution_time_minutes, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		policy.WorkspaceID,
		policy.Name,
		policy.FirstResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.Active,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *slaPolicyRepository) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        UPDATE sla_policies
        SET name=$1, first_response_time_minutes=$2, resolution_time_minutes=$3, is_active=$4, updated_at=NOW()
        WHERE workspace_id=$5 AND id=$6
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		policy.Name,
		policy.FirstResponseTimeMinutes,
		policy.ResolutionTimeMinutes,
		policy.Active,
		policy.WorkspaceID,
		policy.ID,
	).Scan(&policy.UpdatedAt)
}

func (r *slaPolicyRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE workspace_id=$1 AND id=$2`
	return r.fetchSingle(ctx, query, workspaceID, id)
}

func (r *slaPolicyRepository) GetByName(ctx context.Context, workspaceID, name string) (*domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE workspace_id=$1 AND name=$2`
	return r.fetchSingle(ctx, query, workspaceID, name)
}

func (r *slaPolicyRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.SLAPolicy, error) {
	var policy domain.SLAPolicy
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&policy.ID,
		&policy.WorkspaceID,
		&policy.Name,
		&policy.FirstResponseTimeMinutes,
		&policy.ResolutionTimeMinutes,
		&policy.Active,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *slaPolicyRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE workspace_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		if err := rows.Scan(
			&policy.ID,
			&policy.WorkspaceID,
			&policy.Name,
			&policy.FirstResponseTimeMinutes,
			&policy.ResolutionTimeMinutes,
			&policy.Active,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}
