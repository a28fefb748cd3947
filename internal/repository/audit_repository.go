package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// AuditLogRepository is the append-only audit sink.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByEntity(ctx context.Context, workspaceID, entityType, entityID string) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db DBTX
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (workspace_id, actor_user_id, entity_type, entity_id, action, meta)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.WorkspaceID,
		entry.ActorUserID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.Meta,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, workspaceID, entityType, entityID string) ([]domain.AuditLog, error) {
	const query = `
        SELECT id, workspace_id, actor_user_id, entity_type, entity_id, action, meta, created_at
        FROM audit_logs
        WHERE workspace_id=$1 AND entity_type=$2 AND entity_id=$3
        ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, workspaceID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkspaceID,
			&entry.ActorUserID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.Meta,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
