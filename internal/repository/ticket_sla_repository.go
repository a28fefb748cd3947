package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// TicketSLARepository handles persistence for per-ticket SLA tracking state.
// Every flag mutation is a single guarded UPDATE so met/breached can only move
// false to true and the escalation level can only climb, no matter how callers
// interleave.
type TicketSLARepository interface {
	Create(ctx context.Context, record *domain.TicketSLARecord) error
	DeleteByTicket(ctx context.Context, ticketID string) (bool, error)
	GetByTicket(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error)

	// MarkFirstResponseMet flips the flag when still unset; reports whether
	// a transition happened.
	MarkFirstResponseMet(ctx context.Context, ticketID string) (bool, error)
	MarkResolutionMet(ctx context.Context, ticketID string) (bool, error)

	// MarkFirstResponseBreaches flags every record whose first response is
	// overdue, unmet and not yet flagged. Set-based and idempotent.
	MarkFirstResponseBreaches(ctx context.Context, now time.Time) (int64, error)
	MarkResolutionBreaches(ctx context.Context, now time.Time) (int64, error)

	// ListEscalatable returns records with any breach, escalation headroom,
	// and an owning ticket still in an active status.
	ListEscalatable(ctx context.Context) ([]domain.TicketSLARecord, error)

	// IncrementEscalation bumps the level by one below the cap and returns
	// the new level; ok is false when the cap already held the level.
	IncrementEscalation(ctx context.Context, ticketID string) (int, bool, error)

	CountFirstResponseBreachesSince(ctx context.Context, workspaceID string, since time.Time) (int, error)
}

type ticketSLARepository struct {
	db DBTX
}

const slaColumns = `ticket_id, workspace_id, policy_id, first_response_due_at, resolution_due_at,
               first_response_met, resolution_met, first_response_breached, resolution_breached,
               escalation_level, created_at, updated_at`

func (r *ticketSLARepository) Create(ctx context.Context, record *domain.TicketSLARecord) error {
	const query = `
        INSERT INTO ticket_slas (ticket_id, workspace_id, policy_id, first_response_due_at, resolution_due_at,
            first_response_met, resolution_met, first_response_breached, resolution_breached, escalation_level)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		record.TicketID,
		record.WorkspaceID,
		record.PolicyID,
		record.FirstResponseDueAt,
		record.ResolutionDueAt,
		record.FirstResponseMet,
		record.ResolutionMet,
		record.FirstResponseBreached,
		record.ResolutionBreached,
		record.EscalationLevel,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
}

func (r *ticketSLARepository) DeleteByTicket(ctx context.Context, ticketID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_slas WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketSLARepository) GetByTicket(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	query := `SELECT ` + slaColumns + ` FROM ticket_slas WHERE ticket_id=$1`
	var record domain.TicketSLARecord
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(slaFields(&record)...); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ticketSLARepository) MarkFirstResponseMet(ctx context.Context, ticketID string) (bool, error) {
	const query = `
        UPDATE ticket_slas SET first_response_met=TRUE, updated_at=NOW()
        WHERE ticket_id=$1 AND first_response_met=FALSE`
	cmd, err := r.db.Exec(ctx, query, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketSLARepository) MarkResolutionMet(ctx context.Context, ticketID string) (bool, error) {
	const query = `
        UPDATE ticket_slas SET resolution_met=TRUE, updated_at=NOW()
        WHERE ticket_id=$1 AND resolution_met=FALSE`
	cmd, err := r.db.Exec(ctx, query, ticketID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketSLARepository) MarkFirstResponseBreaches(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE ticket_slas SET first_response_breached=TRUE, updated_at=NOW()
        WHERE first_response_due_at < $1 AND first_response_met=FALSE AND first_response_breached=FALSE`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketSLARepository) MarkResolutionBreaches(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE ticket_slas SET resolution_breached=TRUE, updated_at=NOW()
        WHERE resolution_due_at < $1 AND resolution_met=FALSE AND resolution_breached=FALSE`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketSLARepository) ListEscalatable(ctx context.Context) ([]domain.TicketSLARecord, error) {
	const query = `
        SELECT s.ticket_id, s.workspace_id, s.policy_id, s.first_response_due_at, s.resolution_due_at,
               s.first_response_met, s.resolution_met, s.first_response_breached, s.resolution_breached,
               s.escalation_level, s.created_at, s.updated_at
        FROM ticket_slas s
        JOIN tickets t ON t.id = s.ticket_id
        WHERE (s.first_response_breached=TRUE OR s.resolution_breached=TRUE)
          AND s.escalation_level < $1
          AND t.status IN ('NEW','OPEN','PENDING')
        ORDER BY s.created_at, s.ticket_id`
	rows, err := r.db.Query(ctx, query, domain.MaxEscalationLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketSLARecord
	for rows.Next() {
		var record domain.TicketSLARecord
		if err := rows.Scan(slaFields(&record)...); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *ticketSLARepository) IncrementEscalation(ctx context.Context, ticketID string) (int, bool, error) {
	const query = `
        UPDATE ticket_slas SET escalation_level = escalation_level + 1, updated_at=NOW()
        WHERE ticket_id=$1 AND escalation_level < $2
        RETURNING escalation_level`
	var level int
	err := r.db.QueryRow(ctx, query, ticketID, domain.MaxEscalationLevel).Scan(&level)
	if err != nil {
		if isNoRows(err) {
			return domain.MaxEscalationLevel, false, nil
		}
		return 0, false, err
	}
	return level, true, nil
}

func (r *ticketSLARepository) CountFirstResponseBreachesSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM ticket_slas
        WHERE workspace_id=$1 AND first_response_breached=TRUE AND updated_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, workspaceID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func slaFields(record *domain.TicketSLARecord) []any {
	return []any{
		&record.TicketID,
		&record.WorkspaceID,
		&record.PolicyID,
		&record.FirstResponseDueAt,
		&record.ResolutionDueAt,
		&record.FirstResponseMet,
		&record.ResolutionMet,
		&record.FirstResponseBreached,
		&record.ResolutionBreached,
		&record.EscalationLevel,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}
