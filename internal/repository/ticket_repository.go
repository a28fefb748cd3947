package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Ticket, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]domain.Ticket, error)
	ListByRequester(ctx context.Context, workspaceID, requesterID string, limit int) ([]domain.Ticket, error)
	// CountAssignedActive returns the agent's current workload: assigned
	// tickets in an active status.
	CountAssignedActive(ctx context.Context, agentID string) (int, error)
	// ListAutoCloseCandidates returns RESOLVED tickets whose last activity
	// (customer activity, else updated_at) predates the cutoff.
	ListAutoCloseCandidates(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	CountCreatedSince(ctx context.Context, workspaceID string, since time.Time) (int, error)
	CountResolvedSince(ctx context.Context, workspaceID string, since time.Time) (int, error)
}

type ticketRepository struct {
	db DBTX
}

const ticketColumns = `id, workspace_id, requester_user_id, assigned_agent_id, subject, description,
               status, priority, created_at, updated_at, last_customer_activity_at, last_agent_activity_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (workspace_id, requester_user_id, assigned_agent_id, subject, description, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.WorkspaceID,
		ticket.RequesterID,
		ticket.AssignedAgentID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_agent_id=$1, subject=$2, description=$3, status=$4, priority=$5,
            last_customer_activity_at=$6, last_agent_activity_at=$7, closed_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.db.Exec(ctx, query,
		ticket.AssignedAgentID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.LastCustomerActivityAt,
		ticket.LastAgentActivityAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE workspace_id=$1 AND id=$2`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, workspaceID, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE workspace_id=$1 ORDER BY updated_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, workspaceID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByRequester(ctx context.Context, workspaceID, requesterID string, limit int) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE workspace_id=$1 AND requester_user_id=$2 ORDER BY updated_at DESC LIMIT $3`
	rows, err := r.db.Query(ctx, query, workspaceID, requesterID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountAssignedActive(ctx context.Context, agentID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_agent_id=$1 AND status IN ('NEW','OPEN','PENDING')`
	var count int
	if err := r.db.QueryRow(ctx, query, agentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListAutoCloseCandidates(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status='RESOLVED' AND COALESCE(last_customer_activity_at, updated_at) < $1
        ORDER BY updated_at`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountCreatedSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE workspace_id=$1 AND created_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, workspaceID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountResolvedSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE workspace_id=$1 AND status IN ('RESOLVED','CLOSED') AND updated_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, workspaceID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func ticketFields(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.WorkspaceID,
		&ticket.RequesterID,
		&ticket.AssignedAgentID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.LastCustomerActivityAt,
		&ticket.LastAgentActivityAt,
		&ticket.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
