package domain

import "time"

// Audit actions recorded by the SLA engine and sweeps.
const (
	AuditActionSLAApplied   = "sla_applied"
	AuditActionSLAEscalated = "sla_escalated"
	AuditActionAutoClosed   = "auto_closed"
)

// Audit entity types.
const (
	AuditEntityTicket    = "ticket"
	AuditEntityTicketSLA = "ticket_sla"
)

// AuditLog is an append-only record of a meaningful state transition.
// ActorUserID is nil for system-driven actions such as sweeps.
type AuditLog struct {
	ID          string
	WorkspaceID string
	ActorUserID *string
	EntityType  string
	EntityID    string
	Action      string
	Meta        map[string]any
	CreatedAt   time.Time
}
