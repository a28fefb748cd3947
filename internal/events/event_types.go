package events

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLAApplied          EventType = "sla_applied"
	EventSLAEscalated        EventType = "sla_escalated"
	EventTicketAutoClosed    EventType = "ticket_auto_closed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// Actor encapsulates actor metadata for an event. UserID is nil for
// system-driven events such as sweeps.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// SystemActor is used for events without a human actor.
func SystemActor() Actor {
	return Actor{}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	WorkspaceID string      `json:"workspace_id"`
	TicketID    string      `json:"ticket_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// SLAAppliedPayload payload.
type SLAAppliedPayload struct {
	PolicyID           string    `json:"policy_id"`
	PolicyName         string    `json:"policy_name"`
	FirstResponseDueAt time.Time `json:"first_response_due_at"`
	ResolutionDueAt    time.Time `json:"resolution_due_at"`
}

// SLAEscalatedPayload payload.
type SLAEscalatedPayload struct {
	Level        int                   `json:"level"`
	NewPriority  domain.TicketPriority `json:"new_priority"`
	ReassignedTo *string               `json:"reassigned_to,omitempty"`
}

// TicketAutoClosedPayload payload.
type TicketAutoClosedPayload struct {
	LastActivityAt time.Time `json:"last_activity_at"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedAgentID *string `json:"assigned_agent_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string                   `json:"message_id"`
	MessageType domain.TicketMessageType `json:"message_type"`
	StaffAuthor bool                     `json:"staff_author"`
}
