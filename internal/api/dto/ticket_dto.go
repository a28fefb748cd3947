package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload. A nil assignee unassigns the ticket.
type AssignTicketRequest struct {
	AssignedAgentID *string `json:"assigned_agent_id"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID                     string                `json:"id"`
	WorkspaceID            string                `json:"workspace_id"`
	RequesterID            string                `json:"requester_id"`
	AssignedAgentID        *string               `json:"assigned_agent_id,omitempty"`
	Subject                string                `json:"subject"`
	Description            string                `json:"description"`
	Status                 domain.TicketStatus   `json:"status"`
	Priority               domain.TicketPriority `json:"priority"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
	LastCustomerActivityAt *time.Time            `json:"last_customer_activity_at,omitempty"`
	LastAgentActivityAt    *time.Time            `json:"last_agent_activity_at,omitempty"`
	ClosedAt               *time.Time            `json:"closed_at,omitempty"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID           string                   `json:"id"`
	TicketID     string                   `json:"ticket_id"`
	AuthorUserID string                   `json:"author_user_id"`
	MessageType  domain.TicketMessageType `json:"message_type"`
	Body         string                   `json:"body"`
	CreatedAt    time.Time                `json:"created_at"`
}
