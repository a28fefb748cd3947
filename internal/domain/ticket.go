package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. OPEN and PENDING are
// interchangeable active sub-states; RESOLVED and CLOSED are terminal for SLA
// purposes.
type TicketStatus string

const (
	TicketStatusNew      TicketStatus = "NEW"
	TicketStatusOpen     TicketStatus = "OPEN"
	TicketStatusPending  TicketStatus = "PENDING"
	TicketStatusResolved TicketStatus = "RESOLVED"
	TicketStatusClosed   TicketStatus = "CLOSED"
)

// IsActive reports whether the ticket still counts toward agent workload and
// remains eligible for escalation.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusNew || s == TicketStatusOpen || s == TicketStatusPending
}

// ValidTicketStatus reports whether the value is a known status.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusPending, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ActiveTicketStatuses lists the statuses considered active.
func ActiveTicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusNew, TicketStatusOpen, TicketStatusPending}
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                     string
	WorkspaceID            string
	RequesterID            string
	AssignedAgentID        *string
	Subject                string
	Description            string
	Status                 TicketStatus
	Priority               TicketPriority
	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastCustomerActivityAt *time.Time
	LastAgentActivityAt    *time.Time
	ClosedAt               *time.Time
}

// LastActivity returns the customer activity timestamp, falling back to
// updated_at when no customer activity was recorded.
func (t *Ticket) LastActivity() time.Time {
	if t.LastCustomerActivityAt != nil {
		return *t.LastCustomerActivityAt
	}
	return t.UpdatedAt
}
