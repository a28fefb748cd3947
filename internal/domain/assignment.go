package domain

import "time"

// Assignment is an append-only history record written whenever a ticket
// changes hands. System-driven reassignments carry the new assignee as the
// assigner since no human actor exists.
type Assignment struct {
	ID               string
	TicketID         string
	WorkspaceID      string
	AssignedAgentID  *string
	AssignedByUserID string
	CreatedAt        time.Time
}
