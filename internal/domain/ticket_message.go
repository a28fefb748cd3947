package domain

import "time"

// TicketMessageType differentiates between public replies and internal notes.
type TicketMessageType string

const (
	MessageTypePublicReply  TicketMessageType = "PUBLIC_REPLY"
	MessageTypeInternalNote TicketMessageType = "INTERNAL_NOTE"
)

// TicketMessage captures communications in a ticket thread.
type TicketMessage struct {
	ID           string
	TicketID     string
	WorkspaceID  string
	AuthorUserID string
	MessageType  TicketMessageType
	Body         string
	CreatedAt    time.Time
}
