package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Lifecycle mutations that the
// SLA engine cares about (replies, status changes) invoke the SLA hooks within
// the same transaction, so met flags never become visible without the
// triggering mutation.
type TicketService struct {
	store      repository.Store
	sla        *SLAService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	SLA        *SLAService
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		sla:        deps.SLA,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// CreateTicket opens a new ticket for the actor's workspace.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("actor required")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		WorkspaceID: actor.WorkspaceID,
		RequesterID: actor.ID,
		Subject:     subject,
		Description: input.Description,
		Status:      domain.TicketStatusNew,
		Priority:    priority,
	}
	if err := s.store.Tickets().Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetTicket fetches a ticket the actor may see; customers only their own.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.getTicketForActor(ctx, s.store, actor, ticketID)
}

// ListTickets returns workspace tickets; customers see only their own.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, limit int) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("actor required")
	}
	var (
		tickets []domain.Ticket
		err     error
	)
	if actor.Role == domain.RoleCustomer {
		tickets, err = s.store.Tickets().ListByRequester(ctx, actor.WorkspaceID, actor.ID, limit)
	} else {
		tickets, err = s.store.Tickets().ListByWorkspace(ctx, actor.WorkspaceID, limit)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListMessages returns the ticket thread for an actor with access.
func (s *TicketService) ListMessages(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketMessage, error) {
	if _, err := s.getTicketForActor(ctx, s.store, actor, ticketID); err != nil {
		return nil, err
	}
	messages, err := s.store.Messages().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.Role == domain.RoleCustomer {
		visible := messages[:0]
		for _, message := range messages {
			if message.MessageType == domain.MessageTypePublicReply {
				visible = append(visible, message)
			}
		}
		messages = visible
	}
	return messages, nil
}

// AddMessage appends a public reply and updates ticket activity state. A
// customer reply reopens a RESOLVED ticket; a staff reply moves NEW to OPEN
// and marks the SLA first response met in the same transaction.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.TicketMessage, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("actor required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}

	var message *domain.TicketMessage
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		ticket, err := s.getTicketForActor(ctx, st, actor, ticketID)
		if err != nil {
			return err
		}

		message = &domain.TicketMessage{
			TicketID:     ticket.ID,
			WorkspaceID:  ticket.WorkspaceID,
			AuthorUserID: actor.ID,
			MessageType:  domain.MessageTypePublicReply,
			Body:         body,
		}
		if err := st.Messages().Create(ctx, message); err != nil {
			return err
		}

		now := time.Now().UTC()
		staffReply := actor.Role.IsStaff()
		if staffReply {
			ticket.LastAgentActivityAt = &now
			if ticket.Status == domain.TicketStatusNew {
				ticket.Status = domain.TicketStatusOpen
			}
		} else {
			ticket.LastCustomerActivityAt = &now
			if ticket.Status == domain.TicketStatusResolved {
				ticket.Status = domain.TicketStatusOpen
			}
		}
		if err := st.Tickets().Update(ctx, ticket); err != nil {
			return err
		}

		return s.sla.onReplyRecorded(ctx, st, ticket.ID, staffReply)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.EventTicketMessageAdded, actor.WorkspaceID, ticketID, events.TicketMessageAddedPayload{
		MessageID:   message.ID,
		MessageType: message.MessageType,
		StaffAuthor: actor.Role.IsStaff(),
	})
	return message, nil
}

// AddNote appends an internal note. Staff only; notes never touch SLA state
// or customer-facing activity timestamps.
func (s *TicketService) AddNote(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.TicketMessage, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("note body required", nil)
	}

	ticket, err := s.getTicketForActor(ctx, s.store, actor, ticketID)
	if err != nil {
		return nil, err
	}
	note := &domain.TicketMessage{
		TicketID:     ticket.ID,
		WorkspaceID:  ticket.WorkspaceID,
		AuthorUserID: actor.ID,
		MessageType:  domain.MessageTypeInternalNote,
		Body:         body,
	}
	if err := s.store.Messages().Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// UpdateStatus transitions a ticket. Staff only. Moving to RESOLVED or CLOSED
// marks the SLA resolution met in the same transaction; CLOSED also stamps
// closed_at.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if !domain.ValidTicketStatus(newStatus) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(newStatus)})
	}

	var ticket *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		var err error
		ticket, err = s.getTicketForActor(ctx, st, actor, ticketID)
		if err != nil {
			return err
		}
		oldStatus = ticket.Status

		ticket.Status = newStatus
		if newStatus == domain.TicketStatusClosed {
			now := time.Now().UTC()
			ticket.ClosedAt = &now
		}
		if err := st.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return s.sla.onStatusChanged(ctx, st, ticket.ID, newStatus)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.EventTicketStatusChanged, actor.WorkspaceID, ticketID, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	return ticket, nil
}

// AssignTicket hands a ticket to a staff member (or unassigns with nil) and
// appends an assignment history row attributed to the acting user.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		var err error
		ticket, err = s.getTicketForActor(ctx, st, actor, ticketID)
		if err != nil {
			return err
		}

		if assigneeID != nil {
			assignee, err := st.Users().GetByID(ctx, *assigneeID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("user", map[string]any{"user_id": *assigneeID})
				}
				return err
			}
			if assignee.WorkspaceID != actor.WorkspaceID || !assignee.Role.IsStaff() {
				return apperrors.NewValidationError("assignee must be staff in the same workspace", nil)
			}
			if !assignee.Active {
				return apperrors.NewInvalidState("assignee inactive", map[string]any{"user_id": assignee.ID})
			}
		}

		ticket.AssignedAgentID = assigneeID
		if err := st.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return st.Assignments().Create(ctx, &domain.Assignment{
			TicketID:         ticket.ID,
			WorkspaceID:      ticket.WorkspaceID,
			AssignedAgentID:  assigneeID,
			AssignedByUserID: actor.ID,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.EventTicketAssigned, actor.WorkspaceID, ticketID, events.TicketAssignedPayload{
		AssignedAgentID: assigneeID,
	})
	return ticket, nil
}

func (s *TicketService) getTicketForActor(ctx context.Context, st repository.Store, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("actor required")
	}
	ticket, err := st.Tickets().GetByID(ctx, actor.WorkspaceID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if actor.Role == domain.RoleCustomer && ticket.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, actor *domain.User, eventType events.EventType, workspaceID, ticketID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		WorkspaceID: workspaceID,
		TicketID:    ticketID,
		Actor:       events.Actor{UserID: &actor.ID, Role: actor.Role},
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	})
}
