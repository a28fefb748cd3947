package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// EscalationService runs the periodic breach detection and escalation sweep.
type EscalationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// EscalationDependencies bundles collaborators for the escalation sweep.
type EscalationDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// EscalationSweepResult summarizes one sweep invocation.
type EscalationSweepResult struct {
	FirstResponseBreaches int64
	ResolutionBreaches    int64
	Escalated             int
	Reassigned            int
}

// RunEscalationSweep executes the two sweep phases against the clock value
// provided by the scheduler.
//
// Phase A flags overdue unmet deadlines with set-based idempotent updates and
// commits on its own. Phase B then re-reads current breach state and, for each
// record with escalation headroom whose ticket is still active, raises the
// level one step, forces the mapped priority, and reroutes the ticket to the
// least-loaded eligible staff member. Phase B commits as a second transaction;
// a failure in either phase leaves previously committed work intact and the
// next run resumes from persisted state.
func (s *EscalationService) RunEscalationSweep(ctx context.Context, now time.Time) (*EscalationSweepResult, error) {
	result := &EscalationSweepResult{}

	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		fr, err := st.TicketSLAs().MarkFirstResponseBreaches(ctx, now)
		if err != nil {
			return err
		}
		res, err := st.TicketSLAs().MarkResolutionBreaches(ctx, now)
		if err != nil {
			return err
		}
		result.FirstResponseBreaches = fr
		result.ResolutionBreaches = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	var published []events.Event
	err = s.store.WithinTx(ctx, func(st repository.Store) error {
		records, err := st.TicketSLAs().ListEscalatable(ctx)
		if err != nil {
			return err
		}
		for i := range records {
			event, reassigned, err := s.escalateOne(ctx, st, &records[i], now)
			if err != nil {
				return err
			}
			if event == nil {
				continue
			}
			result.Escalated++
			if reassigned {
				result.Reassigned++
			}
			published = append(published, *event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		for _, event := range published {
			_ = s.dispatcher.Publish(ctx, event)
		}
	}

	s.metrics.RecordSweep("escalation", map[string]int64{
		"first_response_breaches": result.FirstResponseBreaches,
		"resolution_breaches":     result.ResolutionBreaches,
		"escalated":               int64(result.Escalated),
		"reassigned":              int64(result.Reassigned),
	})
	s.logger.Info("escalation sweep finished",
		zap.Time("now", now),
		zap.Int64("first_response_breaches", result.FirstResponseBreaches),
		zap.Int64("resolution_breaches", result.ResolutionBreaches),
		zap.Int("escalated", result.Escalated),
		zap.Int("reassigned", result.Reassigned),
	)
	return result, nil
}

// escalateOne processes a single breached record. Returns a nil event when the
// record turned out ineligible on re-read.
func (s *EscalationService) escalateOne(ctx context.Context, st repository.Store, record *domain.TicketSLARecord, now time.Time) (*events.Event, bool, error) {
	ticket, err := st.Tickets().GetByID(ctx, record.WorkspaceID, record.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !ticket.Status.IsActive() {
		return nil, false, nil
	}

	// Guarded increment: one step per sweep, capped, regardless of how many
	// breach types fired.
	level, ok, err := st.TicketSLAs().IncrementEscalation(ctx, record.TicketID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	if priority, ok := domain.PriorityForEscalationLevel(level); ok {
		ticket.Priority = priority
	}

	reassignedTo, err := s.reassignLeastLoaded(ctx, st, ticket)
	if err != nil {
		return nil, false, err
	}

	if err := st.Tickets().Update(ctx, ticket); err != nil {
		return nil, false, err
	}

	if err := st.Audit().Create(ctx, &domain.AuditLog{
		WorkspaceID: record.WorkspaceID,
		EntityType:  domain.AuditEntityTicket,
		EntityID:    ticket.ID,
		Action:      domain.AuditActionSLAEscalated,
		Meta: map[string]any{
			"level":    level,
			"priority": string(ticket.Priority),
		},
	}); err != nil {
		return nil, false, err
	}

	event := events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventSLAEscalated,
		WorkspaceID: record.WorkspaceID,
		TicketID:    ticket.ID,
		Actor:       events.SystemActor(),
		Timestamp:   now,
		Payload: events.SLAEscalatedPayload{
			Level:        level,
			NewPriority:  ticket.Priority,
			ReassignedTo: reassignedTo,
		},
	}
	return &event, reassignedTo != nil, nil
}

// reassignLeastLoaded routes the ticket to the active staff member with the
// strictly lowest open-ticket count, first encountered winning ties. Leaves
// the assignment alone when the roster is empty or the current assignee
// already holds minimum load. Returns the new assignee id when a reassignment
// happened.
func (s *EscalationService) reassignLeastLoaded(ctx context.Context, st repository.Store, ticket *domain.Ticket) (*string, error) {
	roster, err := st.Users().ListActiveStaff(ctx, ticket.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, nil
	}

	var best *domain.User
	minLoad := 0
	for i := range roster {
		load, err := st.Tickets().CountAssignedActive(ctx, roster[i].ID)
		if err != nil {
			return nil, err
		}
		if best == nil || load < minLoad {
			best = &roster[i]
			minLoad = load
		}
	}

	if best == nil {
		return nil, nil
	}
	if ticket.AssignedAgentID != nil && *ticket.AssignedAgentID == best.ID {
		return nil, nil
	}

	ticket.AssignedAgentID = &best.ID
	// No human actor here: the assignment is recorded as if the new assignee
	// took it themself.
	if err := st.Assignments().Create(ctx, &domain.Assignment{
		TicketID:         ticket.ID,
		WorkspaceID:      ticket.WorkspaceID,
		AssignedAgentID:  &best.ID,
		AssignedByUserID: best.ID,
	}); err != nil {
		return nil, err
	}
	return &best.ID, nil
}
