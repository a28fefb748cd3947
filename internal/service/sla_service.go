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

// SLAService owns SLA policies, ticket SLA records and the lifecycle hooks
// that mark deadlines met.
type SLAService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// NewSLAService creates the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
	}
}

// PolicyCreateInput describes a new policy.
type PolicyCreateInput struct {
	Name                     string
	FirstResponseTimeMinutes int
	ResolutionTimeMinutes    int
}

// PolicyUpdateInput carries partial policy updates. Updating a policy never
// recomputes SLA records it was already applied to.
type PolicyUpdateInput struct {
	Name                     *string
	FirstResponseTimeMinutes *int
	ResolutionTimeMinutes    *int
	Active                   *bool
}

// CreatePolicy registers a workspace policy. Admin only; budgets must be
// non-negative and the name unique within the workspace.
func (s *SLAService) CreatePolicy(ctx context.Context, actor *domain.User, input PolicyCreateInput) (*domain.SLAPolicy, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins can manage SLA policies")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("policy name required", nil)
	}
	if input.FirstResponseTimeMinutes < 0 || input.ResolutionTimeMinutes < 0 {
		return nil, apperrors.NewValidationError("time budgets must be non-negative", map[string]any{
			"first_response_time_minutes": input.FirstResponseTimeMinutes,
			"resolution_time_minutes":     input.ResolutionTimeMinutes,
		})
	}

	if existing, err := s.store.Policies().GetByName(ctx, actor.WorkspaceID, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("policy name already in use", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	policy := &domain.SLAPolicy{
		WorkspaceID:              actor.WorkspaceID,
		Name:                     name,
		FirstResponseTimeMinutes: input.FirstResponseTimeMinutes,
		ResolutionTimeMinutes:    input.ResolutionTimeMinutes,
		Active:                   true,
	}
	if err := s.store.Policies().Create(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// UpdatePolicy applies partial changes to a policy. Admin only.
func (s *SLAService) UpdatePolicy(ctx context.Context, actor *domain.User, policyID string, input PolicyUpdateInput) (*domain.SLAPolicy, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins can manage SLA policies")
	}

	policy, err := s.store.Policies().GetByID(ctx, actor.WorkspaceID, policyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", map[string]any{"policy_id": policyID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("policy name required", nil)
		}
		if name != policy.Name {
			if existing, err := s.store.Policies().GetByName(ctx, actor.WorkspaceID, name); err == nil && existing != nil && existing.ID != policy.ID {
				return nil, apperrors.NewConflict("policy name already in use", map[string]any{"name": name})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
		}
		policy.Name = name
	}
	if input.FirstResponseTimeMinutes != nil {
		if *input.FirstResponseTimeMinutes < 0 {
			return nil, apperrors.NewValidationError("time budgets must be non-negative", nil)
		}
		policy.FirstResponseTimeMinutes = *input.FirstResponseTimeMinutes
	}
	if input.ResolutionTimeMinutes != nil {
		if *input.ResolutionTimeMinutes < 0 {
			return nil, apperrors.NewValidationError("time budgets must be non-negative", nil)
		}
		policy.ResolutionTimeMinutes = *input.ResolutionTimeMinutes
	}
	if input.Active != nil {
		policy.Active = *input.Active
	}

	if err := s.store.Policies().Update(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// ListPolicies returns the workspace's policies. Staff only.
func (s *SLAService) ListPolicies(ctx context.Context, actor *domain.User) ([]domain.SLAPolicy, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	policies, err := s.store.Policies().ListByWorkspace(ctx, actor.WorkspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// ApplyPolicy attaches a policy to a ticket, computing due times from the
// ticket creation timestamp. An existing record for the ticket is replaced
// wholesale: prior met/breached flags and escalation progress are discarded.
// The replacement and its audit entry commit atomically.
func (s *SLAService) ApplyPolicy(ctx context.Context, actor *domain.User, ticketID, policyID string) (*domain.TicketSLARecord, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}

	var record *domain.TicketSLARecord
	var policy *domain.SLAPolicy
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		var err error
		policy, err = st.Policies().GetByID(ctx, actor.WorkspaceID, policyID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("sla policy", map[string]any{"policy_id": policyID})
			}
			return err
		}
		if !policy.Active {
			return apperrors.NewInvalidState("cannot apply inactive policy", map[string]any{"policy_id": policyID})
		}

		ticket, err := st.Tickets().GetByID(ctx, actor.WorkspaceID, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return err
		}

		if _, err := st.TicketSLAs().DeleteByTicket(ctx, ticketID); err != nil {
			return err
		}

		record = domain.NewTicketSLARecord(ticket, policy)
		if err := st.TicketSLAs().Create(ctx, record); err != nil {
			return err
		}

		return st.Audit().Create(ctx, &domain.AuditLog{
			WorkspaceID: actor.WorkspaceID,
			ActorUserID: &actor.ID,
			EntityType:  domain.AuditEntityTicketSLA,
			EntityID:    ticketID,
			Action:      domain.AuditActionSLAApplied,
			Meta: map[string]any{
				"policy_id":   policy.ID,
				"policy_name": policy.Name,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventSLAApplied,
		WorkspaceID: actor.WorkspaceID,
		TicketID:    ticketID,
		Actor:       events.Actor{UserID: &actor.ID, Role: actor.Role},
		Timestamp:   time.Now().UTC(),
		Payload: events.SLAAppliedPayload{
			PolicyID:           policy.ID,
			PolicyName:         policy.Name,
			FirstResponseDueAt: record.FirstResponseDueAt,
			ResolutionDueAt:    record.ResolutionDueAt,
		},
	})
	return record, nil
}

// GetTicketSLA returns the SLA record for a ticket the actor may see.
func (s *SLAService) GetTicketSLA(ctx context.Context, actor *domain.User, ticketID string) (*domain.TicketSLARecord, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("actor required")
	}
	ticket, err := s.store.Tickets().GetByID(ctx, actor.WorkspaceID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if actor.Role == domain.RoleCustomer && ticket.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}

	record, err := s.store.TicketSLAs().GetByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket sla", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// OnReplyRecorded marks the first response met when a staff member replies on
// a tracked ticket. Customer replies never count. Idempotent; breach flags are
// untouched, so a late staff reply leaves met and breached both set.
func (s *SLAService) OnReplyRecorded(ctx context.Context, ticketID string, staffReply bool) error {
	return s.onReplyRecorded(ctx, s.store, ticketID, staffReply)
}

// onReplyRecorded is the transactional variant used by the ticket workflow so
// the flag lands in the same unit of work as the triggering message.
func (s *SLAService) onReplyRecorded(ctx context.Context, st repository.Store, ticketID string, staffReply bool) error {
	if !staffReply {
		return nil
	}
	_, err := st.TicketSLAs().MarkFirstResponseMet(ctx, ticketID)
	return err
}

// OnStatusChanged marks resolution met when a tracked ticket moves to
// RESOLVED or CLOSED. Idempotent for repeated transitions.
func (s *SLAService) OnStatusChanged(ctx context.Context, ticketID string, newStatus domain.TicketStatus) error {
	return s.onStatusChanged(ctx, s.store, ticketID, newStatus)
}

func (s *SLAService) onStatusChanged(ctx context.Context, st repository.Store, ticketID string, newStatus domain.TicketStatus) error {
	if newStatus != domain.TicketStatusResolved && newStatus != domain.TicketStatusClosed {
		return nil
	}
	_, err := st.TicketSLAs().MarkResolutionMet(ctx, ticketID)
	return err
}

func (s *SLAService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
