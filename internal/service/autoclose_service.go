package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// AutoCloseService closes long-resolved tickets after a period of inactivity.
type AutoCloseService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AutoCloseDependencies bundles collaborators for the auto-close sweep.
type AutoCloseDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAutoCloseService creates the service.
func NewAutoCloseService(deps AutoCloseDependencies) *AutoCloseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoCloseService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// RunAutoCloseSweep transitions RESOLVED tickets whose last activity (customer
// activity, else updated_at) predates now minus the cutoff to CLOSED, writing
// one audit entry per closure. Already-closed tickets are never selected, so
// re-running is a no-op. Returns the number of tickets closed.
func (s *AutoCloseService) RunAutoCloseSweep(ctx context.Context, now time.Time, cutoffDays int) (int, error) {
	cutoff := now.AddDate(0, 0, -cutoffDays)

	closed := 0
	var published []events.Event
	err := s.store.WithinTx(ctx, func(st repository.Store) error {
		candidates, err := st.Tickets().ListAutoCloseCandidates(ctx, cutoff)
		if err != nil {
			return err
		}
		for i := range candidates {
			ticket := &candidates[i]
			lastActivity := ticket.LastActivity()
			if !lastActivity.Before(cutoff) {
				continue
			}

			ticket.Status = domain.TicketStatusClosed
			closedAt := now
			ticket.ClosedAt = &closedAt
			if err := st.Tickets().Update(ctx, ticket); err != nil {
				return err
			}
			if err := st.Audit().Create(ctx, &domain.AuditLog{
				WorkspaceID: ticket.WorkspaceID,
				EntityType:  domain.AuditEntityTicket,
				EntityID:    ticket.ID,
				Action:      domain.AuditActionAutoClosed,
			}); err != nil {
				return err
			}
			closed++
			published = append(published, events.Event{
				ID:          uuid.NewString(),
				Type:        events.EventTicketAutoClosed,
				WorkspaceID: ticket.WorkspaceID,
				TicketID:    ticket.ID,
				Actor:       events.SystemActor(),
				Timestamp:   now,
				Payload:     events.TicketAutoClosedPayload{LastActivityAt: lastActivity},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.dispatcher != nil {
		for _, event := range published {
			_ = s.dispatcher.Publish(ctx, event)
		}
	}

	s.metrics.RecordSweep("auto_close", map[string]int64{"closed": int64(closed)})
	s.logger.Info("auto-close sweep finished",
		zap.Time("now", now),
		zap.Int("cutoff_days", cutoffDays),
		zap.Int("closed", closed),
	)
	return closed, nil
}
