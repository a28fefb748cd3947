package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// ReportService produces per-workspace weekly metric snapshots.
type ReportService struct {
	store   repository.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// ReportDependencies bundles collaborators for reporting.
type ReportDependencies struct {
	Store   repository.Store
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewReportService creates the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:   deps.Store,
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// WeeklyMetrics summarizes one workspace week.
type WeeklyMetrics struct {
	TicketsCreated  int `json:"tickets_created"`
	TicketsResolved int `json:"tickets_resolved"`
	SLABreaches     int `json:"sla_breaches"`
}

// RunWeeklyReportSweep snapshots metrics for every workspace for the week
// containing now. One snapshot per workspace and week; existing snapshots are
// skipped, making the sweep idempotent. Returns the number created.
func (s *ReportService) RunWeeklyReportSweep(ctx context.Context, now time.Time) (int, error) {
	weekStart := domain.WeekStart(now)

	workspaces, err := s.store.Workspaces().List(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, ws := range workspaces {
		wsID := ws.ID
		err := s.store.WithinTx(ctx, func(st repository.Store) error {
			if _, err := st.Reports().GetByWeek(ctx, wsID, weekStart); err == nil {
				return nil
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}

			metrics, err := collectWeeklyMetrics(ctx, st, wsID, weekStart)
			if err != nil {
				return err
			}
			if err := st.Reports().Create(ctx, &domain.WeeklyReportSnapshot{
				WorkspaceID:   wsID,
				WeekStartDate: weekStart,
				Payload: map[string]any{
					"tickets_created":  metrics.TicketsCreated,
					"tickets_resolved": metrics.TicketsResolved,
					"sla_breaches":     metrics.SLABreaches,
				},
			}); err != nil {
				return err
			}
			created++
			return nil
		})
		if err != nil {
			return created, err
		}
	}

	s.metrics.RecordSweep("weekly_report", map[string]int64{"snapshots": int64(created)})
	s.logger.Info("weekly report sweep finished",
		zap.Time("week_start", weekStart),
		zap.Int("snapshots", created),
	)
	return created, nil
}

// GetCurrentWeek computes live metrics for the actor's workspace for the week
// containing now. Staff only.
func (s *ReportService) GetCurrentWeek(ctx context.Context, actor *domain.User, now time.Time) (*WeeklyMetrics, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	metrics, err := collectWeeklyMetrics(ctx, s.store, actor.WorkspaceID, domain.WeekStart(now))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return metrics, nil
}

// GetLatestSnapshot returns the most recent stored snapshot for the actor's
// workspace. Staff only.
func (s *ReportService) GetLatestSnapshot(ctx context.Context, actor *domain.User) (*domain.WeeklyReportSnapshot, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	snapshot, err := s.store.Reports().Latest(ctx, actor.WorkspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("weekly report", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return snapshot, nil
}

func collectWeeklyMetrics(ctx context.Context, st repository.Store, workspaceID string, weekStart time.Time) (*WeeklyMetrics, error) {
	createdCount, err := st.Tickets().CountCreatedSince(ctx, workspaceID, weekStart)
	if err != nil {
		return nil, err
	}
	resolvedCount, err := st.Tickets().CountResolvedSince(ctx, workspaceID, weekStart)
	if err != nil {
		return nil, err
	}
	breaches, err := st.TicketSLAs().CountFirstResponseBreachesSince(ctx, workspaceID, weekStart)
	if err != nil {
		return nil, err
	}
	return &WeeklyMetrics{
		TicketsCreated:  createdCount,
		TicketsResolved: resolvedCount,
		SLABreaches:     breaches,
	}, nil
}
