package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
	"github.com/spec-kit/helpdesk-sla/internal/service"
)

// Lock TTLs bound how long a crashed run can block the next one.
const (
	escalationLockKey = "sweep:escalation:lock"
	autoCloseLockKey  = "sweep:auto_close:lock"
	weeklyLockKey     = "sweep:weekly_report:lock"

	escalationLockTTL = 2 * time.Minute
	autoCloseLockTTL  = 10 * time.Minute
	weeklyLockTTL     = 30 * time.Minute
)

// SweepWorker schedules the background sweeps. Each sweep type holds a Redis
// advisory lock while it runs so that concurrent deployments never run the
// same sweep twice at once; distinct sweep types may overlap freely.
type SweepWorker struct {
	escalation *service.EscalationService
	autoClose  *service.AutoCloseService
	reports    *service.ReportService
	redis      *persistence.Redis
	cfg        config.SLAConfig
	logger     *zap.Logger
	cron       *cron.Cron
}

// SweepWorkerDependencies bundles collaborators for the sweep worker.
type SweepWorkerDependencies struct {
	Escalation *service.EscalationService
	AutoClose  *service.AutoCloseService
	Reports    *service.ReportService
	Redis      *persistence.Redis
	Config     config.SLAConfig
	Logger     *zap.Logger
}

// NewSweepWorker constructs the worker without starting it.
func NewSweepWorker(deps SweepWorkerDependencies) *SweepWorker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepWorker{
		escalation: deps.Escalation,
		autoClose:  deps.AutoClose,
		reports:    deps.Reports,
		redis:      deps.Redis,
		cfg:        deps.Config,
		logger:     logger,
		cron:       cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the sweep schedules and launches the cron loop.
func (w *SweepWorker) Start(ctx context.Context) error {
	escalationSpec := fmt.Sprintf("@every %s", w.cfg.EscalationInterval())
	if _, err := w.cron.AddFunc(escalationSpec, func() { w.runEscalation(ctx) }); err != nil {
		return fmt.Errorf("schedule escalation sweep: %w", err)
	}
	if _, err := w.cron.AddFunc("0 3 * * *", func() { w.runAutoClose(ctx) }); err != nil {
		return fmt.Errorf("schedule auto-close sweep: %w", err)
	}
	weeklySpec := fmt.Sprintf("0 %d * * %s", w.cfg.WeeklyReportHour, cronDayToken(w.cfg.WeeklyReportDay))
	if _, err := w.cron.AddFunc(weeklySpec, func() { w.runWeeklyReport(ctx) }); err != nil {
		return fmt.Errorf("schedule weekly report sweep: %w", err)
	}

	w.cron.Start()
	w.logger.Info("sweep worker started",
		zap.String("escalation_interval", w.cfg.EscalationInterval().String()),
		zap.Int("auto_close_days", w.cfg.AutoCloseDays),
		zap.String("weekly_report", weeklySpec))
	return nil
}

// Stop halts scheduling and waits for in-flight sweeps.
func (w *SweepWorker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	w.logger.Info("sweep worker stopped")
}

func (w *SweepWorker) runEscalation(ctx context.Context) {
	if !w.redis.AcquireLock(ctx, escalationLockKey, escalationLockTTL) {
		w.logger.Debug("escalation sweep already running elsewhere")
		return
	}
	defer w.redis.ReleaseLock(ctx, escalationLockKey)

	result, err := w.escalation.RunEscalationSweep(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error("escalation sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("escalation sweep finished",
		zap.Int64("first_response_breaches", result.FirstResponseBreaches),
		zap.Int64("resolution_breaches", result.ResolutionBreaches),
		zap.Int("escalated", result.Escalated),
		zap.Int("reassigned", result.Reassigned))
}

func (w *SweepWorker) runAutoClose(ctx context.Context) {
	if !w.redis.AcquireLock(ctx, autoCloseLockKey, autoCloseLockTTL) {
		w.logger.Debug("auto-close sweep already running elsewhere")
		return
	}
	defer w.redis.ReleaseLock(ctx, autoCloseLockKey)

	closed, err := w.autoClose.RunAutoCloseSweep(ctx, time.Now().UTC(), w.cfg.AutoCloseDays)
	if err != nil {
		w.logger.Error("auto-close sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("auto-close sweep finished", zap.Int("closed", closed))
}

func (w *SweepWorker) runWeeklyReport(ctx context.Context) {
	if !w.redis.AcquireLock(ctx, weeklyLockKey, weeklyLockTTL) {
		w.logger.Debug("weekly report sweep already running elsewhere")
		return
	}
	defer w.redis.ReleaseLock(ctx, weeklyLockKey)

	created, err := w.reports.RunWeeklyReportSweep(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error("weekly report sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("weekly report sweep finished", zap.Int("snapshots", created))
}

// cronDayToken maps a full weekday name to the three-letter cron token.
func cronDayToken(day string) string {
	if len(day) >= 3 {
		return day[:3]
	}
	return "MON"
}
