package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func TestWeeklyReportSweepSnapshotsEveryWorkspace(t *testing.T) {
	store := newMemStore()
	wsA := seedWorkspace(store)
	wsB := &domain.Workspace{Name: "Globex", Slug: "globex"}
	require.NoError(t, store.Workspaces().Create(context.Background(), wsB))
	customer := seedUser(store, wsA.ID, domain.RoleCustomer)
	seedTicket(store, wsA.ID, customer.ID, time.Now().UTC())

	svc := NewReportService(ReportDependencies{Store: store})

	now := time.Now().UTC()
	created, err := svc.RunWeeklyReportSweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	weekStart := domain.WeekStart(now)
	snapshot, err := store.Reports().GetByWeek(context.Background(), wsA.ID, weekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 1, snapshot.Payload["tickets_created"])

	snapshot, err = store.Reports().GetByWeek(context.Background(), wsB.ID, weekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 0, snapshot.Payload["tickets_created"])
}

func TestWeeklyReportSweepIsIdempotentPerWeek(t *testing.T) {
	store := newMemStore()
	seedWorkspace(store)
	svc := NewReportService(ReportDependencies{Store: store})

	now := time.Now().UTC()
	created, err := svc.RunWeeklyReportSweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = svc.RunWeeklyReportSweep(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, created)

	// A different week gets its own snapshot.
	created, err = svc.RunWeeklyReportSweep(context.Background(), now.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestGetCurrentWeekStaffOnly(t *testing.T) {
	store := newMemStore()
	ws := seedWorkspace(store)
	agent := seedUser(store, ws.ID, domain.RoleAgent)
	customer := seedUser(store, ws.ID, domain.RoleCustomer)
	seedTicket(store, ws.ID, customer.ID, time.Now().UTC())
	svc := NewReportService(ReportDependencies{Store: store})

	metrics, err := svc.GetCurrentWeek(context.Background(), agent, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.TicketsCreated)
	assert.Zero(t, metrics.TicketsResolved)

	_, err = svc.GetCurrentWeek(context.Background(), customer, time.Now().UTC())
	require.Error(t, err)
}

func TestGetLatestSnapshot(t *testing.T) {
	store := newMemStore()
	ws := seedWorkspace(store)
	agent := seedUser(store, ws.ID, domain.RoleAgent)
	svc := NewReportService(ReportDependencies{Store: store})

	_, err := svc.GetLatestSnapshot(context.Background(), agent)
	require.Error(t, err)

	now := time.Now().UTC()
	_, err = svc.RunWeeklyReportSweep(context.Background(), now)
	require.NoError(t, err)
	_, err = svc.RunWeeklyReportSweep(context.Background(), now.AddDate(0, 0, 7))
	require.NoError(t, err)

	snapshot, err := svc.GetLatestSnapshot(context.Background(), agent)
	require.NoError(t, err)
	assert.True(t, snapshot.WeekStartDate.Equal(domain.WeekStart(now.AddDate(0, 0, 7))))
}
