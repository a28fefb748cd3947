package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func newAutoCloseFixture(t *testing.T) (*AutoCloseService, *memStore, *domain.User, *domain.User) {
	t.Helper()
	store := newMemStore()
	ws := seedWorkspace(store)
	admin := seedUser(store, ws.ID, domain.RoleAdmin)
	customer := seedUser(store, ws.ID, domain.RoleCustomer)
	svc := NewAutoCloseService(AutoCloseDependencies{Store: store})
	return svc, store, admin, customer
}

func resolveTicketAt(t *testing.T, store *memStore, ticket *domain.Ticket, lastCustomer *time.Time) {
	t.Helper()
	stored, err := store.Tickets().GetByID(context.Background(), ticket.WorkspaceID, ticket.ID)
	require.NoError(t, err)
	stored.Status = domain.TicketStatusResolved
	stored.LastCustomerActivityAt = lastCustomer
	require.NoError(t, store.Tickets().Update(context.Background(), stored))
}

func TestAutoCloseClosesStaleResolvedTickets(t *testing.T) {
	svc, store, admin, customer := newAutoCloseFixture(t)
	now := time.Now().UTC()

	stale := seedTicket(store, admin.WorkspaceID, customer.ID, now.AddDate(0, 0, -30))
	lastActivity := now.AddDate(0, 0, -10)
	resolveTicketAt(t, store, stale, &lastActivity)

	closed, err := svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	updated, err := store.Tickets().GetByID(context.Background(), admin.WorkspaceID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.NotNil(t, updated.ClosedAt)
	assert.True(t, updated.ClosedAt.Equal(now))

	audits, err := store.Audit().ListByEntity(context.Background(), admin.WorkspaceID, domain.AuditEntityTicket, stale.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, domain.AuditActionAutoClosed, audits[0].Action)
	assert.Nil(t, audits[0].ActorUserID)
}

func TestAutoCloseSkipsRecentActivity(t *testing.T) {
	svc, store, admin, customer := newAutoCloseFixture(t)
	now := time.Now().UTC()

	fresh := seedTicket(store, admin.WorkspaceID, customer.ID, now.AddDate(0, 0, -30))
	lastActivity := now.AddDate(0, 0, -3)
	resolveTicketAt(t, store, fresh, &lastActivity)

	closed, err := svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Zero(t, closed)

	updated, err := store.Tickets().GetByID(context.Background(), admin.WorkspaceID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
}

func TestAutoCloseIgnoresNonResolvedTickets(t *testing.T) {
	svc, store, admin, customer := newAutoCloseFixture(t)
	now := time.Now().UTC()

	open := seedTicket(store, admin.WorkspaceID, customer.ID, now.AddDate(0, 0, -30))
	stored, err := store.Tickets().GetByID(context.Background(), admin.WorkspaceID, open.ID)
	require.NoError(t, err)
	stored.Status = domain.TicketStatusOpen
	require.NoError(t, store.Tickets().Update(context.Background(), stored))

	closed, err := svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestAutoCloseIsIdempotent(t *testing.T) {
	svc, store, admin, customer := newAutoCloseFixture(t)
	now := time.Now().UTC()

	stale := seedTicket(store, admin.WorkspaceID, customer.ID, now.AddDate(0, 0, -30))
	lastActivity := now.AddDate(0, 0, -10)
	resolveTicketAt(t, store, stale, &lastActivity)

	closed, err := svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	closed, err = svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Zero(t, closed)

	audits, err := store.Audit().ListByEntity(context.Background(), admin.WorkspaceID, domain.AuditEntityTicket, stale.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestAutoCloseFallsBackToUpdatedAt(t *testing.T) {
	svc, store, admin, customer := newAutoCloseFixture(t)
	now := time.Now().UTC()

	// Resolved long ago, never any customer activity: updated_at decides.
	ticket := seedTicket(store, admin.WorkspaceID, customer.ID, now.AddDate(0, 0, -30))
	resolveTicketAt(t, store, ticket, nil)

	// The update above stamps updated_at with the current time, so the
	// ticket is too recent to close.
	closed, err := svc.RunAutoCloseSweep(context.Background(), now, 7)
	require.NoError(t, err)
	assert.Zero(t, closed)

	// Once the cutoff passes updated_at, the ticket goes.
	closed, err = svc.RunAutoCloseSweep(context.Background(), now.AddDate(0, 0, 8), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}
