package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDeadlines(t *testing.T) {
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	policy := &SLAPolicy{FirstResponseTimeMinutes: 60, ResolutionTimeMinutes: 480}

	frDue, resDue := policy.Deadlines(created)

	assert.Equal(t, created.Add(60*time.Minute), frDue)
	assert.Equal(t, created.Add(480*time.Minute), resDue)
}

func TestPolicyDeadlinesZeroBudgets(t *testing.T) {
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	policy := &SLAPolicy{}

	frDue, resDue := policy.Deadlines(created)

	assert.Equal(t, created, frDue)
	assert.Equal(t, created, resDue)
}

func TestNewTicketSLARecord(t *testing.T) {
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{ID: "t1", WorkspaceID: "w1", CreatedAt: created}
	policy := &SLAPolicy{ID: "p1", FirstResponseTimeMinutes: 10, ResolutionTimeMinutes: 30}

	record := NewTicketSLARecord(ticket, policy)

	assert.Equal(t, "t1", record.TicketID)
	assert.Equal(t, "p1", record.PolicyID)
	assert.Equal(t, created.Add(10*time.Minute), record.FirstResponseDueAt)
	assert.Equal(t, created.Add(30*time.Minute), record.ResolutionDueAt)
	assert.False(t, record.FirstResponseMet)
	assert.False(t, record.ResolutionBreached)
	assert.Zero(t, record.EscalationLevel)
}

func TestMarkMetIsMonotonic(t *testing.T) {
	record := &TicketSLARecord{}

	assert.True(t, record.MarkFirstResponseMet())
	assert.False(t, record.MarkFirstResponseMet())
	assert.True(t, record.FirstResponseMet)

	assert.True(t, record.MarkResolutionMet())
	assert.False(t, record.MarkResolutionMet())
	assert.True(t, record.ResolutionMet)
}

func TestMarkBreachedRequiresOverdueAndUnmet(t *testing.T) {
	due := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	record := &TicketSLARecord{FirstResponseDueAt: due, ResolutionDueAt: due}

	// Not yet due.
	assert.False(t, record.MarkFirstResponseBreached(due))
	assert.False(t, record.MarkFirstResponseBreached(due.Add(-time.Second)))

	// Met deadlines never breach.
	record.MarkFirstResponseMet()
	assert.False(t, record.MarkFirstResponseBreached(due.Add(time.Hour)))

	// Overdue and unmet breaches exactly once.
	assert.True(t, record.MarkResolutionBreached(due.Add(time.Second)))
	assert.False(t, record.MarkResolutionBreached(due.Add(time.Hour)))
	assert.True(t, record.Breached())
}

func TestLateReplyKeepsBothFlags(t *testing.T) {
	due := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	record := &TicketSLARecord{FirstResponseDueAt: due}

	require.True(t, record.MarkFirstResponseBreached(due.Add(time.Minute)))
	require.True(t, record.MarkFirstResponseMet())

	assert.True(t, record.FirstResponseBreached)
	assert.True(t, record.FirstResponseMet)
}

func TestEscalateCapsAtMax(t *testing.T) {
	record := &TicketSLARecord{}

	level, ok := record.Escalate()
	require.True(t, ok)
	assert.Equal(t, 1, level)

	level, ok = record.Escalate()
	require.True(t, ok)
	assert.Equal(t, 2, level)

	level, ok = record.Escalate()
	assert.False(t, ok)
	assert.Equal(t, MaxEscalationLevel, level)
}

func TestPriorityForEscalationLevel(t *testing.T) {
	priority, ok := PriorityForEscalationLevel(1)
	require.True(t, ok)
	assert.Equal(t, TicketPriorityHigh, priority)

	priority, ok = PriorityForEscalationLevel(2)
	require.True(t, ok)
	assert.Equal(t, TicketPriorityUrgent, priority)

	_, ok = PriorityForEscalationLevel(0)
	assert.False(t, ok)
	_, ok = PriorityForEscalationLevel(3)
	assert.False(t, ok)
}

func TestWeekStart(t *testing.T) {
	// Thursday afternoon truncates back to Monday midnight.
	thursday := time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(thursday))

	// Monday maps to itself.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, WeekStart(monday))

	// Sunday belongs to the week that started six days earlier.
	sunday := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(sunday))
}

func TestTicketLastActivity(t *testing.T) {
	updated := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{UpdatedAt: updated}
	assert.Equal(t, updated, ticket.LastActivity())

	customer := updated.Add(-time.Hour)
	ticket.LastCustomerActivityAt = &customer
	assert.Equal(t, customer, ticket.LastActivity())
}

func TestTicketStatusIsActive(t *testing.T) {
	assert.True(t, TicketStatusNew.IsActive())
	assert.True(t, TicketStatusOpen.IsActive())
	assert.True(t, TicketStatusPending.IsActive())
	assert.False(t, TicketStatusResolved.IsActive())
	assert.False(t, TicketStatusClosed.IsActive())
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleAgent.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
}
