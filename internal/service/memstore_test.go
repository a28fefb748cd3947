package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// memStore is an in-memory repository.Store used to exercise the services
// without a database. Behavior mirrors the SQL repositories: not-found is
// pgx.ErrNoRows, flag updates are guarded, ordering follows insertion.
type memStore struct {
	workspaces  []*domain.Workspace
	users       []*domain.User
	tickets     map[string]*domain.Ticket
	ticketOrder []string
	messages    []*domain.TicketMessage
	policies    map[string]*domain.SLAPolicy
	policyOrder []string
	slas        map[string]*domain.TicketSLARecord
	slaOrder    []string
	assignments []*domain.Assignment
	audits      []*domain.AuditLog
	reports     []*domain.WeeklyReportSnapshot
}

func newMemStore() *memStore {
	return &memStore{
		tickets:  map[string]*domain.Ticket{},
		policies: map[string]*domain.SLAPolicy{},
		slas:     map[string]*domain.TicketSLARecord{},
	}
}

func (m *memStore) Workspaces() repository.WorkspaceRepository   { return (*memWorkspaces)(m) }
func (m *memStore) Users() repository.UserRepository             { return (*memUsers)(m) }
func (m *memStore) Tickets() repository.TicketRepository         { return (*memTickets)(m) }
func (m *memStore) Messages() repository.TicketMessageRepository { return (*memMessages)(m) }
func (m *memStore) Policies() repository.SLAPolicyRepository     { return (*memPolicies)(m) }
func (m *memStore) TicketSLAs() repository.TicketSLARepository   { return (*memSLAs)(m) }
func (m *memStore) Assignments() repository.AssignmentRepository { return (*memAssignments)(m) }
func (m *memStore) Audit() repository.AuditLogRepository         { return (*memAudits)(m) }
func (m *memStore) Reports() repository.ReportRepository         { return (*memReports)(m) }

func (m *memStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// --- workspaces ---

type memWorkspaces memStore

func (m *memWorkspaces) Create(ctx context.Context, ws *domain.Workspace) error {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	ws.CreatedAt = stamp(ws.CreatedAt)
	ws.UpdatedAt = ws.CreatedAt
	cp := *ws
	m.workspaces = append(m.workspaces, &cp)
	return nil
}

func (m *memWorkspaces) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	for _, ws := range m.workspaces {
		if ws.ID == id {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memWorkspaces) List(ctx context.Context) ([]domain.Workspace, error) {
	out := make([]domain.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		out = append(out, *ws)
	}
	return out, nil
}

// --- users ---

type memUsers memStore

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = stamp(user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) ListActiveStaff(ctx context.Context, workspaceID string) ([]domain.User, error) {
	var out []domain.User
	for _, user := range m.users {
		if user.WorkspaceID == workspaceID && user.Active && user.Role.IsStaff() {
			out = append(out, *user)
		}
	}
	return out, nil
}

// --- tickets ---

type memTickets memStore

func (m *memTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.CreatedAt = stamp(ticket.CreatedAt)
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	m.ticketOrder = append(m.ticketOrder, ticket.ID)
	return nil
}

func (m *memTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := m.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now().UTC()
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *memTickets) GetByID(ctx context.Context, workspaceID, id string) (*domain.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok || ticket.WorkspaceID != workspaceID {
		return nil, pgx.ErrNoRows
	}
	cp := *ticket
	return &cp, nil
}

func (m *memTickets) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, id := range m.ticketOrder {
		ticket := m.tickets[id]
		if ticket.WorkspaceID == workspaceID {
			out = append(out, *ticket)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memTickets) ListByRequester(ctx context.Context, workspaceID, requesterID string, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, id := range m.ticketOrder {
		ticket := m.tickets[id]
		if ticket.WorkspaceID == workspaceID && ticket.RequesterID == requesterID {
			out = append(out, *ticket)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memTickets) CountAssignedActive(ctx context.Context, agentID string) (int, error) {
	count := 0
	for _, ticket := range m.tickets {
		if ticket.AssignedAgentID != nil && *ticket.AssignedAgentID == agentID && ticket.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (m *memTickets) ListAutoCloseCandidates(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, id := range m.ticketOrder {
		ticket := m.tickets[id]
		if ticket.Status == domain.TicketStatusResolved && ticket.LastActivity().Before(cutoff) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (m *memTickets) CountCreatedSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	count := 0
	for _, ticket := range m.tickets {
		if ticket.WorkspaceID == workspaceID && !ticket.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memTickets) CountResolvedSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	count := 0
	for _, ticket := range m.tickets {
		if ticket.WorkspaceID != workspaceID {
			continue
		}
		if (ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed) && !ticket.UpdatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- messages ---

type memMessages memStore

func (m *memMessages) Create(ctx context.Context, message *domain.TicketMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = stamp(message.CreatedAt)
	cp := *message
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memMessages) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	for _, message := range m.messages {
		if message.TicketID == ticketID {
			out = append(out, *message)
		}
	}
	return out, nil
}

// --- policies ---

type memPolicies memStore

func (m *memPolicies) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	policy.CreatedAt = stamp(policy.CreatedAt)
	policy.UpdatedAt = policy.CreatedAt
	cp := *policy
	m.policies[policy.ID] = &cp
	m.policyOrder = append(m.policyOrder, policy.ID)
	return nil
}

func (m *memPolicies) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	if _, ok := m.policies[policy.ID]; !ok {
		return pgx.ErrNoRows
	}
	policy.UpdatedAt = time.Now().UTC()
	cp := *policy
	m.policies[policy.ID] = &cp
	return nil
}

func (m *memPolicies) GetByID(ctx context.Context, workspaceID, id string) (*domain.SLAPolicy, error) {
	policy, ok := m.policies[id]
	if !ok || policy.WorkspaceID != workspaceID {
		return nil, pgx.ErrNoRows
	}
	cp := *policy
	return &cp, nil
}

func (m *memPolicies) GetByName(ctx context.Context, workspaceID, name string) (*domain.SLAPolicy, error) {
	for _, id := range m.policyOrder {
		policy := m.policies[id]
		if policy.WorkspaceID == workspaceID && policy.Name == name {
			cp := *policy
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memPolicies) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.SLAPolicy, error) {
	var out []domain.SLAPolicy
	for _, id := range m.policyOrder {
		policy := m.policies[id]
		if policy.WorkspaceID == workspaceID {
			out = append(out, *policy)
		}
	}
	return out, nil
}

// --- ticket SLA records ---

type memSLAs memStore

func (m *memSLAs) Create(ctx context.Context, record *domain.TicketSLARecord) error {
	record.CreatedAt = stamp(record.CreatedAt)
	record.UpdatedAt = record.CreatedAt
	cp := *record
	m.slas[record.TicketID] = &cp
	m.slaOrder = append(m.slaOrder, record.TicketID)
	return nil
}

func (m *memSLAs) DeleteByTicket(ctx context.Context, ticketID string) (bool, error) {
	if _, ok := m.slas[ticketID]; !ok {
		return false, nil
	}
	delete(m.slas, ticketID)
	for i, id := range m.slaOrder {
		if id == ticketID {
			m.slaOrder = append(m.slaOrder[:i], m.slaOrder[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memSLAs) GetByTicket(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	record, ok := m.slas[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *record
	return &cp, nil
}

func (m *memSLAs) MarkFirstResponseMet(ctx context.Context, ticketID string) (bool, error) {
	record, ok := m.slas[ticketID]
	if !ok || record.FirstResponseMet {
		return false, nil
	}
	record.FirstResponseMet = true
	record.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memSLAs) MarkResolutionMet(ctx context.Context, ticketID string) (bool, error) {
	record, ok := m.slas[ticketID]
	if !ok || record.ResolutionMet {
		return false, nil
	}
	record.ResolutionMet = true
	record.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *memSLAs) MarkFirstResponseBreaches(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	for _, record := range m.slas {
		if record.FirstResponseDueAt.Before(now) && !record.FirstResponseMet && !record.FirstResponseBreached {
			record.FirstResponseBreached = true
			record.UpdatedAt = time.Now().UTC()
			affected++
		}
	}
	return affected, nil
}

func (m *memSLAs) MarkResolutionBreaches(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	for _, record := range m.slas {
		if record.ResolutionDueAt.Before(now) && !record.ResolutionMet && !record.ResolutionBreached {
			record.ResolutionBreached = true
			record.UpdatedAt = time.Now().UTC()
			affected++
		}
	}
	return affected, nil
}

func (m *memSLAs) ListEscalatable(ctx context.Context) ([]domain.TicketSLARecord, error) {
	var out []domain.TicketSLARecord
	for _, id := range m.slaOrder {
		record := m.slas[id]
		if !record.FirstResponseBreached && !record.ResolutionBreached {
			continue
		}
		if record.EscalationLevel >= domain.MaxEscalationLevel {
			continue
		}
		ticket, ok := m.tickets[record.TicketID]
		if !ok || !ticket.Status.IsActive() {
			continue
		}
		out = append(out, *record)
	}
	return out, nil
}

func (m *memSLAs) IncrementEscalation(ctx context.Context, ticketID string) (int, bool, error) {
	record, ok := m.slas[ticketID]
	if !ok || record.EscalationLevel >= domain.MaxEscalationLevel {
		return domain.MaxEscalationLevel, false, nil
	}
	record.EscalationLevel++
	record.UpdatedAt = time.Now().UTC()
	return record.EscalationLevel, true, nil
}

func (m *memSLAs) CountFirstResponseBreachesSince(ctx context.Context, workspaceID string, since time.Time) (int, error) {
	count := 0
	for _, record := range m.slas {
		if record.WorkspaceID == workspaceID && record.FirstResponseBreached && !record.UpdatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- assignments ---

type memAssignments memStore

func (m *memAssignments) Create(ctx context.Context, assignment *domain.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = stamp(assignment.CreatedAt)
	cp := *assignment
	m.assignments = append(m.assignments, &cp)
	return nil
}

func (m *memAssignments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for _, assignment := range m.assignments {
		if assignment.TicketID == ticketID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

// --- audit logs ---

type memAudits memStore

func (m *memAudits) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = stamp(entry.CreatedAt)
	cp := *entry
	m.audits = append(m.audits, &cp)
	return nil
}

func (m *memAudits) ListByEntity(ctx context.Context, workspaceID, entityType, entityID string) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	for _, entry := range m.audits {
		if entry.WorkspaceID == workspaceID && entry.EntityType == entityType && entry.EntityID == entityID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

// --- weekly reports ---

type memReports memStore

func (m *memReports) Create(ctx context.Context, snapshot *domain.WeeklyReportSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	snapshot.CreatedAt = stamp(snapshot.CreatedAt)
	cp := *snapshot
	m.reports = append(m.reports, &cp)
	return nil
}

func (m *memReports) GetByWeek(ctx context.Context, workspaceID string, weekStart time.Time) (*domain.WeeklyReportSnapshot, error) {
	for _, snapshot := range m.reports {
		if snapshot.WorkspaceID == workspaceID && snapshot.WeekStartDate.Equal(weekStart) {
			cp := *snapshot
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memReports) Latest(ctx context.Context, workspaceID string) (*domain.WeeklyReportSnapshot, error) {
	var latest *domain.WeeklyReportSnapshot
	for _, snapshot := range m.reports {
		if snapshot.WorkspaceID != workspaceID {
			continue
		}
		if latest == nil || snapshot.WeekStartDate.After(latest.WeekStartDate) {
			latest = snapshot
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

// --- fixtures ---

func seedWorkspace(m *memStore) *domain.Workspace {
	ws := &domain.Workspace{Name: "Acme", Slug: "acme"}
	_ = m.Workspaces().Create(context.Background(), ws)
	return ws
}

func seedUser(m *memStore, workspaceID string, role domain.Role) *domain.User {
	user := &domain.User{
		WorkspaceID: workspaceID,
		Email:       uuid.NewString() + "@example.com",
		FullName:    "Test User",
		Role:        role,
		Active:      true,
	}
	_ = m.Users().Create(context.Background(), user)
	return user
}

func seedTicket(m *memStore, workspaceID, requesterID string, createdAt time.Time) *domain.Ticket {
	ticket := &domain.Ticket{
		WorkspaceID: workspaceID,
		RequesterID: requesterID,
		Subject:     "printer on fire",
		Status:      domain.TicketStatusNew,
		Priority:    domain.TicketPriorityMedium,
		CreatedAt:   createdAt,
	}
	_ = m.Tickets().Create(context.Background(), ticket)
	return ticket
}

func seedPolicy(m *memStore, workspaceID string, frMinutes, resMinutes int) *domain.SLAPolicy {
	policy := &domain.SLAPolicy{
		WorkspaceID:              workspaceID,
		Name:                     "policy-" + uuid.NewString()[:8],
		FirstResponseTimeMinutes: frMinutes,
		ResolutionTimeMinutes:    resMinutes,
		Active:                   true,
	}
	_ = m.Policies().Create(context.Background(), policy)
	return policy
}
