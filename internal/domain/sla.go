package domain

import "time"

// MaxEscalationLevel caps how far a ticket can be escalated.
const MaxEscalationLevel = 2

// SLAPolicy is a named pair of time budgets applicable to tickets within a
// workspace. Names are unique per workspace, not globally. Updating a policy
// never recomputes records it was already applied to.
type SLAPolicy struct {
	ID                       string
	WorkspaceID              string
	Name                     string
	FirstResponseTimeMinutes int
	ResolutionTimeMinutes    int
	Active                   bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Deadlines computes the absolute due timestamps for a ticket created at the
// given instant. Wall-clock arithmetic only; no business-hours adjustment.
func (p *SLAPolicy) Deadlines(createdAt time.Time) (firstResponseDue, resolutionDue time.Time) {
	firstResponseDue = createdAt.Add(time.Duration(p.FirstResponseTimeMinutes) * time.Minute)
	resolutionDue = createdAt.Add(time.Duration(p.ResolutionTimeMinutes) * time.Minute)
	return firstResponseDue, resolutionDue
}

// TicketSLARecord tracks SLA progress for one ticket. The ticket id is the
// primary key; applying a new policy replaces the record wholesale. Met and
// breached flags only ever move false to true, and the escalation level only
// climbs, capped at MaxEscalationLevel.
type TicketSLARecord struct {
	TicketID              string
	WorkspaceID           string
	PolicyID              string
	FirstResponseDueAt    time.Time
	ResolutionDueAt       time.Time
	FirstResponseMet      bool
	ResolutionMet         bool
	FirstResponseBreached bool
	ResolutionBreached    bool
	EscalationLevel       int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewTicketSLARecord builds a fresh record for a ticket under the policy,
// with due times derived from the ticket creation timestamp.
func NewTicketSLARecord(ticket *Ticket, policy *SLAPolicy) *TicketSLARecord {
	frDue, resDue := policy.Deadlines(ticket.CreatedAt)
	return &TicketSLARecord{
		TicketID:           ticket.ID,
		WorkspaceID:        ticket.WorkspaceID,
		PolicyID:           policy.ID,
		FirstResponseDueAt: frDue,
		ResolutionDueAt:    resDue,
	}
}

// MarkFirstResponseMet flips the flag when still unset and reports whether a
// transition happened. The flag never resets.
func (r *TicketSLARecord) MarkFirstResponseMet() bool {
	if r.FirstResponseMet {
		return false
	}
	r.FirstResponseMet = true
	return true
}

// MarkResolutionMet flips the flag when still unset and reports whether a
// transition happened.
func (r *TicketSLARecord) MarkResolutionMet() bool {
	if r.ResolutionMet {
		return false
	}
	r.ResolutionMet = true
	return true
}

// MarkFirstResponseBreached flags an overdue unmet first response. A breach is
// permanent; a late reply afterwards keeps both flags set.
func (r *TicketSLARecord) MarkFirstResponseBreached(now time.Time) bool {
	if r.FirstResponseBreached || r.FirstResponseMet || !r.FirstResponseDueAt.Before(now) {
		return false
	}
	r.FirstResponseBreached = true
	return true
}

// MarkResolutionBreached flags an overdue unmet resolution.
func (r *TicketSLARecord) MarkResolutionBreached(now time.Time) bool {
	if r.ResolutionBreached || r.ResolutionMet || !r.ResolutionDueAt.Before(now) {
		return false
	}
	r.ResolutionBreached = true
	return true
}

// Breached reports whether either deadline has been breached.
func (r *TicketSLARecord) Breached() bool {
	return r.FirstResponseBreached || r.ResolutionBreached
}

// Escalate raises the level by exactly one step and returns the new level.
// Returns false without change once the cap is reached.
func (r *TicketSLARecord) Escalate() (int, bool) {
	if r.EscalationLevel >= MaxEscalationLevel {
		return r.EscalationLevel, false
	}
	r.EscalationLevel++
	return r.EscalationLevel, true
}

// PriorityForEscalationLevel maps an escalation level to the ticket priority
// it forces: level 1 is HIGH, level 2 is URGENT.
func PriorityForEscalationLevel(level int) (TicketPriority, bool) {
	switch level {
	case 1:
		return TicketPriorityHigh, true
	case 2:
		return TicketPriorityUrgent, true
	}
	return "", false
}
