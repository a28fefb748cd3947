package dto

import (
	"time"
)

// CreatePolicyRequest payload.
type CreatePolicyRequest struct {
	Name                     string `json:"name"`
	FirstResponseTimeMinutes int    `json:"first_response_time_minutes"`
	ResolutionTimeMinutes    int    `json:"resolution_time_minutes"`
}

// UpdatePolicyRequest carries partial policy updates.
type UpdatePolicyRequest struct {
	Name                     *string `json:"name"`
	FirstResponseTimeMinutes *int    `json:"first_response_time_minutes"`
	ResolutionTimeMinutes    *int    `json:"resolution_time_minutes"`
	Active                   *bool   `json:"is_active"`
}

// ApplyPolicyRequest payload.
type ApplyPolicyRequest struct {
	PolicyID string `json:"policy_id"`
}

// PolicyResponse represents an SLA policy.
type PolicyResponse struct {
	ID                       string    `json:"id"`
	WorkspaceID              string    `json:"workspace_id"`
	Name                     string    `json:"name"`
	FirstResponseTimeMinutes int       `json:"first_response_time_minutes"`
	ResolutionTimeMinutes    int       `json:"resolution_time_minutes"`
	Active                   bool      `json:"is_active"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// TicketSLAResponse represents SLA tracking state for one ticket.
type TicketSLAResponse struct {
	TicketID              string    `json:"ticket_id"`
	PolicyID              string    `json:"policy_id"`
	FirstResponseDueAt    time.Time `json:"first_response_due_at"`
	ResolutionDueAt       time.Time `json:"resolution_due_at"`
	FirstResponseMet      bool      `json:"first_response_met"`
	ResolutionMet         bool      `json:"resolution_met"`
	FirstResponseBreached bool      `json:"first_response_breached"`
	ResolutionBreached    bool      `json:"resolution_breached"`
	EscalationLevel       int       `json:"escalation_level"`
}

// WeeklyReportResponse summarizes one workspace week.
type WeeklyReportResponse struct {
	WeekStartDate   time.Time `json:"week_start_date"`
	TicketsCreated  int       `json:"tickets_created"`
	TicketsResolved int       `json:"tickets_resolved"`
	SLABreaches     int       `json:"sla_breaches"`
}
