package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// SLAHandler manages SLA policy endpoints and per-ticket SLA state.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// CreatePolicy POST /sla/policies.
func (h *SLAHandler) CreatePolicy(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy, err := h.service.CreatePolicy(c.UserContext(), actor, service.PolicyCreateInput{
		Name:                     req.Name,
		FirstResponseTimeMinutes: req.FirstResponseTimeMinutes,
		ResolutionTimeMinutes:    req.ResolutionTimeMinutes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": policyResponse(policy)})
}

// UpdatePolicy PATCH /sla/policies/:id.
func (h *SLAHandler) UpdatePolicy(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.UpdatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy, err := h.service.UpdatePolicy(c.UserContext(), actor, c.Params("id"), service.PolicyUpdateInput{
		Name:                     req.Name,
		FirstResponseTimeMinutes: req.FirstResponseTimeMinutes,
		ResolutionTimeMinutes:    req.ResolutionTimeMinutes,
		Active:                   req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(policy)})
}

// ListPolicies GET /sla/policies.
func (h *SLAHandler) ListPolicies(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	policies, err := h.service.ListPolicies(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, policyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ApplyPolicy POST /tickets/:id/sla.
func (h *SLAHandler) ApplyPolicy(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.ApplyPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PolicyID == "" {
		return apperrors.NewValidationError("policy_id required", nil)
	}
	record, err := h.service.ApplyPolicy(c.UserContext(), actor, c.Params("id"), req.PolicyID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSLAResponse(record)})
}

// GetTicketSLA GET /tickets/:id/sla.
func (h *SLAHandler) GetTicketSLA(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	record, err := h.service.GetTicketSLA(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSLAResponse(record)})
}

func policyResponse(policy *domain.SLAPolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:                       policy.ID,
		WorkspaceID:              policy.WorkspaceID,
		Name:                     policy.Name,
		FirstResponseTimeMinutes: policy.FirstResponseTimeMinutes,
		ResolutionTimeMinutes:    policy.ResolutionTimeMinutes,
		Active:                   policy.Active,
		CreatedAt:                policy.CreatedAt,
		UpdatedAt:                policy.UpdatedAt,
	}
}

func ticketSLAResponse(record *domain.TicketSLARecord) dto.TicketSLAResponse {
	return dto.TicketSLAResponse{
		TicketID:              record.TicketID,
		PolicyID:              record.PolicyID,
		FirstResponseDueAt:    record.FirstResponseDueAt,
		ResolutionDueAt:       record.ResolutionDueAt,
		FirstResponseMet:      record.FirstResponseMet,
		ResolutionMet:         record.ResolutionMet,
		FirstResponseBreached: record.FirstResponseBreached,
		ResolutionBreached:    record.ResolutionBreached,
		EscalationLevel:       record.EscalationLevel,
	}
}
