package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// ReportsHandler exposes workspace report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// GetCurrentWeek GET /reports/current-week.
func (h *ReportsHandler) GetCurrentWeek(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	metrics, err := h.service.GetCurrentWeek(c.UserContext(), actor, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// GetLatestSnapshot GET /reports/latest.
func (h *ReportsHandler) GetLatestSnapshot(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	snapshot, err := h.service.GetLatestSnapshot(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"week_start_date": snapshot.WeekStartDate,
		"payload":         snapshot.Payload,
		"created_at":      snapshot.CreatedAt,
	}})
}
