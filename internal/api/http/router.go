package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	SLA     *handlers.SLAHandler
	Reports *handlers.ReportsHandler
	Store   repository.Store
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", auth.ActorMiddleware(cfg.Store))

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/notes", auth.RequireStaff(), cfg.Tickets.AddNote)
	tickets.Patch("/:id/status", auth.RequireStaff(), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/assign", auth.RequireStaff(), cfg.Tickets.AssignTicket)
	tickets.Post("/:id/sla", auth.RequireStaff(), cfg.SLA.ApplyPolicy)
	tickets.Get("/:id/sla", cfg.SLA.GetTicketSLA)

	policies := api.Group("/sla/policies", auth.RequireStaff())
	policies.Post("", cfg.SLA.CreatePolicy)
	policies.Get("", cfg.SLA.ListPolicies)
	policies.Patch("/:id", cfg.SLA.UpdatePolicy)

	reports := api.Group("/reports", auth.RequireStaff())
	reports.Get("/current-week", cfg.Reports.GetCurrentWeek)
	reports.Get("/latest", cfg.Reports.GetLatestSnapshot)
}
