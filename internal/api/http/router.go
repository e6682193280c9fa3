package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/api/http/handlers"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/auth"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Grievances     *handlers.GrievancesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Route guards are a coarse outer
// gate; per-edge capability checks live in the engine.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	grievances := app.Group("/grievances", cfg.AuthMiddleware.Handle)

	grievances.Post("", auth.RequireRole(), cfg.Grievances.Submit)
	grievances.Get("/queue", auth.RequireRole(), cfg.Grievances.Queue)
	grievances.Get("/suggest-department", auth.RequireRole(), cfg.Grievances.SuggestDepartment)
	grievances.Get("/:id", auth.RequireRole(), cfg.Grievances.Get)
	grievances.Get("/:id/history", auth.RequireRole(), cfg.Grievances.History)
	grievances.Post("/:id/transition", auth.RequireRole(), cfg.Grievances.Transition)
	grievances.Post("/:id/assign", auth.RequireRole(domain.RoleModerator, domain.RoleAdmin), cfg.Grievances.Assign)
	grievances.Post("/:id/sub-assign", auth.RequireRole(domain.RoleOfficer), cfg.Grievances.SubAssign)
	grievances.Post("/:id/approval/approve", auth.RequireRole(domain.RoleApprover, domain.RoleAdmin), cfg.Grievances.Approve)
	grievances.Post("/:id/approval/reject", auth.RequireRole(domain.RoleApprover, domain.RoleAdmin), cfg.Grievances.Reject)
	grievances.Post("/:id/evidence", auth.RequireRole(), cfg.Grievances.AddEvidence)
	grievances.Put("/:id/note", auth.RequireRole(domain.RoleModerator, domain.RoleOfficer, domain.RoleApprover, domain.RoleAdmin), cfg.Grievances.UpdateNote)
}
