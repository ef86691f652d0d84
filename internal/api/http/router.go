package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OliveaSegaram/EC-sub001/internal/api/http/handlers"
	"github.com/OliveaSegaram/EC-sub001/internal/auth"
	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Lookups        *handlers.LookupsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	// Reference data backs the registration and submission forms, so it
	// stays outside the auth boundary.
	app.Get("/districts", cfg.Lookups.ListDistricts)
	app.Get("/skills", cfg.Lookups.ListSkills)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	app.Post("/attachments", cfg.AuthMiddleware.Handle, cfg.Lookups.RegisterAttachment)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("", cfg.Issues.SubmitIssue)
	issues.Get("", cfg.Issues.ListIssues)
	issues.Get("/technicians",
		auth.RequireRole(domain.RoleSuperApprover, domain.RoleRoot),
		cfg.Issues.ListTechnicians)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Post("/:id/transition", cfg.Issues.ApplyTransition)
	issues.Post("/:id/review",
		auth.RequireRole(domain.RoleSuperApprover, domain.RoleRoot),
		cfg.Issues.ConfirmReview)
	issues.Delete("/:id", cfg.Issues.DeleteIssue)
}
