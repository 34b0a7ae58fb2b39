package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/student-admin-service/internal/api/http/handlers"
	"github.com/spec-kit/student-admin-service/internal/auth"
	"github.com/spec-kit/student-admin-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Students        *handlers.StudentsHandler
	AuthMiddleware  *auth.AuthMiddleware
	Metrics         *observability.Metrics
	ProtectStudents bool
}

// RegisterRoutes wires HTTP routes. Every endpoint is registered exactly once.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/verify", cfg.Auth.Verify)

	// the probe stays public so it can be used without credentials
	app.Get("/students/ping", cfg.Students.Ping)

	var guards []fiber.Handler
	if cfg.ProtectStudents && cfg.AuthMiddleware != nil {
		guards = append(guards, cfg.AuthMiddleware.Handle)
	}
	students := app.Group("/students", guards...)
	students.Get("/", cfg.Students.List)
	students.Post("/", cfg.Students.Create)
	students.Delete("/email/:email", cfg.Students.DeleteByEmail)
	students.Patch("/:id/marks", cfg.Students.UpdateMarks)
	students.Get("/:id", cfg.Students.Get)
	students.Put("/:id", cfg.Students.Update)
}
