package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-report-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-report-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Reports        *handlers.ReportsHandler
	WS             *handlers.WSHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Static("/uploads", cfg.UploadDir)

	app.Get("/ws", cfg.WS.Upgrade(), cfg.WS.Stream())

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/check-email", cfg.Auth.CheckEmail)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/verify", cfg.Auth.Verify)

	reports := api.Group("/reports")
	reports.Get("/", cfg.Reports.List)
	reports.Post("/", cfg.AuthMiddleware.Handle, cfg.Reports.Create)
	reports.Patch("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Reports.Update)
	reports.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Reports.Delete)
}
