package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-service/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	CustomerAuth   *handlers.CustomerAuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Each protected group binds the guard to
// the audience its tokens must carry.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/refresh-token", cfg.Auth.RefreshToken)

	customerGroup := authGroup.Group("/customer")
	customerGroup.Post("/login", cfg.CustomerAuth.Login)
	customerGroup.Post("/verify-otp", cfg.CustomerAuth.VerifyOtp)
	customerGroup.Get("/refresh-token", cfg.CustomerAuth.RefreshToken)

	// Customer-guarded routes must be wired before the staff guard: the
	// guards attach by path prefix and /auth/customer sits under /auth.
	customerProtected := customerGroup.Group("", cfg.AuthMiddleware.Handle(auth.AudienceCustomer))
	customerProtected.Get("/me", cfg.CustomerAuth.Me)

	staffProtected := authGroup.Group("", cfg.AuthMiddleware.Handle(auth.AudienceStaff))
	staffProtected.Get("/me", cfg.Auth.Me)
}
