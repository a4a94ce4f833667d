package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Operator sign-in via Google. Registered before the platform callback
	// wildcard so /auth/google/* never matches it.
	app.Get("/auth/google", gothfiber.BeginAuthHandler)
	app.Get("/auth/google/callback", controllers.HandleOAuthCallback)

	// Platform linking redirect target. The trailing-slash form is the URI
	// registered at the platforms; fiber matches both.
	app.Get("/auth/:platform/callback", h.deps.Connect.HandleOAuthRedirect)
	app.Get("/auth/:platform/callback/", h.deps.Connect.HandleOAuthRedirect)

	app.Post("/logout", middleware.RequireAuth, controllers.HandleLogout)
}
