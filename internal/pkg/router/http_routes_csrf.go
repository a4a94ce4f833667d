package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
	"github.com/JonasWeigert/PostPilot/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") ||
				strings.HasPrefix(c.Path(), "/auth/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", middleware.RequireAuth, h.deps.Publish.HandlePostsPage)
	group.Get("/login", loggedInMiddleware, controllers.HandleLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleRegister)
	group.Get("/connections", middleware.RequireAuth, h.deps.Connect.HandleConnectionsPage)
}
