package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JonasWeigert/PostPilot/internal/pkg/middleware"
	"github.com/JonasWeigert/PostPilot/internal/pkg/oauth"
	"github.com/JonasWeigert/PostPilot/internal/pkg/session"
)

type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; nothing extra here.
	return c.Next()
}
