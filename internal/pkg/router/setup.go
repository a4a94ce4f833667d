package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// Router is one installable route set.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps carries the wired controllers into route registration.
type Deps struct {
	Cfg     *config.Config
	Connect *controllers.ConnectController
	Publish *controllers.PublishController
}

// InstallRouter registers all routes of the client app.
func InstallRouter(app *fiber.App, deps Deps) {
	// HttpRouter goes first to initialize the session store, oauth providers
	// and the global UserContext middleware the API routes depend on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
