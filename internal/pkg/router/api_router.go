package router

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/JonasWeigert/PostPilot/internal/api/v1"
	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Deps
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/",
		FilePath: "./openapi.yml",
		Path:     "api",
		Title:    "PostPilot API",
	}))

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Session-authenticated web API used by the frontend.
	v1 := api.Group("/v1", middleware.RequireAPISessionAuth)
	v1.Post("/connections/:platform", h.deps.Connect.HandleLinkStart)
	v1.Get("/connections/:platform", h.deps.Connect.HandleLinkStatus)
	v1.Post("/connections/:platform/test", h.deps.Connect.HandleConnectionTest)
	v1.Delete("/connections/:platform", h.deps.Connect.HandleDisconnect)

	v1.Get("/posts", h.deps.Publish.HandlePostList)
	v1.Post("/posts", h.deps.Publish.HandlePostCreate)
	v1.Get("/posts/:id", h.deps.Publish.HandlePostGet)
	v1.Put("/posts/:id", h.deps.Publish.HandlePostUpdate)
	v1.Post("/posts/:id/publish", h.deps.Publish.HandlePublish)
	v1.Post("/posts/:id/publish/:platform", h.deps.Publish.HandleRepublish)

	v1.Post("/media", controllers.HandleMediaStage)

	// API-key-authenticated automation surface.
	ext := api.Group("/ext/v1", middleware.APIKeyAuthMiddleware())
	apiServer := apiv1.NewAPIServer(h.deps.Publish, h.deps.Connect)
	apiv1.RegisterHandlers(ext, apiServer)
}
