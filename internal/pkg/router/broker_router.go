package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/middleware"
)

// InstallBrokerRouter registers the secret broker's wire protocol and its
// admin surface. The whole app sits behind the CORS allow-list.
func InstallBrokerRouter(app *fiber.App, cfg *config.Config, bc *controllers.BrokerController) {
	app.Use(middleware.CORSAllowList(cfg))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")
	v1.Get("/credentials", bc.HandleGet)
	v1.Post("/credentials", bc.HandlePost)
	v1.Delete("/credentials", bc.HandleDelete)

	admin := app.Group("/admin", middleware.RequireAdminSecret(cfg))
	admin.Get("/config", bc.HandleAdminConfig)
	admin.Post("/demo-mode", bc.HandleAdminDemoMode)
}
