// Package apiv1 is the API-key-authenticated automation surface. It mirrors
// the session-based web API but is meant for scripts and integrations.
package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/JonasWeigert/PostPilot/app/controllers"
	"github.com/JonasWeigert/PostPilot/internal/pkg/metrics/counter"
	"github.com/JonasWeigert/PostPilot/internal/pkg/usercontext"
)

// APIServer bundles the automation endpoints.
type APIServer struct {
	publish *controllers.PublishController
	connect *controllers.ConnectController
}

// NewAPIServer creates a new API server instance
func NewAPIServer(publish *controllers.PublishController, connect *controllers.ConnectController) *APIServer {
	return &APIServer{publish: publish, connect: connect}
}

// RegisterHandlers attaches the automation routes to an API-key-protected
// router group.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)
	r.Get("/profile", s.GetProfile)
	r.Get("/metrics/publish", s.GetPublishMetrics)

	r.Get("/posts", s.publish.HandlePostList)
	r.Post("/posts", s.publish.HandlePostCreate)
	r.Get("/posts/:id", s.publish.HandlePostGet)
	r.Put("/posts/:id", s.publish.HandlePostUpdate)
	r.Post("/posts/:id/publish", s.publish.HandlePublish)
	r.Post("/posts/:id/publish/:platform", s.publish.HandleRepublish)

	r.Get("/connections/:platform", s.connect.HandleLinkStatus)
	r.Post("/connections/:platform/test", s.connect.HandleConnectionTest)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetProfile returns account information for the authenticated key.
func (s *APIServer) GetProfile(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	return c.JSON(fiber.Map{
		"user_id":  ctx.PublicID,
		"username": ctx.Username,
	})
}

// GetPublishMetrics returns the per-platform publish outcome counters.
func (s *APIServer) GetPublishMetrics(c *fiber.Ctx) error {
	success, failure, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "could not read counters",
		})
	}
	return c.JSON(fiber.Map{"success": success, "failure": failure})
}
