package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

func brokerTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Use(CORSAllowList(cfg))

	admin := app.Group("/admin", RequireAdminSecret(cfg))
	admin.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func brokerTestConfig() *config.Config {
	return &config.Config{
		AdminSecret:    "the-admin-secret",
		AllowedOrigins: []string{"http://localhost:4000"},
	}
}

func TestCORSAllowList_NoOriginPassesThrough(t *testing.T) {
	app := brokerTestApp(brokerTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCORSAllowList_AllowedOrigin(t *testing.T) {
	app := brokerTestApp(brokerTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:4000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:4000", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCORSAllowList_DisallowedOrigin(t *testing.T) {
	app := brokerTestApp(brokerTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCORSAllowList_Preflight(t *testing.T) {
	app := brokerTestApp(brokerTestConfig())

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:4000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), "DELETE")
}

func TestRequireAdminSecret(t *testing.T) {
	app := brokerTestApp(brokerTestConfig())

	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{name: "missing secret", secret: "", want: fiber.StatusUnauthorized},
		{name: "wrong secret", secret: "guess", want: fiber.StatusUnauthorized},
		{name: "correct secret", secret: "the-admin-secret", want: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/config", nil)
			if tt.secret != "" {
				req.Header.Set("X-Admin-Secret", tt.secret)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
