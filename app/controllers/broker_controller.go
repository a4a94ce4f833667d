package controllers

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/secretvault"
	"github.com/JonasWeigert/PostPilot/internal/pkg/upstream"
)

// brokerRequest is the POST body accepted by the credentials endpoint. The
// action field selects between plain save, token exchange, delegated publish
// and the connectivity probe.
type brokerRequest struct {
	UserID      string              `json:"userId"`
	Platform    models.Platform     `json:"platform"`
	Action      string              `json:"action"`
	Credentials *broker.Credentials `json:"credentials"`
	Code        string              `json:"code"`
	RedirectURI string              `json:"redirectUri"`
	Content     string              `json:"content"`
	ImageURL    string              `json:"imageUrl"`
}

// BrokerController serves the credential wire protocol of the secret broker.
type BrokerController struct {
	cfg      *config.Config
	vault    *secretvault.Vault
	upstream *upstream.Client
	demoMode atomic.Bool
}

func NewBrokerController(cfg *config.Config, vault *secretvault.Vault, up *upstream.Client) *BrokerController {
	bc := &BrokerController{cfg: cfg, vault: vault, upstream: up}
	bc.demoMode.Store(cfg.DemoMode)
	return bc
}

// HandleGet returns the stored credential for one platform, or the
// credentials of every platform when the platform parameter is omitted.
func (bc *BrokerController) HandleGet(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}

	rawPlatform := c.Query("platform")
	if rawPlatform == "" {
		all, err := bc.vault.GetAll(userID)
		if err != nil {
			log.Errorf("listing credentials for user %s: %v", userID, err)
			return serverError(c, "could not read credentials")
		}
		return c.JSON(fiber.Map{"success": true, "credentials": all})
	}

	platform, err := models.ParsePlatform(rawPlatform)
	if err != nil {
		return badRequest(c, err.Error())
	}

	creds, err := bc.vault.Get(userID, platform)
	if errors.Is(err, secretvault.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not_found",
		})
	}
	if err != nil {
		log.Errorf("reading %s credential for user %s: %v", platform, userID, err)
		return serverError(c, "could not read credential")
	}

	return c.JSON(fiber.Map{"success": true, "credentials": creds})
}

// HandlePost dispatches on the request action.
func (bc *BrokerController) HandlePost(c *fiber.Ctx) error {
	var req brokerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "userId is required")
	}
	if _, err := models.ParsePlatform(string(req.Platform)); err != nil {
		return badRequest(c, err.Error())
	}

	switch req.Action {
	case "":
		return bc.handleSave(c, req)
	case "exchange_token":
		return bc.handleExchange(c, req)
	case "publish":
		return bc.handlePublish(c, req)
	case "test":
		return bc.handleTest(c, req)
	default:
		return badRequest(c, fmt.Sprintf("unknown action %q", req.Action))
	}
}

func (bc *BrokerController) handleSave(c *fiber.Ctx, req brokerRequest) error {
	if req.Credentials == nil {
		return badRequest(c, "credentials are required")
	}

	if err := bc.vault.Save(req.UserID, req.Platform, *req.Credentials); err != nil {
		log.Errorf("saving %s credential for user %s: %v", req.Platform, req.UserID, err)
		return serverError(c, "could not save credential")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (bc *BrokerController) handleExchange(c *fiber.Ctx, req brokerRequest) error {
	if req.Code == "" {
		return badRequest(c, "code is required")
	}

	creds, profile, err := bc.upstream.ExchangeToken(c.Context(), req.Platform, req.Code, req.RedirectURI)
	if err != nil {
		log.Warnf("token exchange for user %s on %s failed: %v", req.UserID, req.Platform, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	if err := bc.vault.Save(req.UserID, req.Platform, creds); err != nil {
		log.Errorf("persisting exchanged %s credential for user %s: %v", req.Platform, req.UserID, err)
		return serverError(c, "could not persist credential")
	}

	log.Infof("user %s connected %s account %s", req.UserID, req.Platform, profile.ExternalID)
	return c.JSON(fiber.Map{"success": true, "profile": profile})
}

func (bc *BrokerController) handlePublish(c *fiber.Ctx, req brokerRequest) error {
	if bc.demoMode.Load() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "demo mode: publishing to live platforms is disabled",
		})
	}
	if req.Platform != models.PlatformLinkedIn {
		return badRequest(c, fmt.Sprintf("delegated publish is not supported for %s", req.Platform))
	}
	if req.Content == "" {
		return badRequest(c, "content is required")
	}

	creds, err := bc.vault.Get(req.UserID, req.Platform)
	if errors.Is(err, secretvault.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not_found",
		})
	}
	if err != nil {
		log.Errorf("reading %s credential for user %s: %v", req.Platform, req.UserID, err)
		return serverError(c, "could not read credential")
	}

	if err := bc.upstream.PublishLinkedIn(c.Context(), *creds, req.Content, req.ImageURL); err != nil {
		// Pass the upstream error text through verbatim; the client relies
		// on it to tell duplicate content apart from other failures.
		log.Warnf("delegated linkedin publish for user %s failed: %v", req.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	log.Infof("published to linkedin for user %s", req.UserID)
	return c.JSON(fiber.Map{"success": true})
}

func (bc *BrokerController) handleTest(c *fiber.Ctx, req brokerRequest) error {
	creds, err := bc.vault.Get(req.UserID, req.Platform)
	if errors.Is(err, secretvault.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not_found",
		})
	}
	if err != nil {
		log.Errorf("reading %s credential for user %s: %v", req.Platform, req.UserID, err)
		return serverError(c, "could not read credential")
	}

	profile, err := bc.upstream.Probe(c.Context(), req.Platform, *creds)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("connected to %s as %s", req.Platform, profile.Name),
		"profile": profile,
	})
}

// HandleDelete removes a credential. Deleting a credential that does not
// exist succeeds, so retries are harmless.
func (bc *BrokerController) HandleDelete(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}
	platform, err := models.ParsePlatform(c.Query("platform"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := bc.vault.Delete(userID, platform); err != nil {
		log.Errorf("deleting %s credential for user %s: %v", platform, userID, err)
		return serverError(c, "could not delete credential")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleAdminConfig returns the broker's effective configuration with all
// secrets redacted.
func (bc *BrokerController) HandleAdminConfig(c *fiber.Ctx) error {
	platforms := make(map[models.Platform]fiber.Map, len(bc.cfg.Platforms))
	for platform, app := range bc.cfg.Platforms {
		platforms[platform] = fiber.Map{
			"client_id": app.ClientID,
			"scope":     app.Scope,
			"enabled":   bc.cfg.PlatformEnabled(platform),
		}
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"demo_mode":        bc.demoMode.Load(),
		"allowed_origins":  bc.cfg.AllowedOrigins,
		"vault_encryption": bc.cfg.VaultKey != "",
		"platforms":        platforms,
	})
}

// HandleAdminDemoMode flips the demo-mode flag at runtime.
func (bc *BrokerController) HandleAdminDemoMode(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	bc.demoMode.Store(body.Enabled)
	log.Infof("demo mode set to %t", body.Enabled)
	return c.JSON(fiber.Map{"success": true, "demo_mode": body.Enabled})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func serverError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
