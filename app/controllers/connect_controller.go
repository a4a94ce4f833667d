package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/authflow"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
	"github.com/JonasWeigert/PostPilot/internal/pkg/usercontext"
)

// linkOutcome is the recorded result of the most recent linking attempt for
// one (user, platform). The status endpoint reports it to the frontend,
// which polls while the popup window is open.
type linkOutcome struct {
	Pending    bool   `json:"pending"`
	Success    bool   `json:"success"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	FinishedAt time.Time
}

// ConnectController drives platform linking from the web UI: starting an
// attempt, receiving the OAuth redirect, reporting status, disconnecting.
type ConnectController struct {
	cfg    *config.Config
	linker *authflow.Linker
	bus    *authflow.RedirectBus
	stores *credentials.Provider

	mu       sync.Mutex
	outcomes map[string]linkOutcome
}

func NewConnectController(cfg *config.Config, linker *authflow.Linker, bus *authflow.RedirectBus, stores *credentials.Provider) *ConnectController {
	return &ConnectController{
		cfg:      cfg,
		linker:   linker,
		bus:      bus,
		stores:   stores,
		outcomes: make(map[string]linkOutcome),
	}
}

// HandleConnectionsPage renders the account-linking overview.
func (cc *ConnectController) HandleConnectionsPage(c *fiber.Ctx) error {
	userID := usercontext.GetPublicID(c)
	store := cc.stores.ForUser(userID)

	type row struct {
		Platform  models.Platform
		Enabled   bool
		Connected bool
	}
	rows := make([]row, 0, len(models.AllPlatforms()))
	for _, platform := range models.AllPlatforms() {
		rows = append(rows, row{
			Platform:  platform,
			Enabled:   cc.cfg.PlatformEnabled(platform),
			Connected: store.IsConnected(c.Context(), platform),
		})
	}

	return c.Render("connections", fiber.Map{
		"Title":    "Connected accounts",
		"Username": ExtractUsername(c),
		"Rows":     rows,
	}, "layouts/main")
}

// HandleLinkStart begins a linking attempt and returns the authorization URL
// for the frontend to open in a popup. The attempt keeps running server-side
// until the redirect arrives or the authorization window times out.
func (cc *ConnectController) HandleLinkStart(c *fiber.Ctx) error {
	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	if !cc.cfg.PlatformEnabled(platform) {
		return badRequest(c, "platform is disabled")
	}
	userID := usercontext.GetPublicID(c)

	authURLCh := make(chan string, 1)
	surface := authflow.PopupSurface{Notify: func(u string) { authURLCh <- u }}

	cc.setOutcome(userID, platform, linkOutcome{Pending: true})

	// The attempt outlives this request; it resolves when the callback
	// route publishes the redirect, or when the authorization window ends.
	go func() {
		profile, err := cc.linker.LinkWith(context.Background(), userID, platform, surface)
		outcome := linkOutcome{FinishedAt: time.Now()}
		if err != nil {
			outcome.Error = err.Error()
			outcome.ErrorKind = errorKind(err)
			log.Warnf("linking %s for user %s failed: %v", platform, userID, err)
		} else {
			outcome.Success = true
			if profile != nil {
				outcome.ExternalID = profile.ExternalID
			}
		}
		cc.setOutcome(userID, platform, outcome)
	}()

	select {
	case authURL := <-authURLCh:
		return c.JSON(fiber.Map{"success": true, "auth_url": authURL})
	case <-time.After(5 * time.Second):
		return serverError(c, "authorization surface did not produce a URL")
	}
}

// HandleLinkStatus reports the connection state and the outcome of the most
// recent linking attempt.
func (cc *ConnectController) HandleLinkStatus(c *fiber.Ctx) error {
	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	userID := usercontext.GetPublicID(c)

	cc.mu.Lock()
	outcome, ok := cc.outcomes[outcomeKey(userID, platform)]
	cc.mu.Unlock()

	resp := fiber.Map{
		"success":   true,
		"platform":  platform,
		"connected": cc.stores.ForUser(userID).IsConnected(c.Context(), platform),
	}
	if ok {
		resp["attempt"] = outcome
	}
	return c.JSON(resp)
}

// HandleOAuthRedirect is the registered redirect URI target. It feeds the
// full redirect URL to the bus and shows a close-this-window page; the page
// renders the same whether an attempt was waiting or not, so a stale
// redirect leaks nothing.
func (cc *ConnectController) HandleOAuthRedirect(c *fiber.Ctx) error {
	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("callback", fiber.Map{
			"Title":   "Unknown platform",
			"Message": "This link is not valid.",
		}, "layouts/bare")
	}

	active := cc.bus.HasSubscriber(platform)
	cc.bus.Publish(platform, cc.cfg.PublicDomain+c.OriginalURL())

	message := "Authorization received. You can close this window."
	if !active {
		message = "No linking attempt is waiting for this authorization. You can close this window."
	}
	return c.Render("callback", fiber.Map{
		"Title":   "Authorization",
		"Message": message,
	}, "layouts/bare")
}

// HandleDisconnect removes the stored credential for one platform.
func (cc *ConnectController) HandleDisconnect(c *fiber.Ctx) error {
	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	userID := usercontext.GetPublicID(c)

	if err := cc.stores.ForUser(userID).Delete(c.Context(), platform); err != nil {
		log.Errorf("disconnecting %s for user %s: %v", platform, userID, err)
		return serverError(c, "could not disconnect")
	}

	cc.mu.Lock()
	delete(cc.outcomes, outcomeKey(userID, platform))
	cc.mu.Unlock()

	return c.JSON(fiber.Map{"success": true})
}

// HandleConnectionTest probes the stored credential against the platform.
func (cc *ConnectController) HandleConnectionTest(c *fiber.Ctx) error {
	platform, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	userID := usercontext.GetPublicID(c)

	client := cc.stores.BrokerClient()
	if client == nil {
		// Local backend has no remote probe; connection state is all we know.
		connected := cc.stores.ForUser(userID).IsConnected(c.Context(), platform)
		return c.JSON(fiber.Map{"success": connected, "connected": connected})
	}

	message, err := client.Test(c.Context(), userID, platform)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "message": message})
}

func (cc *ConnectController) setOutcome(userID string, platform models.Platform, outcome linkOutcome) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.outcomes[outcomeKey(userID, platform)] = outcome
}

func outcomeKey(userID string, platform models.Platform) string {
	return userID + "/" + string(platform)
}

// errorKind maps linking errors to the stable strings the frontend shows.
func errorKind(err error) string {
	var authErr *authflow.Error
	if errors.As(err, &authErr) {
		return string(authErr.Kind)
	}
	if errors.Is(err, authflow.ErrExchangeFailed) {
		return "exchange_failed"
	}
	return "error"
}
