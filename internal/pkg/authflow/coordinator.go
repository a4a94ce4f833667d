package authflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// Grant is the product of one successful linking attempt: an authorization
// code ready for the broker-side token exchange.
type Grant struct {
	Platform    models.Platform
	Code        string
	RedirectURI string
}

// Coordinator runs the authorization-code flow for platform linking. One
// attempt per platform may be outstanding; a newer attempt supersedes the
// older one so two listeners never race on the same redirect.
type Coordinator struct {
	cfg     *config.Config
	bus     *RedirectBus
	surface Surface
	timeout time.Duration

	// newNonce is swappable for tests.
	newNonce func() string

	mu     sync.Mutex
	nextID int
	active map[models.Platform]attempt
}

type attempt struct {
	id     int
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator over the given bus and surface.
func NewCoordinator(cfg *config.Config, bus *RedirectBus, surface Surface) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		bus:      bus,
		surface:  surface,
		timeout:  cfg.AuthorizeTimeout,
		newNonce: newNonce,
		active:   make(map[models.Platform]attempt),
	}
}

// BeginAuthorization opens the authorization surface for the platform and
// waits for the first completion signal: either the surface's own result or
// an out-of-band redirect message, bounded by the authorization timeout.
// Listener deregistration and surface shutdown happen on every exit path.
func (c *Coordinator) BeginAuthorization(ctx context.Context, platform models.Platform) (Grant, error) {
	return c.BeginAuthorizationWith(ctx, platform, c.surface)
}

// BeginAuthorizationWith runs one attempt on a caller-supplied surface. Web
// callers pass a per-request PopupSurface; the supersede bookkeeping is still
// shared, so concurrent attempts for one platform cancel each other.
func (c *Coordinator) BeginAuthorizationWith(ctx context.Context, platform models.Platform, surface Surface) (Grant, error) {
	oauthCfg, err := OAuthConfig(c.cfg, platform)
	if err != nil {
		return Grant{}, err
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	attemptID := c.supersede(platform, cancel)
	defer c.release(platform, attemptID)

	nonce := c.newNonce()
	authURL := oauthCfg.AuthCodeURL(nonce)

	msgCh, unsubscribe := c.bus.Subscribe(platform)
	defer unsubscribe()

	directCh, closeSurface, err := surface.Open(attemptCtx, authURL)
	if err != nil {
		return Grant{}, err
	}
	defer closeSurface()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	var finalURL string
	select {
	case finalURL = <-directCh:
	case finalURL = <-msgCh:
	case <-timer.C:
		return Grant{}, newError(KindTimeout, platform, "no completion signal within authorization window")
	case <-attemptCtx.Done():
		return Grant{}, newError(KindCancelled, platform, "attempt cancelled or superseded")
	}

	code, err := resolveRedirect(platform, finalURL, nonce)
	if err != nil {
		return Grant{}, err
	}
	return Grant{
		Platform:    platform,
		Code:        code,
		RedirectURI: oauthCfg.RedirectURL,
	}, nil
}

// supersede cancels any outstanding attempt for the platform and records the
// new one, returning its registration id.
func (c *Coordinator) supersede(platform models.Platform, cancel context.CancelFunc) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.active[platform]; ok {
		log.Infof("superseding outstanding %s linking attempt", platform)
		prev.cancel()
	}
	c.nextID++
	c.active[platform] = attempt{id: c.nextID, cancel: cancel}
	return c.nextID
}

// release clears the attempt registration, unless a newer attempt already
// replaced it.
func (c *Coordinator) release(platform models.Platform, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.active[platform]; ok && current.id == id {
		delete(c.active, platform)
	}
}

// resolveRedirect parses the final redirect URL and enforces the CSRF nonce
// before anything else. A mismatched state short-circuits the attempt; the
// code is never handed to the exchange.
func resolveRedirect(platform models.Platform, finalURL, nonce string) (string, error) {
	parsed, err := url.Parse(finalURL)
	if err != nil {
		return "", newError(KindMissingCode, platform, "unparseable redirect URL")
	}
	query := parsed.Query()

	if state := query.Get("state"); state != nonce {
		return "", newError(KindStateMismatch, platform, "state does not match issued nonce")
	}

	if desc := query.Get("error_description"); desc != "" {
		return "", newError(KindProviderDenied, platform, desc)
	}
	if errCode := query.Get("error"); errCode == "access_denied" || errCode == "user_cancelled_authorize" {
		return "", newError(KindCancelled, platform, "user cancelled authorization")
	}

	code := query.Get("code")
	if code == "" {
		return "", newError(KindMissingCode, platform, "redirect carried no authorization code")
	}
	return code, nil
}

// newNonce returns an unguessable single-use CSRF state value.
func newNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
