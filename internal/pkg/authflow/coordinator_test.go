package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// fakeSurface records whether it was closed and exposes the direct-result
// channel to the test.
type fakeSurface struct {
	direct  chan string
	authURL string
	closed  bool
	openErr error
}

func (s *fakeSurface) Open(ctx context.Context, authURL string) (<-chan string, func(), error) {
	if s.openErr != nil {
		return nil, nil, s.openErr
	}
	s.authURL = authURL
	return s.direct, func() { s.closed = true }, nil
}

func testConfig(timeout time.Duration) *config.Config {
	return &config.Config{
		PublicDomain:     "http://localhost:4000",
		AuthorizeTimeout: timeout,
		Platforms: map[models.Platform]config.PlatformApp{
			models.PlatformLinkedIn: {ClientID: "client-id", Scope: "openid w_member_social"},
			models.PlatformTwitter:  {ClientID: "tw-client", Scope: "tweet.write"},
		},
	}
}

func testCoordinator(timeout time.Duration, surface Surface) *Coordinator {
	c := NewCoordinator(testConfig(timeout), NewRedirectBus(), surface)
	c.newNonce = func() string { return "fixed-nonce" }
	return c
}

func redirect(query string) string {
	return "http://localhost:4000/auth/linkedin/callback/?" + query
}

func TestBeginAuthorization_DirectResult(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	surface.direct <- redirect("code=the-code&state=fixed-nonce")

	grant, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grant.Code != "the-code" {
		t.Fatalf("expected code %q, got %q", "the-code", grant.Code)
	}
	if grant.RedirectURI != "http://localhost:4000/auth/linkedin/callback/" {
		t.Fatalf("unexpected redirect URI: %s", grant.RedirectURI)
	}
	if !surface.closed {
		t.Fatalf("surface was not closed after success")
	}
}

func TestBeginAuthorization_BusMessage(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{}
	c := testCoordinator(time.Second, surface)

	go func() {
		// Wait until the attempt is listening, then publish like the
		// callback route would.
		for !c.bus.HasSubscriber(models.PlatformLinkedIn) {
			time.Sleep(time.Millisecond)
		}
		c.bus.Publish(models.PlatformLinkedIn, redirect("code=via-bus&state=fixed-nonce"))
	}()

	grant, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grant.Code != "via-bus" {
		t.Fatalf("expected code via-bus, got %q", grant.Code)
	}
	if c.bus.HasSubscriber(models.PlatformLinkedIn) {
		t.Fatalf("listener still registered after attempt resolved")
	}
}

func TestBeginAuthorization_StateMismatch(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	// A valid-looking code with the wrong state must never be accepted.
	surface.direct <- redirect("code=stolen-code&state=attacker-state")

	_, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if !IsKind(err, KindStateMismatch) {
		t.Fatalf("expected state mismatch, got %v", err)
	}
}

func TestBeginAuthorization_Timeout(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{}
	c := testCoordinator(20*time.Millisecond, surface)

	start := time.Now()
	_, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if !IsKind(err, KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout took far longer than the configured window")
	}
	if c.bus.HasSubscriber(models.PlatformLinkedIn) {
		t.Fatalf("listener leaked after timeout")
	}

	// A stale callback arriving after the timeout is dropped silently.
	c.bus.Publish(models.PlatformLinkedIn, redirect("code=late&state=fixed-nonce"))
}

func TestBeginAuthorization_UserCancelled(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	surface.direct <- redirect("state=fixed-nonce&error=access_denied")

	_, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if !IsKind(err, KindCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestBeginAuthorization_ProviderDenied(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	surface.direct <- redirect("state=fixed-nonce&error=invalid_scope&error_description=scope+not+granted")

	_, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if !IsKind(err, KindProviderDenied) {
		t.Fatalf("expected provider denied, got %v", err)
	}
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Description != "scope not granted" {
		t.Fatalf("expected provider description to survive, got %v", err)
	}
}

func TestBeginAuthorization_MissingCode(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	surface.direct <- redirect("state=fixed-nonce")

	_, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn)
	if !IsKind(err, KindMissingCode) {
		t.Fatalf("expected missing code, got %v", err)
	}
}

func TestBeginAuthorization_SurfaceOpenError(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{openErr: fmt.Errorf("no display")}
	c := testCoordinator(time.Second, surface)

	if _, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn); err == nil {
		t.Fatalf("expected surface error")
	}
	if c.bus.HasSubscriber(models.PlatformLinkedIn) {
		t.Fatalf("listener leaked after surface failure")
	}
}

func TestBeginAuthorization_UnconfiguredPlatform(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{}
	c := testCoordinator(time.Second, surface)

	if _, err := c.BeginAuthorization(context.Background(), models.PlatformInstagram); err == nil {
		t.Fatalf("expected error for platform without oauth application")
	}
}

func TestBeginAuthorization_NewerAttemptSupersedes(t *testing.T) {
	t.Parallel()

	c := testCoordinator(5*time.Second, &fakeSurface{})

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.BeginAuthorizationWith(context.Background(), models.PlatformLinkedIn, &fakeSurface{})
		firstErr <- err
	}()

	for !c.bus.HasSubscriber(models.PlatformLinkedIn) {
		time.Sleep(time.Millisecond)
	}

	second := &fakeSurface{direct: make(chan string, 1)}
	second.direct <- redirect("code=second-wins&state=fixed-nonce")

	grant, err := c.BeginAuthorizationWith(context.Background(), models.PlatformLinkedIn, second)
	if err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}
	if grant.Code != "second-wins" {
		t.Fatalf("unexpected code %q", grant.Code)
	}

	select {
	case err := <-firstErr:
		if !IsKind(err, KindCancelled) {
			t.Fatalf("expected first attempt to be cancelled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("first attempt did not resolve after being superseded")
	}
}

func TestBeginAuthorization_AuthURLCarriesNonce(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	c := testCoordinator(time.Second, surface)

	surface.direct <- redirect("code=x&state=fixed-nonce")
	if _, err := c.BeginAuthorization(context.Background(), models.PlatformLinkedIn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if surface.authURL == "" {
		t.Fatalf("surface never received an authorization URL")
	}
	if want := "state=fixed-nonce"; !strings.Contains(surface.authURL, want) {
		t.Fatalf("authorization URL %s does not carry %s", surface.authURL, want)
	}
}
