package authflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

type fakeExchanger struct {
	calls   int
	err     error
	profile *broker.Profile
}

func (f *fakeExchanger) ExchangeToken(ctx context.Context, userID string, platform models.Platform, code, redirectURI string) (*broker.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type memCredentialRepo struct {
	creds map[string]models.PlatformCredential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{creds: make(map[string]models.PlatformCredential)}
}

func (r *memCredentialRepo) key(userID string, platform models.Platform) string {
	return userID + "/" + string(platform)
}

func (r *memCredentialRepo) Get(userID string, platform models.Platform) (*models.PlatformCredential, error) {
	cred, ok := r.creds[r.key(userID, platform)]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (r *memCredentialRepo) Save(cred *models.PlatformCredential) error {
	r.creds[r.key(cred.UserID, cred.Platform)] = *cred
	return nil
}

func (r *memCredentialRepo) Delete(userID string, platform models.Platform) error {
	delete(r.creds, r.key(userID, platform))
	return nil
}

func testLinker(exchanger TokenExchanger, surface Surface) *Linker {
	cfg := testConfig(time.Second)
	cfg.CredentialBackend = config.BackendLocal

	coordinator := NewCoordinator(cfg, NewRedirectBus(), surface)
	coordinator.newNonce = func() string { return "fixed-nonce" }

	stores := credentials.NewProvider(cfg, newMemCredentialRepo())
	return NewLinker(coordinator, exchanger, stores)
}

func TestLink_Success(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	surface.direct <- redirect("code=ok&state=fixed-nonce")

	exchanger := &fakeExchanger{profile: &broker.Profile{
		Platform:   models.PlatformLinkedIn,
		Connected:  true,
		ExternalID: "urn-123",
	}}
	linker := testLinker(exchanger, surface)

	profile, err := linker.Link(context.Background(), "user-1", models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ExternalID != "urn-123" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if exchanger.calls != 1 {
		t.Fatalf("expected exactly one exchange, got %d", exchanger.calls)
	}
}

func TestLink_StateMismatchNeverReachesExchange(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	surface.direct <- redirect("code=stolen&state=wrong")

	exchanger := &fakeExchanger{}
	linker := testLinker(exchanger, surface)

	_, err := linker.Link(context.Background(), "user-1", models.PlatformLinkedIn)
	if !IsKind(err, KindStateMismatch) {
		t.Fatalf("expected state mismatch, got %v", err)
	}
	if exchanger.calls != 0 {
		t.Fatalf("exchange ran %d times on a rejected callback", exchanger.calls)
	}
}

func TestLink_ExchangeFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{direct: make(chan string, 1)}
	surface.direct <- redirect("code=ok&state=fixed-nonce")

	exchanger := &fakeExchanger{err: errors.New("invalid_grant")}
	linker := testLinker(exchanger, surface)

	_, err := linker.Link(context.Background(), "user-1", models.PlatformLinkedIn)
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Fatalf("broker message was not preserved: %v", err)
	}
	if exchanger.calls != 1 {
		t.Fatalf("authorization codes are single-use, exchange ran %d times", exchanger.calls)
	}
}
