package authflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

// ErrExchangeFailed marks a failed code-for-token exchange. Authorization
// codes are single-use, so the exchange is never retried automatically.
var ErrExchangeFailed = errors.New("token exchange failed")

// TokenExchanger posts an authorization code to the secret broker, which
// performs the platform-specific exchange and persists the credential
// server-side. Implemented by broker.Client.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, userID string, platform models.Platform, code, redirectURI string) (*broker.Profile, error)
}

// Linker drives a full linking attempt: authorization, exchange, and local
// state refresh.
type Linker struct {
	coordinator *Coordinator
	exchanger   TokenExchanger
	stores      *credentials.Provider
}

// NewLinker wires the coordinator to the exchange client and the credential
// stores.
func NewLinker(coordinator *Coordinator, exchanger TokenExchanger, stores *credentials.Provider) *Linker {
	return &Linker{
		coordinator: coordinator,
		exchanger:   exchanger,
		stores:      stores,
	}
}

// Link runs one linking attempt for (user, platform). Authorization errors
// are terminal and returned as-is; exchange failures carry the broker's
// message verbatim. On success the user's cached credential state is dropped
// so the next read sees the broker-side result.
func (l *Linker) Link(ctx context.Context, userID string, platform models.Platform) (*broker.Profile, error) {
	return l.link(ctx, userID, platform, nil)
}

// LinkWith runs a linking attempt on a caller-supplied authorization surface.
func (l *Linker) LinkWith(ctx context.Context, userID string, platform models.Platform, surface Surface) (*broker.Profile, error) {
	return l.link(ctx, userID, platform, surface)
}

func (l *Linker) link(ctx context.Context, userID string, platform models.Platform, surface Surface) (*broker.Profile, error) {
	var grant Grant
	var err error
	if surface != nil {
		grant, err = l.coordinator.BeginAuthorizationWith(ctx, platform, surface)
	} else {
		grant, err = l.coordinator.BeginAuthorization(ctx, platform)
	}
	if err != nil {
		return nil, err
	}

	profile, err := l.exchanger.ExchangeToken(ctx, userID, platform, grant.Code, grant.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	l.stores.ForUser(userID).Invalidate(platform)
	log.Infof("linked %s account for user %s (external id %s)", platform, userID, profile.ExternalID)
	return profile, nil
}
