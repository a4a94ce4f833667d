// Package credentials unifies the on-device credential store and the remote
// secret broker behind one interface. The backend is chosen once at startup
// from configuration.
package credentials

import (
	"context"
	"errors"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// ErrBrokerUnreachable is surfaced only when the broker is down and no local
// snapshot exists to fall back to.
var ErrBrokerUnreachable = errors.New("credentials: broker unreachable and no local snapshot")

// Store is the read/write API for platform credentials of one user.
//
// Get never fails just because nothing is stored; an absent credential is a
// zero value whose Connected() is false. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, platform models.Platform) (models.PlatformCredential, error)
	Save(ctx context.Context, cred models.PlatformCredential) error
	Delete(ctx context.Context, platform models.Platform) error
	IsConnected(ctx context.Context, platform models.Platform) bool
	// Invalidate drops any cached copy so the next Get re-fetches. It exists
	// for flows that change broker-side state without going through Save,
	// such as the token exchange.
	Invalidate(platform models.Platform)
}
