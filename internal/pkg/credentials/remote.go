package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
)

// remoteStore delegates to the secret broker, with a freshness-bounded cache
// in front and an opportunistic local snapshot behind it.
type remoteStore struct {
	client    *broker.Client
	cache     *Cache
	snapshots Snapshotter
	userID    string
}

// NewRemoteStore creates the remote backend for one user. Cache and
// snapshotter are shared process-wide; the store only adds the user scope.
func NewRemoteStore(client *broker.Client, cache *Cache, snapshots Snapshotter, userID string) Store {
	return &remoteStore{
		client:    client,
		cache:     cache,
		snapshots: snapshots,
		userID:    userID,
	}
}

// Get serves from the cache inside the freshness window, otherwise asks the
// broker. A broker "not found" becomes a disconnected credential, not an
// error. When the broker is unreachable the last local snapshot is served;
// only an unreachable broker plus an empty snapshot surfaces an error.
func (s *remoteStore) Get(ctx context.Context, platform models.Platform) (models.PlatformCredential, error) {
	return s.cache.GetOrFetch(s.userID, platform, func() (models.PlatformCredential, error) {
		wire, err := s.client.GetCredentials(ctx, s.userID, platform)

		switch {
		case err == nil:
			cred := s.fromWire(platform, *wire)
			s.snapshots.Store(cred)
			return cred, nil

		case errors.Is(err, broker.ErrNotFound):
			// The broker says the credential is gone; a lingering snapshot
			// would resurrect it on the next outage.
			s.snapshots.Drop(s.userID, platform)
			return models.PlatformCredential{UserID: s.userID, Platform: platform}, nil

		case errors.Is(err, broker.ErrUnreachable):
			if snap, ok := s.snapshots.Load(s.userID, platform); ok {
				log.Warnf("broker unreachable, serving credential snapshot for %s: %v", platform, err)
				return snap, nil
			}
			return models.PlatformCredential{}, ErrBrokerUnreachable

		default:
			return models.PlatformCredential{}, err
		}
	})
}

func (s *remoteStore) Save(ctx context.Context, cred models.PlatformCredential) error {
	cred.UserID = s.userID
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now()
	}

	err := s.client.SaveCredentials(ctx, s.userID, cred.Platform, broker.Credentials{
		Connected:    cred.Connected(),
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExternalID:   cred.ExternalID,
		SavedAt:      cred.SavedAt,
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(s.userID, cred.Platform)
	s.snapshots.Store(cred)
	return nil
}

func (s *remoteStore) Delete(ctx context.Context, platform models.Platform) error {
	if err := s.client.DeleteCredentials(ctx, s.userID, platform); err != nil {
		return err
	}
	s.cache.Invalidate(s.userID, platform)
	s.snapshots.Drop(s.userID, platform)
	return nil
}

func (s *remoteStore) IsConnected(ctx context.Context, platform models.Platform) bool {
	cred, err := s.Get(ctx, platform)
	if err != nil {
		return false
	}
	return cred.Connected()
}

func (s *remoteStore) Invalidate(platform models.Platform) {
	s.cache.Invalidate(s.userID, platform)
}

func (s *remoteStore) fromWire(platform models.Platform, wire broker.Credentials) models.PlatformCredential {
	return models.PlatformCredential{
		UserID:       s.userID,
		Platform:     platform,
		AccessToken:  wire.AccessToken,
		RefreshToken: wire.RefreshToken,
		ExternalID:   wire.ExternalID,
		SavedAt:      wire.SavedAt,
	}
}
