package credentials

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/cache"
)

// Snapshotter keeps the last credential state seen from the broker so reads
// can degrade gracefully while the broker is unreachable. Snapshots are
// written opportunistically on every successful remote read and are never
// authoritative.
type Snapshotter interface {
	Load(userID string, platform models.Platform) (models.PlatformCredential, bool)
	Store(cred models.PlatformCredential)
	Drop(userID string, platform models.Platform)
}

// snapshotRecord is the stored form. The model type hides tokens from JSON,
// which is exactly wrong for a local snapshot, so the fields are explicit.
type snapshotRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExternalID   string    `json:"external_id"`
	SavedAt      time.Time `json:"saved_at"`
}

// redisSnapshotter stores snapshots in the app's Redis cache without TTL.
type redisSnapshotter struct{}

// NewRedisSnapshotter creates a Snapshotter over the shared Redis client.
func NewRedisSnapshotter() Snapshotter {
	return &redisSnapshotter{}
}

func snapshotKey(userID string, platform models.Platform) string {
	return fmt.Sprintf("credential:snapshot:%s:%s", userID, platform)
}

func (r *redisSnapshotter) Load(userID string, platform models.Platform) (models.PlatformCredential, bool) {
	raw, err := cache.Get(snapshotKey(userID, platform))
	if err != nil || raw == "" {
		return models.PlatformCredential{}, false
	}

	var rec snapshotRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.PlatformCredential{}, false
	}
	return models.PlatformCredential{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExternalID:   rec.ExternalID,
		SavedAt:      rec.SavedAt,
	}, true
}

func (r *redisSnapshotter) Store(cred models.PlatformCredential) {
	rec := snapshotRecord{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExternalID:   cred.ExternalID,
		SavedAt:      cred.SavedAt,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = cache.Set(snapshotKey(cred.UserID, cred.Platform), payload, 0)
}

func (r *redisSnapshotter) Drop(userID string, platform models.Platform) {
	_ = cache.Delete(snapshotKey(userID, platform))
}
