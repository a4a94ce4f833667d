package socialpub

import (
	"context"
	"fmt"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

// linkedInAdapter delegates the actual API call to the secret broker, which
// holds the raw token and performs the upstream ugcPosts request server-side.
type linkedInAdapter struct {
	store  credentials.Store
	client *broker.Client
	userID string
}

// NewLinkedInAdapter creates the LinkedIn adapter for one user.
func NewLinkedInAdapter(store credentials.Store, client *broker.Client, userID string) Adapter {
	return &linkedInAdapter{store: store, client: client, userID: userID}
}

func (a *linkedInAdapter) Platform() models.Platform {
	return models.PlatformLinkedIn
}

func (a *linkedInAdapter) Publish(ctx context.Context, content, mediaURL string) error {
	cred, err := a.store.Get(ctx, models.PlatformLinkedIn)
	if err != nil || !cred.Connected() {
		return ErrNotConnected
	}
	if a.client == nil {
		return fmt.Errorf("linkedin publishing requires the broker backend")
	}

	// The broker's error text passes through untouched; duplicate-content
	// classification depends on it.
	return a.client.Publish(ctx, a.userID, models.PlatformLinkedIn, content, mediaURL)
}
