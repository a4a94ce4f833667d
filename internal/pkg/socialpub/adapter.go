package socialpub

import (
	"context"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// Adapter publishes to one platform. Implementations re-read their own
// credential on every call instead of trusting an earlier connection check;
// a credential revoked between check and call must fail here, not upstream.
// Errors are returned, never panicked, so the orchestrator's per-platform
// isolation is a second net rather than the only one.
type Adapter interface {
	Platform() models.Platform
	Publish(ctx context.Context, content, mediaURL string) error
}
