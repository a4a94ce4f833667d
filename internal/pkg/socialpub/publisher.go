package socialpub

import (
	"net/http"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
	"github.com/JonasWeigert/PostPilot/internal/pkg/credentials"
)

// Publisher builds per-user orchestrators over shared infrastructure.
type Publisher struct {
	cfg        *config.Config
	stores     *credentials.Provider
	media      MediaResolver
	httpClient *http.Client
}

// NewPublisher creates the publisher service. media may be nil when uploads
// are disabled; publishes then degrade to content-only.
func NewPublisher(cfg *config.Config, stores *credentials.Provider, media MediaResolver) *Publisher {
	return &Publisher{
		cfg:        cfg,
		stores:     stores,
		media:      media,
		httpClient: &http.Client{Timeout: cfg.PublishTimeout},
	}
}

// Enabled reports whether a platform's generation toggle is on. Callers
// building a content map must leave disabled platforms out entirely; they
// do not belong in the summary.
func (p *Publisher) Enabled(platform models.Platform) bool {
	return p.cfg.PlatformEnabled(platform)
}

// ForUser assembles the orchestrator for one user, with adapters only for
// platforms whose generation toggle is enabled.
func (p *Publisher) ForUser(userID string) *Orchestrator {
	store := p.stores.ForUser(userID)

	var adapters []Adapter
	if p.cfg.PlatformEnabled(models.PlatformLinkedIn) {
		adapters = append(adapters, NewLinkedInAdapter(store, p.stores.BrokerClient(), userID))
	}
	if p.cfg.PlatformEnabled(models.PlatformInstagram) {
		adapters = append(adapters, NewInstagramAdapter(store, p.httpClient))
	}
	if p.cfg.PlatformEnabled(models.PlatformTwitter) {
		adapters = append(adapters, NewTwitterAdapter(store, p.httpClient))
	}

	return NewOrchestrator(store, adapters, p.media, p.cfg.PublishTimeout)
}
