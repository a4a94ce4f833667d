package credentials

import (
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
	"github.com/JonasWeigert/PostPilot/internal/pkg/config"
)

// Provider hands out per-user stores over shared infrastructure. The backend
// is fixed by configuration at construction time.
type Provider struct {
	backend   string
	repo      repository.CredentialRepository
	client    *broker.Client
	cache     *Cache
	snapshots Snapshotter
}

// NewProvider builds the store provider for the configured backend.
func NewProvider(cfg *config.Config, repo repository.CredentialRepository) *Provider {
	p := &Provider{
		backend: cfg.CredentialBackend,
		repo:    repo,
	}
	if p.backend == config.BackendRemote {
		p.client = broker.NewClient(cfg.BrokerBaseURL, cfg.BrokerTimeout)
		p.cache = NewCache(cfg.CredentialCacheTTL, nil)
		p.snapshots = NewRedisSnapshotter()
	}
	return p
}

// ForUser returns the credential store scoped to one user.
func (p *Provider) ForUser(userID string) Store {
	if p.backend == config.BackendRemote {
		return NewRemoteStore(p.client, p.cache, p.snapshots, userID)
	}
	return NewLocalStore(p.repo, userID)
}

// BrokerClient exposes the shared broker client, nil for the local backend.
func (p *Provider) BrokerClient() *broker.Client {
	return p.client
}
