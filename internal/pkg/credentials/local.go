package credentials

import (
	"context"
	"time"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
)

// localStore persists credentials in the on-device database, one row per
// (user, platform).
type localStore struct {
	repo   repository.CredentialRepository
	userID string
}

// NewLocalStore creates the local backend for one user.
func NewLocalStore(repo repository.CredentialRepository, userID string) Store {
	return &localStore{repo: repo, userID: userID}
}

func (s *localStore) Get(ctx context.Context, platform models.Platform) (models.PlatformCredential, error) {
	cred, err := s.repo.Get(s.userID, platform)
	if err != nil {
		return models.PlatformCredential{}, err
	}
	if cred == nil {
		return models.PlatformCredential{UserID: s.userID, Platform: platform}, nil
	}
	return *cred, nil
}

func (s *localStore) Save(ctx context.Context, cred models.PlatformCredential) error {
	cred.UserID = s.userID
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now()
	}
	return s.repo.Save(&cred)
}

func (s *localStore) Delete(ctx context.Context, platform models.Platform) error {
	return s.repo.Delete(s.userID, platform)
}

func (s *localStore) IsConnected(ctx context.Context, platform models.Platform) bool {
	cred, err := s.Get(ctx, platform)
	if err != nil {
		return false
	}
	return cred.Connected()
}

func (s *localStore) Invalidate(platform models.Platform) {}
