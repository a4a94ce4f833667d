package credentials

import (
	"context"
	"testing"

	"github.com/JonasWeigert/PostPilot/app/models"
)

type memRepo struct {
	creds map[string]models.PlatformCredential
}

func newMemRepo() *memRepo {
	return &memRepo{creds: make(map[string]models.PlatformCredential)}
}

func (r *memRepo) key(userID string, platform models.Platform) string {
	return userID + "/" + string(platform)
}

func (r *memRepo) Get(userID string, platform models.Platform) (*models.PlatformCredential, error) {
	cred, ok := r.creds[r.key(userID, platform)]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (r *memRepo) Save(cred *models.PlatformCredential) error {
	r.creds[r.key(cred.UserID, cred.Platform)] = *cred
	return nil
}

func (r *memRepo) Delete(userID string, platform models.Platform) error {
	delete(r.creds, r.key(userID, platform))
	return nil
}

func TestLocalStore_AbsentCredentialIsDisconnected(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(newMemRepo(), "u1")

	cred, err := store.Get(context.Background(), models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if cred.Connected() {
		t.Fatalf("absent credential reported as connected")
	}
	if cred.UserID != "u1" || cred.Platform != models.PlatformLinkedIn {
		t.Fatalf("zero credential not scoped: %+v", cred)
	}
}

func TestLocalStore_SaveStampsOwnerAndTime(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	store := NewLocalStore(repo, "u1")

	err := store.Save(context.Background(), models.PlatformCredential{
		Platform:    models.PlatformTwitter,
		AccessToken: "tok",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := repo.creds["u1/twitter"]
	if saved.UserID != "u1" {
		t.Fatalf("store must own the user scope, got %q", saved.UserID)
	}
	if saved.SavedAt.IsZero() {
		t.Fatalf("SavedAt not stamped")
	}
	if !store.IsConnected(context.Background(), models.PlatformTwitter) {
		t.Fatalf("saved credential not reported as connected")
	}
}

func TestLocalStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(newMemRepo(), "u1")

	if err := store.Delete(context.Background(), models.PlatformInstagram); err != nil {
		t.Fatalf("deleting an absent credential must succeed: %v", err)
	}
	if err := store.Delete(context.Background(), models.PlatformInstagram); err != nil {
		t.Fatalf("repeated delete must succeed: %v", err)
	}
}
