package secretvault

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
)

// memSecretRepo is an in-memory SecretRepository with the same idempotency
// semantics as the MySQL implementation.
type memSecretRepo struct {
	nextID     uint
	containers map[string]*models.SecretContainer
	versions   map[uint][][]byte
}

func newMemSecretRepo() *memSecretRepo {
	return &memSecretRepo{
		containers: make(map[string]*models.SecretContainer),
		versions:   make(map[uint][][]byte),
	}
}

func (r *memSecretRepo) CreateContainer(name string) (*models.SecretContainer, error) {
	if _, ok := r.containers[name]; ok {
		return nil, repository.ErrContainerExists
	}
	r.nextID++
	container := &models.SecretContainer{ID: r.nextID, Name: name}
	r.containers[name] = container
	return container, nil
}

func (r *memSecretRepo) GetContainer(name string) (*models.SecretContainer, error) {
	container, ok := r.containers[name]
	if !ok {
		return nil, repository.ErrContainerNotFound
	}
	return container, nil
}

func (r *memSecretRepo) AddVersion(containerID uint, ciphertext []byte) error {
	r.versions[containerID] = append(r.versions[containerID], ciphertext)
	return nil
}

func (r *memSecretRepo) LatestVersion(containerID uint) (*models.SecretVersion, error) {
	versions := r.versions[containerID]
	if len(versions) == 0 {
		return nil, repository.ErrContainerNotFound
	}
	return &models.SecretVersion{
		ContainerID: containerID,
		Ciphertext:  versions[len(versions)-1],
	}, nil
}

func (r *memSecretRepo) DeleteContainer(name string) error {
	if container, ok := r.containers[name]; ok {
		delete(r.versions, container.ID)
		delete(r.containers, name)
	}
	return nil
}

func (r *memSecretRepo) ListContainers(prefix string) ([]models.SecretContainer, error) {
	var out []models.SecretContainer
	for name, container := range r.containers {
		if strings.HasPrefix(name, prefix) {
			out = append(out, *container)
		}
	}
	return out, nil
}

const testKey = "0001020304050607080910111213141516171819202122232425262728293031"

func testVault(t *testing.T, hexKey string) (*Vault, *memSecretRepo) {
	t.Helper()
	repo := newMemSecretRepo()
	vault, err := NewVault(repo, hexKey)
	if err != nil {
		t.Fatalf("creating vault: %v", err)
	}
	return vault, repo
}

func TestVault_SaveGetRoundtrip(t *testing.T) {
	t.Parallel()

	vault, _ := testVault(t, testKey)

	stored := broker.Credentials{Connected: true, AccessToken: "tok-1", ExternalID: "ext-1"}
	if err := vault.Save("u1", models.PlatformLinkedIn, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := vault.Get("u1", models.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccessToken != "tok-1" || got.ExternalID != "ext-1" || !got.Connected {
		t.Fatalf("roundtrip mangled credentials: %+v", got)
	}
}

func TestVault_SecretsEncryptedAtRest(t *testing.T) {
	t.Parallel()

	vault, repo := testVault(t, testKey)

	if err := vault.Save("u1", models.PlatformLinkedIn, broker.Credentials{AccessToken: "plaintext-token"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, versions := range repo.versions {
		for _, blob := range versions {
			if bytes.Contains(blob, []byte("plaintext-token")) {
				t.Fatalf("raw token visible in stored blob")
			}
		}
	}
}

func TestVault_RepeatedSaveAppendsVersions(t *testing.T) {
	t.Parallel()

	vault, repo := testVault(t, "")

	if err := vault.Save("u1", models.PlatformTwitter, broker.Credentials{AccessToken: "first"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Second save hits the existing container; the duplicate is not an error.
	if err := vault.Save("u1", models.PlatformTwitter, broker.Credentials{AccessToken: "second"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if len(repo.containers) != 1 {
		t.Fatalf("expected one container, got %d", len(repo.containers))
	}

	got, err := vault.Get("u1", models.PlatformTwitter)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccessToken != "second" {
		t.Fatalf("expected newest version, got %+v", got)
	}
}

func TestVault_GetMissing(t *testing.T) {
	t.Parallel()

	vault, _ := testVault(t, "")

	if _, err := vault.Get("u1", models.PlatformInstagram); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVault_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	vault, _ := testVault(t, "")

	if err := vault.Save("u1", models.PlatformLinkedIn, broker.Credentials{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := vault.Delete("u1", models.PlatformLinkedIn); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := vault.Delete("u1", models.PlatformLinkedIn); err != nil {
		t.Fatalf("repeated delete must succeed: %v", err)
	}
	if _, err := vault.Get("u1", models.PlatformLinkedIn); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestVault_GetAllScopedToUser(t *testing.T) {
	t.Parallel()

	vault, _ := testVault(t, testKey)

	_ = vault.Save("u1", models.PlatformLinkedIn, broker.Credentials{AccessToken: "a"})
	_ = vault.Save("u1", models.PlatformTwitter, broker.Credentials{AccessToken: "b"})
	_ = vault.Save("u2", models.PlatformLinkedIn, broker.Credentials{AccessToken: "c"})

	all, err := vault.GetAll("u1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two platforms for u1, got %+v", all)
	}
	if all[models.PlatformLinkedIn].AccessToken != "a" {
		t.Fatalf("unexpected linkedin credential: %+v", all[models.PlatformLinkedIn])
	}
}

func TestNewVault_RejectsBadKey(t *testing.T) {
	t.Parallel()

	repo := newMemSecretRepo()
	if _, err := NewVault(repo, "not-hex"); err == nil {
		t.Fatalf("expected error for non-hex key")
	}
	short := hex.EncodeToString([]byte("short"))
	if _, err := NewVault(repo, short); err == nil {
		t.Fatalf("expected error for short key")
	}
}
