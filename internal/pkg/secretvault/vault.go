// Package secretvault is the broker-side store for platform credentials.
// Secrets live in versioned containers; container creation is idempotent so
// concurrent first-time saves from multiple clients converge without any
// client-side locking.
package secretvault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/JonasWeigert/PostPilot/app/models"
	"github.com/JonasWeigert/PostPilot/app/repository"
	"github.com/JonasWeigert/PostPilot/internal/pkg/broker"
)

// ErrNotFound is returned when no secret exists for the (user, platform).
var ErrNotFound = errors.New("secretvault: not found")

const containerPrefix = "social-credentials"

// Vault stores wire credentials encrypted at rest. An empty key runs the
// vault in plaintext mode, acceptable only for development.
type Vault struct {
	repo repository.SecretRepository
	aead cipher.AEAD
}

// NewVault creates a vault over the secret repository. hexKey is a 32-byte
// key in hex, or empty for plaintext mode.
func NewVault(repo repository.SecretRepository, hexKey string) (*Vault, error) {
	v := &Vault{repo: repo}

	if hexKey == "" {
		log.Warnf("vault key not set, storing secrets unencrypted")
		return v, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("vault key must be 32 bytes hex-encoded")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	v.aead = aead
	return v, nil
}

func containerName(userID string, platform models.Platform) string {
	return fmt.Sprintf("%s-%s-%s", containerPrefix, userID, platform)
}

// Save writes a new version of the credential. A container that already
// exists is not an error; the version is appended to it.
func (v *Vault) Save(userID string, platform models.Platform, creds broker.Credentials) error {
	name := containerName(userID, platform)

	container, err := v.repo.CreateContainer(name)
	if errors.Is(err, repository.ErrContainerExists) {
		container, err = v.repo.GetContainer(name)
	}
	if err != nil {
		return fmt.Errorf("preparing secret container: %w", err)
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return v.repo.AddVersion(container.ID, v.seal(payload))
}

// Get returns the newest credential version.
func (v *Vault) Get(userID string, platform models.Platform) (*broker.Credentials, error) {
	container, err := v.repo.GetContainer(containerName(userID, platform))
	if errors.Is(err, repository.ErrContainerNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	version, err := v.repo.LatestVersion(container.ID)
	if errors.Is(err, repository.ErrContainerNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	payload, err := v.open(version.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting secret: %w", err)
	}

	var creds broker.Credentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// GetAll returns the stored credentials of every platform for one user.
func (v *Vault) GetAll(userID string) (map[models.Platform]broker.Credentials, error) {
	prefix := fmt.Sprintf("%s-%s-", containerPrefix, userID)
	containers, err := v.repo.ListContainers(prefix)
	if err != nil {
		return nil, err
	}

	all := make(map[models.Platform]broker.Credentials, len(containers))
	for _, container := range containers {
		platform, err := models.ParsePlatform(strings.TrimPrefix(container.Name, prefix))
		if err != nil {
			continue
		}
		creds, err := v.Get(userID, platform)
		if err != nil {
			continue
		}
		all[platform] = *creds
	}
	return all, nil
}

// Delete removes the container and all versions. Deleting a secret that was
// never stored is success, matching the idempotent create.
func (v *Vault) Delete(userID string, platform models.Platform) error {
	return v.repo.DeleteContainer(containerName(userID, platform))
}

func (v *Vault) seal(payload []byte) []byte {
	if v.aead == nil {
		return payload
	}
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return v.aead.Seal(nonce, nonce, payload, nil)
}

func (v *Vault) open(blob []byte) ([]byte, error) {
	if v.aead == nil {
		return blob, nil
	}
	if len(blob) < v.aead.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}
	nonce, ciphertext := blob[:v.aead.NonceSize()], blob[v.aead.NonceSize():]
	return v.aead.Open(nil, nonce, ciphertext, nil)
}
