package repository

import (
	"github.com/JonasWeigert/PostPilot/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByPublicID(publicID string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// CredentialRepository defines the interface for the local credential backend.
// Absence of a row is reported as (nil, nil), never as an error.
type CredentialRepository interface {
	Get(userID string, platform models.Platform) (*models.PlatformCredential, error)
	Save(cred *models.PlatformCredential) error
	Delete(userID string, platform models.Platform) error
}

// PostRepository defines the interface for publish-unit storage.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetByUserID(userID string, offset, limit int) ([]models.Post, error)
	Update(post *models.Post) error
	MarkPublished(id uint, platform models.Platform, published bool) error
}

// SecretRepository defines the interface for the broker-side vault tables.
type SecretRepository interface {
	CreateContainer(name string) (*models.SecretContainer, error)
	GetContainer(name string) (*models.SecretContainer, error)
	AddVersion(containerID uint, ciphertext []byte) error
	LatestVersion(containerID uint) (*models.SecretVersion, error)
	DeleteContainer(name string) error
	ListContainers(prefix string) ([]models.SecretContainer, error)
}
