package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// ErrContainerExists is returned by CreateContainer when the unique name is
// already taken. Callers implementing idempotent create treat it as success.
var ErrContainerExists = errors.New("secret container already exists")

// ErrContainerNotFound is returned when a container name has no row.
var ErrContainerNotFound = errors.New("secret container not found")

// secretRepository implements SecretRepository on GORM.
type secretRepository struct {
	db *gorm.DB
}

// NewSecretRepository creates a new secret repository instance
func NewSecretRepository(db *gorm.DB) SecretRepository {
	return &secretRepository{db: db}
}

func (r *secretRepository) CreateContainer(name string) (*models.SecretContainer, error) {
	container := &models.SecretContainer{Name: name}
	if err := r.db.Create(container).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrContainerExists
		}
		return nil, err
	}
	return container, nil
}

func (r *secretRepository) GetContainer(name string) (*models.SecretContainer, error) {
	var container models.SecretContainer
	err := r.db.Where("name = ?", name).First(&container).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContainerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &container, nil
}

func (r *secretRepository) AddVersion(containerID uint, ciphertext []byte) error {
	return r.db.Create(&models.SecretVersion{
		ContainerID: containerID,
		Ciphertext:  ciphertext,
	}).Error
}

func (r *secretRepository) LatestVersion(containerID uint) (*models.SecretVersion, error) {
	var version models.SecretVersion
	err := r.db.Where("container_id = ?", containerID).
		Order("id DESC").First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContainerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// DeleteContainer removes a container and its versions. Deleting an absent
// container is not an error.
func (r *secretRepository) DeleteContainer(name string) error {
	container, err := r.GetContainer(name)
	if errors.Is(err, ErrContainerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("container_id = ?", container.ID).
			Delete(&models.SecretVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(container).Error
	})
}

func (r *secretRepository) ListContainers(prefix string) ([]models.SecretContainer, error) {
	var containers []models.SecretContainer
	err := r.db.Where("name LIKE ?", prefix+"%").Find(&containers).Error
	return containers, err
}

// isDuplicateKey recognizes MySQL error 1062 and GORM's portable wrapper.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}
