package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// credentialRepository implements CredentialRepository on GORM.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository instance
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Get returns the stored credential or (nil, nil) when no row exists.
func (r *credentialRepository) Get(userID string, platform models.Platform) (*models.PlatformCredential, error) {
	var cred models.PlatformCredential
	err := r.db.Where("user_id = ? AND platform = ?", userID, platform).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Save upserts on the (user_id, platform) unique index.
func (r *credentialRepository) Save(cred *models.PlatformCredential) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "external_id", "saved_at", "updated_at",
		}),
	}).Create(cred).Error
}

// Delete is idempotent; deleting an absent row is not an error.
func (r *credentialRepository) Delete(userID string, platform models.Platform) error {
	return r.db.Where("user_id = ? AND platform = ?", userID, platform).
		Delete(&models.PlatformCredential{}).Error
}
