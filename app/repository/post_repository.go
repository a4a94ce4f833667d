package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/JonasWeigert/PostPilot/app/models"
)

// postRepository implements PostRepository on GORM.
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(userID string, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

// MarkPublished updates the published flag of exactly one platform column.
func (r *postRepository) MarkPublished(id uint, platform models.Platform, published bool) error {
	var column string
	switch platform {
	case models.PlatformLinkedIn:
		column = "linked_in_published"
	case models.PlatformInstagram:
		column = "instagram_published"
	case models.PlatformTwitter:
		column = "twitter_published"
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn(column, published).Error
}
