package models

import "time"

// Post holds generated content for one publish unit, one text per platform.
// Empty content means "do not publish to this platform". The published flags
// are updated independently per platform so a failed or re-published platform
// never touches the others.
type Post struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             string     `gorm:"index;type:varchar(64)" json:"user_id"`
	Title              string     `gorm:"type:varchar(255)" json:"title"`
	LinkedInContent    string     `gorm:"type:text" json:"linkedin_content"`
	InstagramContent   string     `gorm:"type:text" json:"instagram_content"`
	TwitterContent     string     `gorm:"type:text" json:"twitter_content"`
	MediaHandle        string     `gorm:"type:varchar(512)" json:"media_handle,omitempty"`
	LinkedInPublished  bool       `gorm:"default:false" json:"linkedin_published"`
	InstagramPublished bool       `gorm:"default:false" json:"instagram_published"`
	TwitterPublished   bool       `gorm:"default:false" json:"twitter_published"`
	PublishCount       int        `gorm:"default:0" json:"publish_count"`
	PublishedAt        *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ContentFor returns the generated text for one platform.
func (p *Post) ContentFor(platform Platform) string {
	switch platform {
	case PlatformLinkedIn:
		return p.LinkedInContent
	case PlatformInstagram:
		return p.InstagramContent
	case PlatformTwitter:
		return p.TwitterContent
	}
	return ""
}

// PublishedOn reports whether this post already went out on a platform.
func (p *Post) PublishedOn(platform Platform) bool {
	switch platform {
	case PlatformLinkedIn:
		return p.LinkedInPublished
	case PlatformInstagram:
		return p.InstagramPublished
	case PlatformTwitter:
		return p.TwitterPublished
	}
	return false
}

// SetPublished flips the published flag for exactly one platform.
func (p *Post) SetPublished(platform Platform, published bool) {
	switch platform {
	case PlatformLinkedIn:
		p.LinkedInPublished = published
	case PlatformInstagram:
		p.InstagramPublished = published
	case PlatformTwitter:
		p.TwitterPublished = published
	}
}
