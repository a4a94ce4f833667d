package models

import (
	"fmt"
	"time"
)

// PlatformCredential stores the linked state of one social platform for one
// user. An absent row is equivalent to a disconnected platform.
//
// Access and refresh tokens are excluded from JSON on purpose; anything that
// leaves the process goes through a redacted view.
type PlatformCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index:user_platform,unique;type:varchar(64)" json:"user_id"`
	Platform     Platform  `gorm:"index:user_platform,unique;type:varchar(50)" json:"platform"`
	AccessToken  string    `gorm:"type:text" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExternalID   string    `gorm:"type:varchar(191)" json:"external_id,omitempty"`
	SavedAt      time.Time `gorm:"type:timestamp;default:null" json:"saved_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Connected reports whether this credential can be used for API calls.
// A record without an access token counts as disconnected.
func (c PlatformCredential) Connected() bool {
	return c.AccessToken != ""
}

// String renders the credential with masked secrets so it is safe to log.
func (c PlatformCredential) String() string {
	return fmt.Sprintf("PlatformCredential{user=%s platform=%s connected=%t external_id=%s token=%s}",
		c.UserID, c.Platform, c.Connected(), c.ExternalID, MaskSecret(c.AccessToken))
}

// MaskSecret keeps the first four characters of a secret for correlation and
// hides the rest. Short secrets are fully masked.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
