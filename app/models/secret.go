package models

import "time"

// SecretContainer is the broker-side anchor for one (user, platform) secret.
// Creation is idempotent: concurrent first-time saves race on the unique name
// and the loser treats the duplicate-key error as success.
type SecretContainer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;type:varchar(191)" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SecretVersion is one immutable payload added to a container. Reads always
// return the newest version.
type SecretVersion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContainerID uint      `gorm:"index" json:"container_id"`
	Ciphertext  []byte    `gorm:"type:blob" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
