package models

import "fmt"

// Platform identifies a third-party social network a user can link.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
)

// AllPlatforms lists every platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformInstagram, PlatformTwitter}
}

// ParsePlatform validates a raw platform name coming from a route or payload.
func ParsePlatform(raw string) (Platform, error) {
	switch Platform(raw) {
	case PlatformLinkedIn, PlatformInstagram, PlatformTwitter:
		return Platform(raw), nil
	}
	return "", fmt.Errorf("unknown platform %q", raw)
}

func (p Platform) String() string {
	return string(p)
}
