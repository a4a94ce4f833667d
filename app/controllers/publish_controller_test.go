package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonasWeigert/PostPilot/app/models"
)

func TestPublishableContentSkipsDisabledPlatforms(t *testing.T) {
	post := &models.Post{
		LinkedInContent: "linkedin text",
		TwitterContent:  "twitter text",
	}
	onlyLinkedIn := func(p models.Platform) bool { return p == models.PlatformLinkedIn }

	contentMap := publishableContent(post, onlyLinkedIn)

	assert.Len(t, contentMap, 1)
	assert.Equal(t, "linkedin text", contentMap[models.PlatformLinkedIn])
	// The disabled platform must be absent, not present-and-failing.
	_, ok := contentMap[models.PlatformTwitter]
	assert.False(t, ok)
}

func TestPublishableContentSkipsPublishedAndEmpty(t *testing.T) {
	post := &models.Post{
		LinkedInContent:   "already out",
		LinkedInPublished: true,
		TwitterContent:    "pending",
	}
	all := func(models.Platform) bool { return true }

	contentMap := publishableContent(post, all)

	assert.Len(t, contentMap, 1)
	assert.Equal(t, "pending", contentMap[models.PlatformTwitter])
}
