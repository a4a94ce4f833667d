package mediastore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonasWeigert/PostPilot/internal/pkg/env"
)

// Config holds the S3 settings for the public media bucket. Platform APIs
// fetch media by URL, so everything uploaded here must be world-readable.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // optional, for S3-compatible services
	PublicBaseURL   string // base URL under which uploaded objects are reachable
	Enabled         bool
}

// LoadConfig loads the media store configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		Enabled:         env.GetBool("MEDIA_UPLOAD_ENABLED", false),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when media upload is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when media upload is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when media upload is enabled")
		}
		if config.PublicBaseURL == "" {
			return nil, errors.New("S3_PUBLIC_BASE_URL is required when media upload is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if media uploads are configured.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates a standardized object key for an uploaded image.
func (c *Config) ObjectKey(mediaUUID, fileExtension string, t time.Time) string {
	// Format: media/YYYY/MM/UUID.ext
	return fmt.Sprintf("media/%04d/%02d/%s%s", t.Year(), int(t.Month()), mediaUUID, fileExtension)
}

// PublicURL returns the world-reachable URL for an object key.
func (c *Config) PublicURL(key string) string {
	return c.PublicBaseURL + "/" + key
}
