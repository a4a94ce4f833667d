package mediastore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Client uploads staged media to the public S3 bucket and returns the
// resulting URL. It implements the orchestrator's MediaResolver.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a media store client.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("media upload is disabled")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{s3Client: s3Client, config: cfg}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("media store ready, bucket %s", cfg.BucketName)
	return client, nil
}

func (c *Client) testConnection() error {
	_, err := c.s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

// IsPublicURL reports whether the handle is already publicly fetchable and
// needs no upload.
func IsPublicURL(handle string) bool {
	return strings.HasPrefix(handle, "http://") || strings.HasPrefix(handle, "https://")
}

// Resolve turns an opaque local media handle into a publicly fetchable URL.
// Already-public URLs pass through untouched; local files are normalized and
// uploaded once.
func (c *Client) Resolve(ctx context.Context, handle string) (string, error) {
	if IsPublicURL(handle) {
		return handle, nil
	}
	return c.upload(ctx, handle)
}

func (c *Client) upload(ctx context.Context, localPath string) (string, error) {
	normalized, err := normalizeImage(localPath)
	if err != nil {
		return "", fmt.Errorf("preparing media: %w", err)
	}
	defer os.Remove(normalized)

	f, err := os.Open(normalized)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := c.config.ObjectKey(uuid.New().String(), ".jpg", time.Now())

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/jpeg"),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("uploading media: %w", err)
	}

	publicURL := c.config.PublicURL(key)
	log.Infof("uploaded media %s", publicURL)
	return publicURL, nil
}
