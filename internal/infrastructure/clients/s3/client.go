package s3

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/civicworks/warddesk/backend/pkg/config"
)

// Client wraps the S3 API client together with bucket configuration
type Client struct {
	api    *s3.Client
	bucket string
	cfg    *config.StorageConfig
}

// NewClient creates a new S3 client. A custom endpoint (e.g. MinIO) is used
// when configured, with path-style addressing for local setups.
func NewClient(ctx context.Context, cfg *config.StorageConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	opts := s3.Options{
		Region:      awsCfg.Region,
		Credentials: awsCfg.Credentials,
		HTTPClient:  awsCfg.HTTPClient,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = &cfg.Endpoint
	}
	opts.UsePathStyle = cfg.ForcePathStyle

	return &Client{
		api:    s3.New(opts),
		bucket: cfg.Bucket,
		cfg:    cfg,
	}, nil
}

// API returns the underlying S3 client
func (c *Client) API() *s3.Client {
	return c.api
}

// Bucket returns the configured bucket name
func (c *Client) Bucket() string {
	return c.bucket
}

// Config returns the storage configuration
func (c *Client) Config() *config.StorageConfig {
	return c.cfg
}
