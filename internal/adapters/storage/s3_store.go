package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	s3client "github.com/civicworks/warddesk/backend/internal/infrastructure/clients/s3"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// S3Store implements the BlobStore interface on top of S3-compatible storage
type S3Store struct {
	client *s3client.Client
}

// NewS3Store creates a new S3-backed blob store
func NewS3Store(client *s3client.Client) providers.BlobStore {
	return &S3Store{client: client}
}

// Upload stores the object under path and returns its public URL
func (s *S3Store) Upload(ctx context.Context, path string, contentType string, body io.Reader) (string, error) {
	_, err := s.client.API().PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.client.Bucket()),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.NewExternalError("failed to upload object", err)
	}

	return s.PublicURL(path), nil
}

// PublicURL returns the public URL for an already-stored object
func (s *S3Store) PublicURL(path string) string {
	cfg := s.client.Config()
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.PublicBaseURL, "/"), path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.client.Bucket(), cfg.Region, path)
}

// Delete removes an object by the URL previously returned from Upload
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}

	_, err = s.client.API().DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.client.Bucket()),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewExternalError("failed to delete object", err)
	}
	return nil
}

// keyFromURL recovers the object key from a public URL this store produced
func (s *S3Store) keyFromURL(url string) (string, error) {
	cfg := s.client.Config()

	prefixes := []string{
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.client.Bucket(), cfg.Region),
	}
	if cfg.PublicBaseURL != "" {
		prefixes = append(prefixes, strings.TrimRight(cfg.PublicBaseURL, "/")+"/")
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix), nil
		}
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("url %s does not belong to this store", url))
}
