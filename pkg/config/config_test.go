package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_StorageConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("STORAGE_BUCKET", "test-bucket")
	os.Setenv("STORAGE_ENDPOINT", "http://minio:9000")
	os.Setenv("STORAGE_FORCE_PATH_STYLE", "true")
	defer func() {
		os.Unsetenv("STORAGE_BUCKET")
		os.Unsetenv("STORAGE_ENDPOINT")
		os.Unsetenv("STORAGE_FORCE_PATH_STYLE")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify storage config
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.ForcePathStyle)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("STORAGE_BUCKET")
	os.Unsetenv("AUTH_ACCESS_TOKEN_TTL")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "warddesk-uploads", cfg.Storage.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "warddesk", cfg.Database.Database)
}

func TestLoad_AuthDurations(t *testing.T) {
	os.Setenv("AUTH_ACCESS_TOKEN_TTL", "30m")
	defer os.Unsetenv("AUTH_ACCESS_TOKEN_TTL")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenDuration)
}
