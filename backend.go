package main

import (
	"context"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/uploads"
)

// openUploads returns the upload service, or nil when the provider cannot be
// set up. Uploads are optional; the rest of the API works without them.
func openUploads(ctx context.Context, cfg *config.Config) *uploads.Service {
	logger := config.GetLogger()

	switch cfg.UploadProvider {
	case config.UploadProviderGCS:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		gcs, err := uploads.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialJSON)
		if err != nil {
			config.LogError(logger, "backend.go", "openUploads", "NewGCS", cfg.GCSBucket, err)
			return nil
		}
		return uploads.New(gcs)
	default:
		local, err := uploads.NewLocal(cfg.UploadDir)
		if err != nil {
			config.LogError(logger, "backend.go", "openUploads", "NewLocal", cfg.UploadDir, err)
			return nil
		}
		return uploads.New(local)
	}
}

// needsRedis reports whether any configured component talks to Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.SessionStore == config.SessionStoreRedis || cfg.RateLimitEnabled ||
		(cfg.StorageBackend == config.BackendMySQL && cfg.RedisAddress != "")
}
