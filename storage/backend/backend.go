// Package backend opens the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/document"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/memory"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/relational"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// Open connects the backend named by STORAGE_BACKEND. locker may be nil.
func Open(ctx context.Context, cfg *config.Config, locker *redislock.Client) (storage.Storage, error) {
	logger := config.GetLogger()

	switch cfg.StorageBackend {
	case config.BackendMemory:
		store, err := memory.Open(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("open data file %s: %w", cfg.DataFile, err)
		}
		logger.WithFields(logrus.Fields{"backend": cfg.StorageBackend, "data_file": cfg.DataFile}).Info("storage ready")
		return store, nil

	case config.BackendMySQL:
		db, err := config.ConnectDatabaseWithRetry(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// AutoMigrate can block tables; run it as a separate job when SKIP_MIGRATIONS is set.
		if !cfg.SkipMigrations {
			if err := relational.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		var opts []relational.Option
		if locker != nil {
			opts = append(opts, relational.WithLocker(locker))
		}
		logger.WithFields(logrus.Fields{"backend": cfg.StorageBackend, "redis_lock": locker != nil}).Info("storage ready")
		return relational.New(db, opts...), nil

	case config.BackendMongo:
		client, db, err := config.ConnectMongoWithRetry(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := document.New(ctx, client, db)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("prepare collections: %w", err)
		}
		logger.WithFields(logrus.Fields{"backend": cfg.StorageBackend, "database": cfg.MongoDatabase}).Info("storage ready")
		return store, nil
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
}

