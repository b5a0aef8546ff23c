package config

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongoWithRetry connects to MONGODB_URI, retrying with the same backoff as
// the SQL connection, and returns the configured database.
func ConnectMongoWithRetry(ctx context.Context, cfg *Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.MongoURI == "" {
		return nil, nil, errors.New("MONGODB_URI is required for the mongo storage backend")
	}
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(10 * time.Second)

	var attempt int
	for {
		attempt++
		client, err := mongo.Connect(ctx, opts)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = client.Ping(pingCtx, readpref.Primary())
			cancel()
			if err == nil {
				log.Printf("connected to mongodb (attempt=%d db=%s)", attempt, cfg.MongoDatabase)
				return client, client.Database(cfg.MongoDatabase), nil
			}
			_ = client.Disconnect(context.Background())
		}

		sleep := retryDelay(attempt)
		log.Printf("failed to connect mongodb (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
