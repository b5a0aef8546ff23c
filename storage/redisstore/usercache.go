package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/redis/go-redis/v9"
)

const userPrefix = "User:"

// UserCache wraps a backend and serves GetUser from Redis. Every authenticated
// request resolves its session user, so this keeps that lookup off the backend.
// Users are never updated, so entries only expire.
type UserCache struct {
	storage.Storage
	rdb      redis.UniversalClient
	lifespan time.Duration
}

func NewUserCache(store storage.Storage, rdb redis.UniversalClient, lifespan time.Duration) *UserCache {
	return &UserCache{Storage: store, rdb: rdb, lifespan: lifespan}
}

// GetUser falls through to the backend on a miss or on any Redis error.
func (c *UserCache) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	key := userPrefix + string(id)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var user models.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		config.LogError(config.GetLogger(), "usercache.go", "GetUser", "Get", key, err)
	}

	user, err := c.Storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, user)
	return user, nil
}

func (c *UserCache) store(ctx context.Context, key string, user *models.User) {
	// the hash is never cached
	cached := user.Clone()
	cached.PrepareGive()
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.lifespan).Err(); err != nil {
		config.LogError(config.GetLogger(), "usercache.go", "store", "Set", key, err)
	}
}
