// Package redisstore keeps login sessions and cached users in Redis, shared by
// every instance regardless of the storage backend.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenPrefix     = "Token:"
	userTokenPrefix = "Tokens:"
)

// SessionStore maps "Token:<token>" to the user id and tracks each user's tokens
// in the set "Tokens:<userId>" so they can be revoked together.
type SessionStore struct {
	rdb redis.UniversalClient
}

var _ storage.SessionStore = (*SessionStore)(nil)

func NewSessionStore(rdb redis.UniversalClient) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (st *SessionStore) Create(ctx context.Context, userID models.ID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	setKey := userTokenPrefix + string(userID)

	pipe := st.rdb.TxPipeline()
	pipe.Set(ctx, tokenPrefix+token, string(userID), ttl)
	pipe.SAdd(ctx, setKey, token)
	pipe.Expire(ctx, setKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", models.Internal("create session", err)
	}
	return token, nil
}

func (st *SessionStore) Get(ctx context.Context, token string) (models.ID, error) {
	userID, err := st.rdb.Get(ctx, tokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrSessionNotFound()
		}
		return "", models.Internal("get session", err)
	}
	return models.ID(userID), nil
}

func (st *SessionStore) Destroy(ctx context.Context, token string) error {
	userID, err := st.rdb.GetDel(ctx, tokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return models.Internal("destroy session", err)
	}
	if err := st.rdb.SRem(ctx, userTokenPrefix+userID, token).Err(); err != nil {
		return models.Internal("destroy session", err)
	}
	return nil
}

// DestroyAll ends every session of a user.
func (st *SessionStore) DestroyAll(ctx context.Context, userID models.ID) error {
	setKey := userTokenPrefix + string(userID)
	tokens, err := st.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return models.Internal("destroy sessions", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, tokenPrefix+t)
	}
	keys = append(keys, setKey)
	if err := st.rdb.Del(ctx, keys...).Err(); err != nil {
		return models.Internal("destroy sessions", err)
	}
	return nil
}
