package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCache(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close(ctx) })

	user, err := backend.CreateUser(ctx, &models.NewUser{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	cache := NewUserCache(backend, st.rdb, time.Hour)
	got, err := cache.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	raw, err := st.rdb.Get(ctx, userPrefix+string(user.ID)).Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")

	got, err = cache.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.Password)

	_, err = cache.GetUser(ctx, "999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
