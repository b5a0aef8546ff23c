package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SessionStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	return NewSessionStore(rdb)
}

func TestSessionLifecycle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	token, err := st.Create(ctx, "7", time.Hour)
	require.NoError(t, err)

	userID, err := st.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.ID("7"), userID)

	require.NoError(t, st.Destroy(ctx, token))
	_, err = st.Get(ctx, token)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// destroying twice is fine
	assert.NoError(t, st.Destroy(ctx, token))
}

func TestSessionExpiry(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	token, err := st.Create(ctx, "7", 100*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)

	_, err = st.Get(ctx, token)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDestroyAll(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	a, err := st.Create(ctx, "7", time.Hour)
	require.NoError(t, err)
	b, err := st.Create(ctx, "7", time.Hour)
	require.NoError(t, err)
	other, err := st.Create(ctx, "8", time.Hour)
	require.NoError(t, err)

	require.NoError(t, st.DestroyAll(ctx, "7"))
	for _, token := range []string{a, b} {
		_, err := st.Get(ctx, token)
		assert.ErrorIs(t, err, models.ErrNotFound)
	}
	_, err = st.Get(ctx, other)
	assert.NoError(t, err)
}
