package auth

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore connects to the server named by AUTH_REDIS_ADDR and skips
// the test when none is configured.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("AUTH_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUTH_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := NewRedisStore(ctx, addr, os.Getenv("AUTH_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	token := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = store.Delete(token) })

	_, found, err := store.Find(token)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Commit(token, []byte("payload"), time.Now().Add(time.Minute)))

	data, found, err := store.Find(token)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), data)

	ttl, err := store.client.TTL(context.Background(), redisSessionPrefix+token).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Delete(token))
	_, found, err = store.Find(token)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_CommitExpiredDeletes(t *testing.T) {
	store := setupRedisStore(t)
	token := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = store.Delete(token) })

	require.NoError(t, store.Commit(token, []byte("payload"), time.Now().Add(time.Minute)))
	require.NoError(t, store.Commit(token, []byte("payload"), time.Now().Add(-time.Second)))

	_, found, err := store.Find(token)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_KeysArePrefixed(t *testing.T) {
	store := setupRedisStore(t)
	token := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = store.Delete(token) })

	require.NoError(t, store.Commit(token, []byte("x"), time.Now().Add(time.Minute)))
	n, err := store.client.Exists(context.Background(), token).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
