package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurensOost/925r/internal/config"
)

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)
	cfg := &config.RedisConfig{Host: server.Host(), Port: port}

	c, err := NewRedisCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, server
}

func TestRedisCache_GetSet(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	// Missing keys return an empty string, not an error.
	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, c.Set(ctx, "redmine:user:jdoe", "42", time.Minute))

	val, err = c.Get(ctx, "redmine:user:jdoe")
	require.NoError(t, err)
	assert.Equal(t, "42", val)
}

func TestRedisCache_Expiration(t *testing.T) {
	c, server := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ephemeral", "v", time.Minute))
	server.FastForward(2 * time.Minute)

	val, err := c.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestRedisCache_Del(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Del(ctx, "a", "b"))

	val, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestRedisCache_Health(t *testing.T) {
	c, server := setupTestCache(t)

	assert.NoError(t, c.Health(context.Background()))

	server.Close()
	assert.Error(t, c.Health(context.Background()))
}
