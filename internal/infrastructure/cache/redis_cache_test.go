package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	_, err := c.Get(ctx, "ad:1")
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, c.Set(ctx, "ad:1", `{"id":1}`, time.Minute))
	got, err := c.Get(ctx, "ad:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, got)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "ad:1")
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, c.Set(ctx, "ad:2", "x", time.Minute))
	require.NoError(t, c.Delete(ctx, "ad:2"))
	assert.False(t, mr.Exists("ad:2"))
}

func TestDeleteMultipleKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, AdKey(5), "a", time.Minute))
	require.NoError(t, c.Set(ctx, OwnerAdsKey("u1"), "b", time.Minute))
	require.NoError(t, c.Delete(ctx, AdKey(5), OwnerAdsKey("u1")))
	require.NoError(t, c.Delete(ctx))

	assert.False(t, mr.Exists("ad:5"))
	assert.False(t, mr.Exists("ads:user:u1"))
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, c.Delete(ctx, "k"))
}
