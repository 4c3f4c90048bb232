package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCacheDegradesToInnerWhenRedisDown(t *testing.T) {
	c := NewCache(NewSeeded(), deadRedis(), time.Minute, testLogger())

	p, err := c.GetProduct(context.Background(), "latte")
	require.NoError(t, err, "an unreachable cache never breaks lookups")
	assert.Equal(t, "Latte", p.Name)

	p, err = c.LookupByBarcode(context.Background(), "0001")
	require.NoError(t, err)
	assert.Equal(t, "espresso", p.ID)

	ps, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 5)
}

func TestCachePassesInnerErrorsThrough(t *testing.T) {
	c := NewCache(NewSeeded(), deadRedis(), time.Minute, testLogger())

	_, err := c.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.LookupByBarcode(context.Background(), "no-such-code")
	require.ErrorIs(t, err, ErrNotFound)
}
