package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/artcart-backend/pkg/config"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := New(context.Background(), config.RedisConfig{
		Address:     mr.Addr(),
		PoolSize:    2,
		DialTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestClientAgainstMiniredis(t *testing.T) {
	client, mr := newMiniClient(t)
	ctx := context.Background()

	key := client.CartKey("sess-1")
	require.NoError(t, client.Set(ctx, key, `{"lines":[]}`, time.Hour))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, `{"lines":[]}`, got)
	require.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, err = client.Get(ctx, key)
	require.True(t, IsNil(err))
}

func TestIdempotencySetNXAgainstMiniredis(t *testing.T) {
	client, _ := newMiniClient(t)
	ctx := context.Background()

	key := client.IdempotencyKey("session:abc", "key-1")
	ok, err := client.SetNX(ctx, key, "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, key, "second", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "first", stored)
}

func TestIncrWithTTLWindowExpiresAgainstMiniredis(t *testing.T) {
	client, mr := newMiniClient(t)
	ctx := context.Background()
	key := client.RateLimitKey("otp:ip:10.0.0.1")

	for want := int64(1); want <= 3; want++ {
		count, err := client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
	}
	require.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestPingAgainstMiniredis(t *testing.T) {
	client, _ := newMiniClient(t)
	require.NoError(t, client.Ping(context.Background()))
}
