package cache

import (
	"context"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRateCacheExpires(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisRateCache(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "usd_rub_rate")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "usd_rub_rate", "90.25", 300*time.Second))
	assert.Equal(t, 300*time.Second, mr.TTL("usd_rub_rate"))

	v, ok, err := c.Get(ctx, "usd_rub_rate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "90.25", v)

	mr.FastForward(301 * time.Second)
	_, ok, err = c.Get(ctx, "usd_rub_rate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRateCacheReportsConnectionErrors(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisRateCache(client)
	mr.Close()

	_, _, err := c.Get(context.Background(), "usd_rub_rate")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "usd_rub_rate", "1", time.Second))
}

func TestRedisTaskStatusStoreRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	s := NewRedisTaskStatusStore(client)
	ctx := context.Background()

	_, err := s.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SetStatus(ctx, ports.TaskStatus{TaskID: "t-1", Name: "parcels.ping", State: ports.TaskPending}))
	require.NoError(t, s.SetStatus(ctx, ports.TaskStatus{TaskID: "t-1", Name: "parcels.ping", State: ports.TaskSuccess, Result: "pong for session S1"}))

	got, err := s.GetStatus(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskSuccess, got.State)
	assert.Equal(t, "pong for session S1", got.Result)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Equal(t, DefaultTaskStatusTTL, mr.TTL("task:t-1"))

	mr.FastForward(DefaultTaskStatusTTL + time.Second)
	_, err = s.GetStatus(ctx, "t-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
