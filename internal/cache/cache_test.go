package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-roadmap/internal/domain"
)

func TestNopNeverHits(t *testing.T) {
	var c UserCache = Nop{}
	ctx := context.Background()

	_, ok := c.Generation(ctx, "1")
	assert.False(t, ok)
	c.SetUser(ctx, &domain.User{ID: "1"}, 0)
	_, ok = c.GetUser(ctx, "1")
	assert.False(t, ok)
	c.Invalidate(ctx, "1")
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "127.0.0.1:1", time.Minute, logrus.New())
	assert.Error(t, err)
}

func newIntegrationRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("set REDIS_ADDR to run redis integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := NewRedis(ctx, addr, time.Minute, logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisSkipsSetAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newIntegrationRedis(t)
	id := "it-" + uuid.NewString()
	t.Cleanup(func() { c.rdb.Del(ctx, keyPrefix+id, genPrefix+id) })

	gen, ok := c.Generation(ctx, id)
	require.True(t, ok)
	assert.Equal(t, int64(0), gen)

	c.Invalidate(ctx, id)
	c.SetUser(ctx, &domain.User{ID: id, TargetRole: "stale"}, gen)
	_, ok = c.GetUser(ctx, id)
	assert.False(t, ok)

	gen, ok = c.Generation(ctx, id)
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)

	c.SetUser(ctx, &domain.User{ID: id, TargetRole: "fresh", CompletedTasks: []string{"w1-t0"}}, gen)
	got, ok := c.GetUser(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "fresh", got.TargetRole)
	assert.Equal(t, []string{"w1-t0"}, got.CompletedTasks)
}
