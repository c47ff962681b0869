package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedis_UnavailableIsNoop(t *testing.T) {
	r := &Redis{}
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "sid", time.Minute))
	revoked, err := r.IsRevoked(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Error(t, r.Ping(ctx))
	assert.NoError(t, r.Close())
}

func TestRedis_CommandFailureWarnsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedisFromClient(client, zap.New(core))
	defer r.Close()

	ctx := context.Background()
	_, err := r.IsRevoked(ctx, "sid")
	require.Error(t, err)
	require.Error(t, r.Revoke(ctx, "sid", time.Minute))

	assert.Equal(t, 1, logs.FilterMessage("redis command failed, bypassing session revocation").Len())
}

func TestRedis_RevokeIgnoresEmptyInput(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	r := NewRedisFromClient(client, nil)
	defer r.Close()

	assert.NoError(t, r.Revoke(context.Background(), "", time.Minute))
	assert.NoError(t, r.Revoke(context.Background(), "sid", 0))
}
