package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-mailer/internal/config"
)

func TestNewRedisClient_Single(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Mode: "single", Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestRedisOptions_Errors(t *testing.T) {
	_, err := redisOptions(config.RedisConfig{})
	assert.ErrorContains(t, err, "REDIS_ADDR")

	_, err = redisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"a:26379"}})
	assert.ErrorContains(t, err, "MasterName")

	_, err = redisOptions(config.RedisConfig{Mode: "ring", Addr: "a:6379"})
	assert.ErrorContains(t, err, "unsupported redis mode")
}

func TestRedisOptions_Sentinel(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"a:26379", "b:26379"}, MasterName: "mymaster", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "mymaster", opts.MasterName)
	assert.Equal(t, []string{"a:26379", "b:26379"}, opts.Addrs)
	assert.Equal(t, 2, opts.DB)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
