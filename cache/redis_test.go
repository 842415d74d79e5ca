package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/services"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestConnect_DisabledWithoutAddr(t *testing.T) {
	c, err := Connect(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestEmployeeCache_ErrorsAreNotMisses(t *testing.T) {
	c := NewEmployeeCache(unreachableClient(), 0)
	defer c.Close()

	assert.Equal(t, 5*time.Minute, c.ttl)

	_, ok, err := c.GetEmployee(context.Background(), "TIP001")
	assert.Error(t, err)
	assert.False(t, ok)

	err = c.SetEmployee(context.Background(), &services.EmployeeRef{ID: "e1", TipCode: "TIP001"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "tipflow:tipcode:TIP001", key("TIP001"))
}
