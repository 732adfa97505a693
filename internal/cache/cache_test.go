package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", []byte("v")))

	data, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestFile_SetGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir(), 0)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "nasa/2024")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "nasa/2024", []byte(`{"a":1}`)))
	data, ok, err := c.Get(ctx, "nasa/2024")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, c.Set(ctx, "nasa/2024", []byte("v2")))
	data, _, _ = c.Get(ctx, "nasa/2024")
	assert.Equal(t, "v2", string(data))
}

func TestFile_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(c.path("k"), old, old))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_SetGet(t *testing.T) {
	addr := os.Getenv("SIM_REDIS_ADDR")
	if addr == "" {
		t.Skip("SIM_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := DialRedis(ctx, addr, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("v")))
	data, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(data))
}
