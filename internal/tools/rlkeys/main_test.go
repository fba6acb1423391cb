package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsPattern(t *testing.T) {
	assert.Equal(t, "identity:rl:*:*", options{}.pattern())
	assert.Equal(t, "identity:rl:otp:*", options{scope: "otp"}.pattern())
	assert.Equal(t, "identity:rl:auth:10.0.0.1", options{scope: "auth", subject: "10.0.0.1"}.pattern())
}

func TestRun_ListsAndDeletes(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("identity:rl:otp:10.0.0.1", "5"))
	mr.SetTTL("identity:rl:otp:10.0.0.1", 90*time.Second)
	require.NoError(t, mr.Set("identity:rl:auth:10.0.0.1", "2"))
	require.NoError(t, mr.Set("unrelated", "x"))

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var out bytes.Buffer
	n, err := run(context.Background(), rdb, options{scope: "otp", count: 10, timeout: time.Second}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, out.String(), "identity:rl:otp:10.0.0.1 hits=5")
	assert.True(t, mr.Exists("identity:rl:otp:10.0.0.1"))

	out.Reset()
	n, err = run(context.Background(), rdb, options{del: true, count: 10, timeout: time.Second}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("identity:rl:otp:10.0.0.1"))
	assert.False(t, mr.Exists("identity:rl:auth:10.0.0.1"))
	assert.True(t, mr.Exists("unrelated"))

	out.Reset()
	n, err = run(context.Background(), rdb, options{count: 10, timeout: time.Second}, &out)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "No windows matched.")
}
