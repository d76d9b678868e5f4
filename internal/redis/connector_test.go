package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/disposable/internal/logger"
)

func testOptions(addr string) Options {
	return Options{
		Addr:           addr,
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnectUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := testOptions(addr)
	opts.ConnectTimeout = 100 * time.Millisecond

	client, err := Connect(context.Background(), opts, logger.NewNop())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), addr)
}

func TestConnectInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing addr", func(o *Options) { o.Addr = "" }},
		{"connect timeout", func(o *Options) { o.ConnectTimeout = 0 }},
		{"retry interval", func(o *Options) { o.RetryInterval = 0 }},
		{"max wait", func(o *Options) { o.MaxWait = -1 }},
		{"ping timeout", func(o *Options) { o.PingTimeout = 0 }},
		{"warn threshold", func(o *Options) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("localhost:6379")
			tt.mutate(&opts)
			_, err := Connect(context.Background(), opts, logger.NewNop())
			assert.Error(t, err)
		})
	}
}
