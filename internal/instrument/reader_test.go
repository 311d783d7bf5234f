package instrument

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/cache"
)

func TestStreamChunks_InsertsIntoCache(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		_ = writeFrame(conn, ChunkMessage{Channel: 1, ReadNumber: 1, ReadID: "r1", ChunkLength: 100})
		_ = writeFrame(conn, ChunkMessage{Channel: 2, ReadNumber: 1, ReadID: "r2", ChunkLength: 100})
		<-time.After(time.Second)
	})

	c := NewClient(addr, WithTimeout(2*time.Second))
	dst := cache.New(4)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := c.StreamChunks(ctx, dst)
	assert.NoError(t, err) // ctx deadline fires before the next read, a clean stop

	batch := dst.Drain()
	require.Len(t, batch, 2)
}

func TestStreamChunks_StopsCleanlyOnCancel(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		<-time.After(time.Second)
		conn.Close()
	})

	c := NewClient(addr, WithTimeout(2*time.Second))
	dst := cache.New(4)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-time.After(20 * time.Millisecond)
		cancel()
	}()

	err := c.StreamChunks(ctx, dst)
	assert.NoError(t, err)
}
