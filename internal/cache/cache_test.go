package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/model"
)

func chunkFor(channel, readNumber int) model.Chunk {
	return model.Chunk{Channel: channel, ReadNumber: readNumber, ReadID: "r"}
}

func TestCache_ReplaceSameRead(t *testing.T) {
	c := New(8)
	c.Insert(chunkFor(1, 1))
	c.Insert(chunkFor(1, 1))
	c.Insert(chunkFor(1, 1))

	batch := c.Drain()
	require.Len(t, batch, 1)
	assert.Equal(t, 3, batch[0].ChunkCount)
}

func TestCache_DisplaceDifferentRead(t *testing.T) {
	c := New(8)
	c.Insert(chunkFor(1, 1))
	c.Insert(chunkFor(1, 1))
	c.Insert(chunkFor(1, 2))

	batch := c.Drain()
	require.Len(t, batch, 1)
	assert.Equal(t, 2, batch[0].Chunk.ReadNumber)
	assert.Equal(t, 1, batch[0].ChunkCount)
}

func TestCache_DrainIsAtomicAndClears(t *testing.T) {
	c := New(8)
	c.Insert(chunkFor(1, 1))
	c.Insert(chunkFor(2, 1))

	batch := c.Drain()
	assert.Len(t, batch, 2)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Drain())
}

func TestCache_PerChannelIndependence(t *testing.T) {
	c := New(512)
	var wg sync.WaitGroup
	for ch := 1; ch <= 100; ch++ {
		wg.Add(1)
		go func(ch int) {
			defer wg.Done()
			c.Insert(chunkFor(ch, 1))
		}(ch)
	}
	wg.Wait()

	assert.Equal(t, 100, c.Len())
}
