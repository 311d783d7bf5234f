// Package cache implements the Read-Chunk Cache: a bounded, per-channel
// container holding at most one pending chunk per channel, with the
// replace/displace policy the driver relies on for single-in-flight
// analysis per read.
//
// Built on the keyed-mutex idiom in internal/lock.MutexMap and
// on quality.ResultCache's bulk-sweep-under-lock shape
// (internal/quality/cache.go), adapted from an LRU+TTL eviction policy to
// the cache's own replace/displace/drain semantics.
package cache

import (
	"strconv"
	"sync"

	"github.com/looselab/readfish-go/internal/lock"
	"github.com/looselab/readfish-go/internal/model"
)

type entry struct {
	chunk model.Chunk
	count int
}

// Pending is one drained cache entry: the latest chunk seen for that
// channel's in-progress read, plus how many chunks have arrived for it.
type Pending struct {
	Chunk      model.Chunk
	ChunkCount int
}

// Cache is the bounded, concurrency-safe Read-Chunk Cache. Capacity is
// implicitly bounded by channel count: entries is keyed by channel number,
// one slot per channel number seen. Insert does not check the number, so
// the map stays within maxChannels entries while channel numbers lie in
// 1..maxChannels.
type Cache struct {
	keyed       *lock.MutexMap
	mu          sync.RWMutex // Insert and Drain write entries under Lock; Len reads under RLock
	entries     map[int]*entry
	maxChannels int
}

// New returns an empty Cache bounded to maxChannels pending entries.
func New(maxChannels int) *Cache {
	return &Cache{
		keyed:       lock.NewMutexMap(),
		entries:     make(map[int]*entry, maxChannels),
		maxChannels: maxChannels,
	}
}

// Insert applies the arrival policy for one chunk:
//   - same (channel, read_number) as the pending entry: replace the
//     payload and increment the chunk counter.
//   - different read_number: displace the pending entry, counter resets
//     to 1.
//   - no pending entry: becomes pending, counter = 1.
func (c *Cache) Insert(chunk model.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strconv.Itoa(chunk.Channel)
	c.keyed.Lock(key)
	defer c.keyed.Unlock(key)

	if existing, ok := c.entries[chunk.Channel]; ok && existing.chunk.ReadNumber == chunk.ReadNumber {
		existing.chunk = chunk
		existing.count++
		return
	}
	c.entries[chunk.Channel] = &entry{chunk: chunk, count: 1}
}

// Drain atomically removes every pending entry and returns them as a
// batch, in no particular channel order — inter-chunk ordering within a
// batch is intentionally unspecified.
func (c *Cache) Drain() []Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return nil
	}
	out := make([]Pending, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, Pending{Chunk: e.chunk, ChunkCount: e.count})
	}
	c.entries = make(map[int]*entry, c.maxChannels)
	return out
}

// Len reports the number of channels with a pending entry.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
