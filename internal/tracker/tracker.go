// Package tracker implements the Action Tracker: per-(channel, read_number)
// dedup of terminal actions, chunk counting, and TTL-based eviction for
// reads the instrument never explicitly signals as ended.
//
// Adapted from quality.ResultCache's container/list LRU with per-entry
// expiresAt, swept lazily on Set, but keyed on (channel, read_number)
// and driven by terminal state rather than pure recency: an
// entry with a terminal action is never evicted by LRU pressure, only by
// TTL or an explicit ReadEnded signal, since a late duplicate chunk must
// still be recognized and suppressed.
package tracker

import (
	"sync"
	"time"

	"github.com/looselab/readfish-go/internal/model"
)

// Terminal is the terminal-state marker recorded against a (channel,
// read_number) once an unblock or stop_receiving has been dispatched.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalUnblockSent
	TerminalStopReceivingSent
)

type key struct {
	channel    int
	readNumber int
}

type entry struct {
	chunks     int
	terminal   Terminal
	lastSeenAt time.Time
}

// Tracker is the Action Tracker. The driver calls Record once per Result
// per batch; GC runs on its own goroutine and takes the same lock for its
// sweep.
type Tracker struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[key]*entry
}

// New builds a Tracker whose entries expire ttl after their last-seen
// chunk, used only as a backstop for reads the instrument never signals
// as ended.
func New(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[key]*entry),
	}
}

// ChunkCount returns the number of chunks seen so far for (channel,
// read_number), recording this call as one more chunk. The driver calls
// this before passing the count to the decision engine.
func (t *Tracker) ChunkCount(channel, readNumber int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{channel, readNumber}
	e, ok := t.entries[k]
	if !ok {
		e = &entry{}
		t.entries[k] = e
	}
	e.chunks++
	e.lastSeenAt = t.now()
	return e.chunks
}

// TerminalState reports whether (channel, read_number) already has a
// terminal action on file.
func (t *Tracker) TerminalState(channel, readNumber int) Terminal {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{channel, readNumber}
	if e, ok := t.entries[k]; ok {
		return e.terminal
	}
	return TerminalNone
}

// Record implements the §4.9 Action Tracker state machine given a decided
// Action for a Result, returning the Action to dispatch or (false) if it
// should be suppressed.
func (t *Tracker) Record(channel, readNumber int, action model.Action) (model.Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{channel, readNumber}
	e, ok := t.entries[k]
	if !ok {
		e = &entry{}
		t.entries[k] = e
	}
	e.lastSeenAt = t.now()

	if e.terminal != TerminalNone {
		return "", false
	}

	switch action {
	case model.ActionProceed:
		return "", false
	case model.ActionUnblock:
		e.terminal = TerminalUnblockSent
		return model.ActionUnblock, true
	case model.ActionStopReceiving:
		e.terminal = TerminalStopReceivingSent
		return model.ActionStopReceiving, true
	default:
		return "", false
	}
}

// ReadEnded evicts the tracker entry for (channel, read_number)
// immediately, as reported by the instrument's read-end signal, rather
// than waiting for TTL.
func (t *Tracker) ReadEnded(channel, readNumber int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key{channel, readNumber})
}

// GC sweeps entries whose last chunk was seen longer than ttl ago.
func (t *Tracker) GC() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	evicted := 0
	for k, e := range t.entries {
		if e.lastSeenAt.Before(cutoff) {
			delete(t.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of tracked reads, for tests and statistics.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
