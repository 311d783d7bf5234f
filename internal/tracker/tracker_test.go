package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/model"
)

func TestChunkCount_Increments(t *testing.T) {
	tr := New(time.Hour)
	assert.Equal(t, 1, tr.ChunkCount(100, 1))
	assert.Equal(t, 2, tr.ChunkCount(100, 1))
	assert.Equal(t, 1, tr.ChunkCount(100, 2))
}

func TestRecord_ProceedEmitsNothing(t *testing.T) {
	tr := New(time.Hour)
	_, ok := tr.Record(1, 1, model.ActionProceed)
	assert.False(t, ok)
	assert.Equal(t, TerminalNone, tr.TerminalState(1, 1))
}

func TestRecord_UnblockThenSuppressed(t *testing.T) {
	tr := New(time.Hour)
	a, ok := tr.Record(1, 1, model.ActionUnblock)
	require.True(t, ok)
	assert.Equal(t, model.ActionUnblock, a)
	assert.Equal(t, TerminalUnblockSent, tr.TerminalState(1, 1))

	_, ok = tr.Record(1, 1, model.ActionStopReceiving)
	assert.False(t, ok, "terminal state must suppress any later action, per P1")
}

func TestRecord_StopReceivingThenSuppressed(t *testing.T) {
	tr := New(time.Hour)
	a, ok := tr.Record(2, 5, model.ActionStopReceiving)
	require.True(t, ok)
	assert.Equal(t, model.ActionStopReceiving, a)

	_, ok = tr.Record(2, 5, model.ActionUnblock)
	assert.False(t, ok, "unblock after stop_receiving is forbidden (P1)")
}

func TestRecord_IdempotentDuplicateCalls(t *testing.T) {
	tr := New(time.Hour)
	_, ok1 := tr.Record(3, 1, model.ActionUnblock)
	_, ok2 := tr.Record(3, 1, model.ActionUnblock)
	assert.True(t, ok1)
	assert.False(t, ok2, "record called twice on the same (channel, read_number, decision) yields at most one Action")
}

func TestReadEnded_EvictsImmediately(t *testing.T) {
	tr := New(time.Hour)
	tr.ChunkCount(4, 1)
	require.Equal(t, 1, tr.Len())
	tr.ReadEnded(4, 1)
	assert.Equal(t, 0, tr.Len())
}

func TestGC_EvictsStaleEntriesOnly(t *testing.T) {
	tr := New(10 * time.Millisecond)
	frozen := time.Now()
	tr.now = func() time.Time { return frozen }
	tr.ChunkCount(1, 1)

	tr.now = func() time.Time { return frozen.Add(time.Hour) }
	tr.ChunkCount(2, 1)

	evicted := tr.GC()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, tr.Len())
}
