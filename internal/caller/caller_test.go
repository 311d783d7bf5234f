package caller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/model"
)

func TestNew_NoOp(t *testing.T) {
	c, err := New("no_op", nil)
	require.NoError(t, err)

	batch := []cache.Pending{{Chunk: model.Chunk{Channel: 1, ReadNumber: 1, ReadID: "abc"}, ChunkCount: 1}}
	results, err := c.Basecall(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "", results[0].Sequence)
	assert.Equal(t, 1, results[0].Channel)
}

func TestNew_Real_RequiresOptions(t *testing.T) {
	_, err := New("real", map[string]any{"model": "dna_r10"})
	assert.Error(t, err)

	_, err = New("real", map[string]any{"address": "localhost:9000"})
	assert.Error(t, err)

	_, err = New("real", map[string]any{"address": "localhost:9000", "model": "dna_r10"})
	assert.NoError(t, err)
}

func TestNew_UnknownPlugin(t *testing.T) {
	_, err := New("totally-bogus", nil)
	assert.Error(t, err)
}

func TestRegister_CustomPlugin(t *testing.T) {
	Register("always-empty", func(map[string]any) (Caller, error) { return &NoOp{}, nil })
	c, err := New("always-empty", nil)
	require.NoError(t, err)
	assert.Equal(t, "no_op caller: pass-through, empty sequence", c.Describe())
}
