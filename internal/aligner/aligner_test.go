package aligner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/model"
)

func writeFasta(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")
	content := ">chr1\nACGTACGTTTAACCGGTTAACCGGTT\n>chr2\nGGGGCCCCAAAATTTT\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_NoOpAligner(t *testing.T) {
	a, err := New("no_op", nil)
	require.NoError(t, err)
	assert.True(t, a.Initialised())

	results, err := a.Align(context.Background(), []model.Result{{ReadID: "r1", Sequence: "ACGT"}})
	require.NoError(t, err)
	assert.Empty(t, results[0].AlignmentData)
}

func TestNew_Mappy_RequiresReference(t *testing.T) {
	_, err := New("mappy", nil)
	assert.Error(t, err)

	_, err = New("mappy", map[string]any{"reference": "/no/such/file.fa"})
	assert.Error(t, err)
}

func TestMappy_Align_ForwardAndReverseMatches(t *testing.T) {
	path := writeFasta(t)
	a, err := New("mappy", map[string]any{"reference": path})
	require.NoError(t, err)
	require.True(t, a.Initialised())
	require.NoError(t, a.Validate(context.Background()))

	results, err := a.Align(context.Background(), []model.Result{
		{ReadID: "r1", Sequence: "ACGTACGT"},
		{ReadID: "r2", Sequence: "AATTTTGGGG"}, // revcomp is CCCCAAAATT, chr2[4:14]
		{ReadID: "r3", Sequence: "NOTPRESENT"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].AlignmentData)
	assert.Equal(t, "chr1", results[0].AlignmentData[0].Contig)

	assert.Empty(t, results[2].AlignmentData)
}

func TestNew_MappyRS_RequiresThreads(t *testing.T) {
	path := writeFasta(t)
	_, err := New("mappy_rs", map[string]any{"reference": path})
	assert.Error(t, err)

	_, err = New("mappy_rs", map[string]any{"reference": path, "threads": 0})
	assert.Error(t, err)

	a, err := New("mappy_rs", map[string]any{"reference": path, "threads": 4})
	require.NoError(t, err)
	assert.Contains(t, a.Describe(), "threads=4")
}

func TestMappyRS_Align_MatchesPreserveOrderAndChannel(t *testing.T) {
	path := writeFasta(t)
	a, err := New("mappy_rs", map[string]any{"reference": path, "threads": 2})
	require.NoError(t, err)

	batch := make([]model.Result, 0, 20)
	for i := 0; i < 20; i++ {
		batch = append(batch, model.Result{ReadID: "r", Channel: i, Sequence: "ACGTACGT"})
	}
	out, err := a.Align(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, r := range out {
		assert.Equal(t, i, r.Channel)
		assert.NotEmpty(t, r.AlignmentData)
	}
}

func TestNew_UnknownAligner(t *testing.T) {
	_, err := New("totally-bogus", nil)
	assert.Error(t, err)
}

func TestRegister_CustomAligner(t *testing.T) {
	Register("always-empty", func(map[string]any) (Aligner, error) { return &NoOpAligner{}, nil })
	a, err := New("always-empty", nil)
	require.NoError(t, err)
	assert.Equal(t, "no_op aligner: attaches no alignments", a.Describe())
}
