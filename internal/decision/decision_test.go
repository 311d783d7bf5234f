package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/config"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/targets"
	"github.com/looselab/readfish-go/internal/tracker"
)

func baseCondition(t *testing.T) config.Condition {
	idx, err := targets.Load([]string{"chr20,0,1000,+"})
	require.NoError(t, err)
	return config.Condition{
		MinChunks: 0,
		MaxChunks: 2,
		Targets:   idx,
		Actions: config.ActionTable{
			SingleOn:       model.ActionStopReceiving,
			MultiOn:        model.ActionStopReceiving,
			SingleOff:      model.ActionUnblock,
			MultiOff:       model.ActionUnblock,
			NoSeq:          model.ActionProceed,
			NoMap:          model.ActionUnblock,
			AboveMaxChunks: model.ActionUnblock,
			BelowMinChunks: model.ActionProceed,
		},
	}
}

// S1: single region, target chr20, on-target single alignment.
func TestDecide_SingleOn(t *testing.T) {
	c := baseCondition(t)
	r := model.Result{
		Channel: 100, ReadNumber: 1, Sequence: "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandForward, RStart: 0, REnd: 500}},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.False(t, out.Skip)
	assert.Equal(t, model.DecisionSingleOn, out.Decision)
	assert.Equal(t, model.ActionStopReceiving, out.Action)
}

func TestDecide_SingleOff(t *testing.T) {
	c := baseCondition(t)
	r := model.Result{
		Sequence:      "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandForward, RStart: 2000, REnd: 2500}},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionSingleOff, out.Decision)
	assert.Equal(t, model.ActionUnblock, out.Action)
}

func TestDecide_NoSeq(t *testing.T) {
	c := baseCondition(t)
	out := Decide(c, model.Result{Sequence: ""}, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionNoSeq, out.Decision)
	assert.Equal(t, model.ActionProceed, out.Action)
}

func TestDecide_NoMap(t *testing.T) {
	c := baseCondition(t)
	out := Decide(c, model.Result{Sequence: "ACGT"}, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionNoMap, out.Decision)
	assert.Equal(t, model.ActionUnblock, out.Action)
}

func TestDecide_MultiOnRequiresOnlyOneHit(t *testing.T) {
	c := baseCondition(t)
	r := model.Result{
		Sequence: "ACGT",
		AlignmentData: []model.Alignment{
			{Contig: "chr20", Strand: model.StrandForward, RStart: 0, REnd: 500},
			{Contig: "chrX", Strand: model.StrandForward, RStart: 0, REnd: 500},
		},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionMultiOn, out.Decision)
}

// B1: min_chunks = 0 means below_min_chunks never fires.
func TestDecide_MinChunksZeroNeverFires(t *testing.T) {
	c := baseCondition(t)
	c.MinChunks = 0
	out := Decide(c, model.Result{Sequence: ""}, 1, tracker.TerminalNone)
	assert.NotEqual(t, model.DecisionBelowMinChunks, out.Decision)
}

func TestDecide_BelowMinChunks(t *testing.T) {
	c := baseCondition(t)
	c.MinChunks = 2
	r := model.Result{
		Sequence:      "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandForward, RStart: 0, REnd: 500}},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionBelowMinChunks, out.Decision)
	assert.Equal(t, model.ActionProceed, out.Action)
}

// B2/S7: above_max_chunks supersedes an on-target classification.
func TestDecide_AboveMaxChunksSupersedesOnTarget(t *testing.T) {
	c := baseCondition(t)
	c.MaxChunks = 2
	r := model.Result{
		Sequence:      "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandForward, RStart: 0, REnd: 500}},
	}
	out := Decide(c, r, 3, tracker.TerminalNone)
	assert.Equal(t, model.DecisionAboveMaxChunks, out.Decision)
	assert.Equal(t, model.ActionUnblock, out.Action)
}

func TestDecide_TerminalMarkerSkips(t *testing.T) {
	c := baseCondition(t)
	out := Decide(c, model.Result{Sequence: "ACGT"}, 1, tracker.TerminalUnblockSent)
	assert.True(t, out.Skip)
}

func TestDecide_ControlOverridesToProceed(t *testing.T) {
	c := baseCondition(t)
	c.Control = true
	r := model.Result{
		Sequence:      "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandForward, RStart: 0, REnd: 500}},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionSingleOn, out.Decision)
	assert.Equal(t, model.ActionProceed, out.Action)
}

// P5: reverse-strand alignments check r_st, not r_en.
func TestDecide_ReverseStrandUsesReadStart(t *testing.T) {
	idx, err := targets.Load([]string{"chr20,0,1000,-"})
	require.NoError(t, err)
	c := baseCondition(t)
	c.Targets = idx
	r := model.Result{
		Sequence:      "ACGT",
		AlignmentData: []model.Alignment{{Contig: "chr20", Strand: model.StrandReverse, RStart: 10, REnd: 5000}},
	}
	out := Decide(c, r, 1, tracker.TerminalNone)
	assert.Equal(t, model.DecisionSingleOn, out.Decision, "r_st=10 is on-target even though r_en=5000 is not")
}
