// Package decision implements the Decision Engine: a pure function of a
// Condition, a basecalled/aligned Result, and the caller-supplied chunk
// count and terminal state. It owns nothing and holds no tracker
// reference itself — Decide takes the chunk count and terminal marker as
// plain arguments, so the only state driving a classification is what the
// caller passes in for this one Result.
package decision

import (
	"github.com/looselab/readfish-go/internal/config"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/tracker"
)

// Outcome is everything the driver needs out of one decide call: the
// classification, for statistics, and the action to hand to the tracker.
type Outcome struct {
	Decision model.Decision
	Action   model.Action
	// Skip is true when the read already has a terminal marker: no
	// classification happens and no action should be dispatched.
	Skip bool
}

// Decide classifies a Result under Condition c, given the chunk count n
// already observed for (R.Channel, R.ReadNumber) and the tracker's current
// terminal state for that read.
func Decide(c config.Condition, r model.Result, n int, terminal tracker.Terminal) Outcome {
	if terminal != tracker.TerminalNone {
		return Outcome{Skip: true}
	}

	var d model.Decision
	switch {
	case n < c.MinChunks:
		d = model.DecisionBelowMinChunks
	case n > c.MaxChunks:
		d = model.DecisionAboveMaxChunks
	default:
		d = classify(c, r)
	}

	action := c.Actions.Lookup(d)
	if c.Control {
		action = model.ActionProceed
	}
	return Outcome{Decision: d, Action: action}
}

func classify(c config.Condition, r model.Result) model.Decision {
	if r.Sequence == "" {
		return model.DecisionNoSeq
	}
	if len(r.AlignmentData) == 0 {
		return model.DecisionNoMap
	}

	hits := 0
	for _, a := range r.AlignmentData {
		if c.Targets != nil && c.Targets.CheckCoord(a.Contig, a.Strand, a.QueryCoord()) {
			hits++
		}
	}

	if len(r.AlignmentData) == 1 {
		if hits >= 1 {
			return model.DecisionSingleOn
		}
		return model.DecisionSingleOff
	}
	if hits >= 1 {
		return model.DecisionMultiOn
	}
	return model.DecisionMultiOff
}
