// Package config loads, validates, and holds the experiment configuration:
// the flow-cell split, the ordered list of region conditions, the barcode
// conditions, and the caller/aligner plugin selectors. A *Conf is immutable
// once built; reload produces a new one and the holder swaps the pointer.
//
// Modeled on model.Config (internal/model/config.go) for
// shape and on quality.Loader (internal/quality/loader.go) for the
// load-then-validate-then-default flow, adapted to produce an aggregated
// ConfigInvalid rather than returning on the first problem.
package config

import (
	"github.com/looselab/readfish-go/internal/flowcell"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/rfyaml"
	"github.com/looselab/readfish-go/internal/targets"
)

// PluginSelector names a caller or aligner plugin and carries its raw
// options through to construction, verbatim.
type PluginSelector struct {
	Name    string
	Options map[string]any
}

// ActionTable is a Condition's eight-outcome decision -> action mapping.
type ActionTable struct {
	SingleOn       model.Action
	MultiOn        model.Action
	SingleOff      model.Action
	MultiOff       model.Action
	NoSeq          model.Action
	NoMap          model.Action
	AboveMaxChunks model.Action
	BelowMinChunks model.Action
}

// Lookup returns the configured action for a classification decision.
// Panics on a decision not present in the table — a programming error,
// since the table is built to cover exactly the eight classification
// outcomes the decision engine can produce.
func (t ActionTable) Lookup(d model.Decision) model.Action {
	switch d {
	case model.DecisionSingleOn:
		return t.SingleOn
	case model.DecisionMultiOn:
		return t.MultiOn
	case model.DecisionSingleOff:
		return t.SingleOff
	case model.DecisionMultiOff:
		return t.MultiOff
	case model.DecisionNoSeq:
		return t.NoSeq
	case model.DecisionNoMap:
		return t.NoMap
	case model.DecisionAboveMaxChunks:
		return t.AboveMaxChunks
	case model.DecisionBelowMinChunks:
		return t.BelowMinChunks
	default:
		panic("config: unhandled decision " + string(d))
	}
}

// Condition is the unit of policy: a Region or a Barcode Condition.
type Condition struct {
	Name      string
	Control   bool
	MinChunks int
	MaxChunks int
	Targets   *targets.Index
	Actions   ActionTable
}

// Conf is a fully loaded, validated, immutable configuration.
type Conf struct {
	SplitAxis      flowcell.Axis
	Channels       int
	Regions        []Condition
	Barcodes       map[string]Condition
	CallerSettings PluginSelector
	MapperSettings PluginSelector
	FlowcellMap    *flowcell.Map

	sourceText    string // raw config text, retained for Save/CompressAndEncode
	schemaVersion int    // 0 for a hand-authored document with no header
}

// SourceText returns the exact text this Conf was loaded from, used for
// round-trip Save and for the startup compress-and-log line.
func (c *Conf) SourceText() string {
	return c.sourceText
}

// NeedsMigration reports whether this Conf was loaded from a document
// stamped with an older schema_version than this build writes. A
// hand-authored document with no header (schemaVersion 0) never needs
// migration since it never went through a prior save.
func (c *Conf) NeedsMigration() bool {
	return c.schemaVersion > 0 && rfyaml.NeedsMigration(c.schemaVersion)
}

// ConditionFor implements condition_for(channel, barcode): a barcode
// condition wins over the region when barcoding is configured and the
// basecaller reported a barcode name.
func (c *Conf) ConditionFor(channel int, barcode string) Condition {
	if len(c.Barcodes) > 0 && barcode != "" {
		if cond, ok := c.Barcodes[barcode]; ok {
			return cond
		}
		return c.Barcodes["classified"]
	}
	region := c.FlowcellMap.RegionIndex(channel)
	return c.Regions[region]
}
