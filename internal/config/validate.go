package config

import (
	"github.com/looselab/readfish-go/internal/flowcell"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/targets"
)

const defaultChannels = 512

func build(raw *rawConf) (*Conf, error) {
	p := &problemList{}

	axis := flowcell.AxisCols
	if raw.SplitAxis != nil {
		switch *raw.SplitAxis {
		case 0:
			axis = flowcell.AxisRows
		case 1:
			axis = flowcell.AxisCols
		default:
			p.add("split_axis: must be 0 or 1, got %d", *raw.SplitAxis)
		}
	}

	channels := raw.Channels
	if channels <= 0 {
		channels = defaultChannels
	}

	callerSel := buildPluginSelector("caller_settings", raw.CallerSettings, p)
	mapperSel := buildPluginSelector("mapper_settings", raw.MapperSettings, p)
	if callerSel.Name != "" {
		p.problems = append(p.problems, validatePluginOptions("caller", callerSel.Name, callerSel.Options, builtinCallers)...)
	}
	if mapperSel.Name != "" {
		p.problems = append(p.problems, validatePluginOptions("aligner", mapperSel.Name, mapperSel.Options, builtinAligners)...)
	}

	if len(raw.Regions) == 0 && len(raw.Barcodes) == 0 {
		p.add("at least one region is required when barcoding is disabled")
	}

	regions := make([]Condition, 0, len(raw.Regions))
	for i, rc := range raw.Regions {
		cond, probs := buildCondition(rc)
		for _, msg := range probs {
			p.add("regions[%d]: %s", i, msg)
		}
		regions = append(regions, cond)
	}

	var barcodes map[string]Condition
	if len(raw.Barcodes) > 0 {
		barcodes = make(map[string]Condition, len(raw.Barcodes))
		for name, rc := range raw.Barcodes {
			cond, probs := buildCondition(rc)
			for _, msg := range probs {
				p.add("barcodes.%s: %s", name, msg)
			}
			barcodes[name] = cond
		}
		if _, ok := barcodes["classified"]; !ok {
			p.add("barcodes: \"classified\" condition is required when barcoding is enabled")
		}
		if _, ok := barcodes["unclassified"]; !ok {
			p.add("barcodes: \"unclassified\" condition is required when barcoding is enabled")
		}
	}

	var flowMap *flowcell.Map
	if err := p.err(); err == nil && len(regions) > 0 {
		rows, cols := gridFor(channels)
		m, err := flowcell.Build(channels, rows, cols, axis, len(regions), nil)
		if err != nil {
			p.add("regions: %v", err)
		} else {
			flowMap = m
		}
	}

	if err := p.err(); err != nil {
		return nil, err
	}

	return &Conf{
		SplitAxis:      axis,
		Channels:       channels,
		Regions:        regions,
		Barcodes:       barcodes,
		CallerSettings: callerSel,
		MapperSettings: mapperSel,
		FlowcellMap:    flowMap,
	}, nil
}

// gridFor picks a rows x cols grid for a channel count, matching the two
// flow-cell shapes readfish itself cares about (MinION-class:
// 16 rows x 32 cols = 512; everything else falls back to a single row so
// axis-1 splits still divide evenly).
func gridFor(channels int) (rows, cols int) {
	if channels == 512 {
		return 16, 32
	}
	return 1, channels
}

func buildPluginSelector(field string, m map[string]map[string]any, p *problemList) PluginSelector {
	if len(m) == 0 {
		p.add("%s: exactly one plugin selector is required, got none", field)
		return PluginSelector{}
	}
	if len(m) > 1 {
		p.add("%s: exactly one plugin selector is required, got %d", field, len(m))
		return PluginSelector{}
	}
	for name, opts := range m {
		return PluginSelector{Name: name, Options: opts}
	}
	return PluginSelector{}
}

func buildCondition(rc rawCondition) (Condition, []string) {
	var problems []string

	if rc.MinChunks == nil {
		problems = append(problems, "min_chunks: required")
	}
	if rc.MaxChunks == nil {
		problems = append(problems, "max_chunks: required")
	}
	minChunks, maxChunks := 0, 0
	if rc.MinChunks != nil {
		minChunks = *rc.MinChunks
	}
	if rc.MaxChunks != nil {
		maxChunks = *rc.MaxChunks
	}
	if rc.MinChunks != nil && rc.MaxChunks != nil && minChunks > maxChunks {
		problems = append(problems, "min_chunks must be <= max_chunks")
	}

	actions, actionProbs := buildActionTable(rc)
	problems = append(problems, actionProbs...)

	rawTargets, ok := rc.targetList()
	if !ok {
		problems = append(problems, "targets: must be a string or array of strings")
	}
	var idx *targets.Index
	if ok {
		built, err := targets.Load(rawTargets)
		if err != nil {
			problems = append(problems, "targets: "+err.Error())
		} else {
			idx = built
		}
	}

	return Condition{
		Name:      rc.Name,
		Control:   rc.Control,
		MinChunks: minChunks,
		MaxChunks: maxChunks,
		Targets:   idx,
		Actions:   actions,
	}, problems
}

func buildActionTable(rc rawCondition) (ActionTable, []string) {
	var problems []string
	parse := func(field, token string, required bool, fallback model.Action) model.Action {
		if token == "" {
			if required {
				problems = append(problems, field+": required action token missing")
			}
			return fallback
		}
		a := model.Action(token)
		if !a.Valid() {
			problems = append(problems, field+": invalid action token "+token)
			return fallback
		}
		return a
	}

	return ActionTable{
		SingleOn:       parse("single_on", rc.SingleOn, true, model.ActionProceed),
		MultiOn:        parse("multi_on", rc.MultiOn, true, model.ActionProceed),
		SingleOff:      parse("single_off", rc.SingleOff, true, model.ActionProceed),
		MultiOff:       parse("multi_off", rc.MultiOff, true, model.ActionProceed),
		NoSeq:          parse("no_seq", rc.NoSeq, true, model.ActionProceed),
		NoMap:          parse("no_map", rc.NoMap, true, model.ActionProceed),
		AboveMaxChunks: parse("above_max_chunks", rc.AboveMaxChunks, false, model.ActionUnblock),
		BelowMinChunks: parse("below_min_chunks", rc.BelowMinChunks, false, model.ActionProceed),
	}, problems
}
