package config

import (
	"bytes"
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/looselab/readfish-go/internal/rfyaml"
)

// Parse builds a validated *Conf from raw YAML bytes, retaining the exact
// source text for SourceText()/Save round-trips.
//
// A hand-authored document has no schema_version/file_type and is parsed
// as-is. One this program wrote itself (via Save, or reconstructed by
// rfyaml.RecoverCorruptedFile) carries both, and is checked against
// file_type "experiment_config" so a channel map can't be pointed at as
// the config path by mistake.
func Parse(data []byte) (*Conf, error) {
	var raw rawConf
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ConfigInvalid{Problems: []string{fmt.Sprintf("yaml parse: %v", err)}}
	}

	if raw.FileType != "" {
		if err := rfyaml.ValidateSchemaHeaderFromBytes(data, "experiment_config"); err != nil {
			return nil, &ConfigInvalid{Problems: []string{fmt.Sprintf("schema header: %v", err)}}
		}
	}

	conf, err := build(&raw)
	if err != nil {
		return nil, err
	}
	conf.sourceText = string(data)
	conf.schemaVersion = raw.SchemaVersion
	return conf, nil
}

// Load reads and parses the experiment configuration at path.
func Load(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Save atomically (re)writes this Conf to path, satisfying R1: a
// subsequent Load(path) yields an equal structure.
func (c *Conf) Save(path string) error {
	return rfyaml.AtomicWrite(path, c.toRaw())
}

func (c *Conf) toRaw() *rawConf {
	axis := int(c.SplitAxis)
	raw := &rawConf{
		SchemaVersion:  rfyaml.CurrentSchemaVersion,
		FileType:       "experiment_config",
		SplitAxis:      &axis,
		Channels:       c.Channels,
		CallerSettings: map[string]map[string]any{c.CallerSettings.Name: c.CallerSettings.Options},
		MapperSettings: map[string]map[string]any{c.MapperSettings.Name: c.MapperSettings.Options},
	}
	for _, cond := range c.Regions {
		raw.Regions = append(raw.Regions, conditionToRaw(cond))
	}
	if len(c.Barcodes) > 0 {
		raw.Barcodes = make(map[string]rawCondition, len(c.Barcodes))
		for name, cond := range c.Barcodes {
			raw.Barcodes[name] = conditionToRaw(cond)
		}
	}
	return raw
}

func conditionToRaw(cond Condition) rawCondition {
	min, max := cond.MinChunks, cond.MaxChunks
	var targetsRaw any
	if cond.Targets != nil {
		items := cond.Targets.Raw()
		asAny := make([]any, len(items))
		for i, s := range items {
			asAny[i] = s
		}
		targetsRaw = asAny
	}
	return rawCondition{
		Name:           cond.Name,
		Control:        cond.Control,
		MinChunks:      &min,
		MaxChunks:      &max,
		Targets:        targetsRaw,
		SingleOn:       string(cond.Actions.SingleOn),
		MultiOn:        string(cond.Actions.MultiOn),
		SingleOff:      string(cond.Actions.SingleOff),
		MultiOff:       string(cond.Actions.MultiOff),
		NoSeq:          string(cond.Actions.NoSeq),
		NoMap:          string(cond.Actions.NoMap),
		AboveMaxChunks: string(cond.Actions.AboveMaxChunks),
		BelowMinChunks: string(cond.Actions.BelowMinChunks),
	}
}

// WriteChannelMap emits the channel->region assignment to an auxiliary
// file for operator audit, ported from write_channels_toml (_config.py)
// but rendered as YAML via rfyaml, matching this port's single document
// format.
func (c *Conf) WriteChannelMap(path string) error {
	out := make(map[string]int, c.Channels)
	for ch := 1; ch <= c.Channels; ch++ {
		region := c.Regions[c.FlowcellMap.RegionIndex(ch)]
		out[fmt.Sprintf("%d", ch)] = indexOfRegion(c.Regions, region)
	}
	return rfyaml.AtomicWrite(path, map[string]any{
		"schema_version": rfyaml.CurrentSchemaVersion,
		"file_type":      "channel_map",
		"channels":       out,
	})
}

func indexOfRegion(regions []Condition, target Condition) int {
	for i, r := range regions {
		if r.Name == target.Name {
			return i
		}
	}
	return -1
}
