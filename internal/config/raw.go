package config

// rawConf mirrors the YAML grammar in the external-interfaces table:
// split_axis, channels, caller_settings.<plugin>, mapper_settings.<plugin>,
// regions[], barcodes.<name>.
type rawConf struct {
	SchemaVersion  int                       `yaml:"schema_version,omitempty"`
	FileType       string                    `yaml:"file_type,omitempty"`
	SplitAxis      *int                      `yaml:"split_axis"`
	Channels       int                       `yaml:"channels"`
	CallerSettings map[string]map[string]any `yaml:"caller_settings"`
	MapperSettings map[string]map[string]any `yaml:"mapper_settings"`
	Regions        []rawCondition            `yaml:"regions"`
	Barcodes       map[string]rawCondition   `yaml:"barcodes"`
}

// rawCondition mirrors one Condition sub-table: required name, min_chunks,
// max_chunks, targets, single_on/multi_on/single_off/multi_off/no_seq/no_map;
// optional control, above_max_chunks, below_min_chunks.
type rawCondition struct {
	Name           string   `yaml:"name"`
	Control        bool     `yaml:"control"`
	MinChunks      *int     `yaml:"min_chunks"`
	MaxChunks      *int     `yaml:"max_chunks"`
	Targets        any      `yaml:"targets"`
	SingleOn       string   `yaml:"single_on"`
	MultiOn        string   `yaml:"multi_on"`
	SingleOff      string   `yaml:"single_off"`
	MultiOff       string   `yaml:"multi_off"`
	NoSeq          string   `yaml:"no_seq"`
	NoMap          string   `yaml:"no_map"`
	AboveMaxChunks string   `yaml:"above_max_chunks"`
	BelowMinChunks string   `yaml:"below_min_chunks"`
}

// targetList normalizes the `targets` field, which may be a YAML array of
// strings (inline coords) or a single string (path to a BED/CSV file), into
// the []string Load expects.
func (r rawCondition) targetList() ([]string, bool) {
	switch v := r.Targets.(type) {
	case nil:
		return nil, true
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		return v, true
	default:
		return nil, false
	}
}
