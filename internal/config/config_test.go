package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looselab/readfish-go/internal/model"
)

const validYAML = `
split_axis: 1
channels: 512
caller_settings:
  no_op: {}
mapper_settings:
  no_op: {}
regions:
  - name: test
    min_chunks: 0
    max_chunks: 4
    targets:
      - chr20,0,1000,+
    single_on: stop_receiving
    multi_on: stop_receiving
    single_off: unblock
    multi_off: unblock
    no_seq: proceed
    no_map: proceed
`

func TestParse_Valid(t *testing.T) {
	conf, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 512, conf.Channels)
	require.Len(t, conf.Regions, 1)
	assert.Equal(t, "test", conf.Regions[0].Name)
	assert.Equal(t, model.ActionStopReceiving, conf.Regions[0].Actions.SingleOn)
	assert.Equal(t, model.ActionUnblock, conf.Regions[0].Actions.AboveMaxChunks) // defaulted
}

func TestParse_MissingPluginSelector(t *testing.T) {
	bad := `
regions:
  - name: test
    min_chunks: 0
    max_chunks: 4
    targets: [chr20]
    single_on: proceed
    multi_on: proceed
    single_off: proceed
    multi_off: proceed
    no_seq: proceed
    no_map: proceed
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	var invalid *ConfigInvalid
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Error(), "caller_settings")
	assert.Contains(t, invalid.Error(), "mapper_settings")
}

func TestParse_AggregatesAllProblems(t *testing.T) {
	bad := `
caller_settings:
  no_op: {}
mapper_settings:
  no_op: {}
regions:
  - name: bad
    min_chunks: 5
    max_chunks: 1
    targets: [chr20]
    single_on: explode
    multi_on: proceed
    single_off: proceed
    multi_off: proceed
    no_seq: proceed
    no_map: proceed
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	var invalid *ConfigInvalid
	require.ErrorAs(t, err, &invalid)
	assert.GreaterOrEqual(t, len(invalid.Problems), 2)
}

func TestParse_RealCallerSchemaValidation(t *testing.T) {
	bad := `
caller_settings:
  real:
    model: dna_r10
mapper_settings:
  no_op: {}
regions:
  - name: test
    min_chunks: 0
    max_chunks: 4
    targets: [chr20]
    single_on: proceed
    multi_on: proceed
    single_off: proceed
    multi_off: proceed
    no_seq: proceed
    no_map: proceed
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

func TestParse_BarcodesRequireClassifiedAndUnclassified(t *testing.T) {
	bad := `
caller_settings:
  no_op: {}
mapper_settings:
  no_op: {}
barcodes:
  barcode01:
    name: barcode01
    min_chunks: 0
    max_chunks: 4
    targets: [chr20]
    single_on: proceed
    multi_on: proceed
    single_off: proceed
    multi_off: proceed
    no_seq: proceed
    no_map: proceed
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classified")
	assert.Contains(t, err.Error(), "unclassified")
}

func TestConf_SaveLoadRoundTrip(t *testing.T) {
	conf, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, conf.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, conf.Channels, reloaded.Channels)
	assert.Equal(t, conf.SplitAxis, reloaded.SplitAxis)
	require.Len(t, reloaded.Regions, 1)
	assert.Equal(t, conf.Regions[0].Name, reloaded.Regions[0].Name)
	assert.Equal(t, conf.Regions[0].Actions, reloaded.Regions[0].Actions)
}

func TestConf_WriteChannelMap(t *testing.T) {
	conf, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "channels.yaml")
	require.NoError(t, conf.WriteChannelMap(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "channel_map")
}

func TestConf_ConditionFor_RegionOnly(t *testing.T) {
	conf, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	cond := conf.ConditionFor(1, "")
	assert.Equal(t, "test", cond.Name)
}

func TestConf_Describe(t *testing.T) {
	conf, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	desc := conf.Describe()
	assert.Contains(t, desc, "no_op")
	assert.Contains(t, desc, "test")
}
