// Package flowcell builds the channel→region index map: a pure function of
// channel count, split axis, and region count. The physical channel-to-
// (row, col) permutation for real flow-cell hardware is instrument-
// dependent and supplied out-of-band — this
// package only guarantees the map is deterministic given that permutation,
// defaulting to a row-major layout when none is supplied.
//
// Grounded on generate_flowcell/draw_flowcell_split (readfish/_utils.py):
// same axis semantics (0 = split rows, 1 = split columns) and the same
// "region count must evenly divide the split dimension" validation.
package flowcell

import (
	"fmt"
	"sort"
)

// Axis selects which flow-cell dimension is divided into regions.
type Axis int

const (
	AxisRows Axis = 0
	AxisCols Axis = 1
)

// Permutation maps a 1-based channel number to its (row, col) position on
// the physical flow cell. Callers that don't have vendor layout data can
// use DefaultPermutation, which lays channels out row-major.
type Permutation func(channel int) (row, col int)

// DefaultPermutation returns a row-major Permutation for a grid of the
// given dimensions: channel 1 is (0,0), channel 2 is (0,1), etc.
func DefaultPermutation(rows, cols int) Permutation {
	return func(channel int) (int, int) {
		idx := channel - 1
		return idx / cols, idx % cols
	}
}

// Map is the built channel→region index lookup.
type Map struct {
	regionOf map[int]int
	regions  int
}

// Build constructs a Map for `channels` total channels laid out on a
// rows×cols grid (via perm), split into `regions` equal groups along axis.
// Fails if regions does not evenly divide the chosen dimension.
func Build(channels, rows, cols int, axis Axis, regions int, perm Permutation) (*Map, error) {
	if regions <= 0 {
		return nil, fmt.Errorf("region count must be positive, got %d", regions)
	}
	if perm == nil {
		perm = DefaultPermutation(rows, cols)
	}

	dim := cols
	if axis == AxisRows {
		dim = rows
	}
	if dim%regions != 0 {
		return nil, fmt.Errorf("region count %d does not divide flow-cell dimension %d (axis=%d)", regions, dim, axis)
	}
	groupSize := dim / regions

	m := &Map{regionOf: make(map[int]int, channels), regions: regions}
	for ch := 1; ch <= channels; ch++ {
		row, col := perm(ch)
		pos := col
		if axis == AxisRows {
			pos = row
		}
		m.regionOf[ch] = pos / groupSize
	}
	return m, nil
}

// RegionIndex returns the region index in [0, regions) for a channel.
// Panics if ch was never laid out by Build — a programming error, since
// every channel must be accounted for by the configuration's channel count.
func (m *Map) RegionIndex(ch int) int {
	idx, ok := m.regionOf[ch]
	if !ok {
		panic(fmt.Sprintf("flowcell: channel %d not present in map", ch))
	}
	return idx
}

// Regions returns the number of regions this map was built with.
func (m *Map) Regions() int {
	return m.regions
}

// Channels returns the channel numbers assigned to a region, sorted, for
// use by describe/draw-style summaries.
func (m *Map) Channels(region int) []int {
	var out []int
	for ch, r := range m.regionOf {
		if r == region {
			out = append(out, ch)
		}
	}
	sort.Ints(out)
	return out
}
