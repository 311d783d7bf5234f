package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignment_QueryCoord(t *testing.T) {
	fwd := Alignment{Strand: StrandForward, RStart: 0, REnd: 500}
	assert.Equal(t, 500, fwd.QueryCoord())

	rev := Alignment{Strand: StrandReverse, RStart: 10, REnd: 500}
	assert.Equal(t, 10, rev.QueryCoord())
}

func TestParseStrand(t *testing.T) {
	cases := []struct {
		in   any
		want Strand
	}{
		{"+", StrandForward},
		{"-", StrandReverse},
		{1, StrandForward},
		{-1, StrandReverse},
		{StrandForward, StrandForward},
	}
	for _, tc := range cases {
		got, err := ParseStrand(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseStrand("sideways")
	assert.Error(t, err)
}

func TestAction_Valid(t *testing.T) {
	assert.True(t, ActionUnblock.Valid())
	assert.True(t, ActionStopReceiving.Valid())
	assert.True(t, ActionProceed.Valid())
	assert.False(t, Action("eject").Valid())
}

func TestStrand_String(t *testing.T) {
	assert.Equal(t, "+", StrandForward.String())
	assert.Equal(t, "-", StrandReverse.String())
}
