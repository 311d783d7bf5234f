package rfutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressAndEncode_RoundTrip(t *testing.T) {
	original := "split_axis: 1\nchannels: 512\nregions:\n  - name: test\n"

	encoded, err := CompressAndEncode(original)
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	decoded, err := DecodeAndDecompress(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeAndDecompress_InvalidInput(t *testing.T) {
	_, err := DecodeAndDecompress("not valid base64!!")
	assert.Error(t, err)
}
