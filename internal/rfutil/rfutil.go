// Package rfutil holds small standalone helpers ported from the original
// Python implementation's _utils.py that don't belong to any one component:
// config-text archival for post-run reproducibility.
package rfutil

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
)

// CompressAndEncode zlib-compresses s and base64-encodes the result, for
// embedding the full text of a loaded configuration in a single log line
// at startup. Mirrors compress_and_encode_string (_utils.py).
func CompressAndEncode(s string) (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeAndDecompress reverses CompressAndEncode, mirroring
// decode_and_decompress_string (_utils.py).
func DecodeAndDecompress(encoded string) (string, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	return string(out), nil
}
