package instrument

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// Same length-prefixed JSON framing as internal/caller.Real's wire
// protocol, itself adapted from internal/uds/protocol.go's WriteFrame/
// ReadFrame. Kept as a private copy here rather than a shared package
// since the two plugin kinds (caller, instrument) are independent
// transports that happen to share a framing convention, not a single
// wire client.
const maxFrameBytes = 64 * 1024 * 1024

func writeFrame(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if err := binary.Write(conn, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	_, err = io.Copy(conn, bytes.NewReader(data))
	return err
}

func readFrame(conn net.Conn, v any) error {
	var length uint32
	if err := binary.Read(conn, binary.BigEndian, &length); err != nil {
		return fmt.Errorf("read frame length: %w", err)
	}
	if length > maxFrameBytes {
		return fmt.Errorf("frame too large: %d bytes", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}
	return json.Unmarshal(buf, v)
}
