package caller

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/model"
)

// Real is the Caller that talks to an external basecaller server over a
// length-prefixed JSON socket protocol, mirroring the UDS wire
// format (internal/uds/protocol.go: 4-byte big-endian length + JSON
// payload) but over TCP, since the basecaller IPC target is a host:port
// rather than a local socket path — the Caller plugin owns the wire format.
type Real struct {
	address string
	model   string
	timeout time.Duration
}

func newReal(options map[string]any) (Caller, error) {
	address, _ := options["address"].(string)
	if address == "" {
		return nil, fmt.Errorf("real caller: \"address\" option is required")
	}
	modelName, _ := options["model"].(string)
	if modelName == "" {
		return nil, fmt.Errorf("real caller: \"model\" option is required")
	}
	return &Real{address: address, model: modelName, timeout: 10 * time.Second}, nil
}

type basecallRequest struct {
	Model  string          `json:"model"`
	Chunks []basecallChunk `json:"chunks"`
}

type basecallChunk struct {
	Channel      int     `json:"channel"`
	ReadNumber   int     `json:"read_number"`
	ReadID       string  `json:"read_id"`
	RawSignal    []byte  `json:"raw_signal"`
	MedianBefore float64 `json:"median_before"`
	Median       float64 `json:"median"`
}

type basecallResponse struct {
	Results []struct {
		ReadID   string `json:"read_id"`
		Sequence string `json:"sequence"`
		Quality  []byte `json:"quality"`
		Barcode  string `json:"barcode"`
		Error    string `json:"error"`
	} `json:"results"`
}

func (r *Real) Basecall(ctx context.Context, batch []cache.Pending) ([]model.Result, error) {
	req := basecallRequest{Model: r.model, Chunks: make([]basecallChunk, len(batch))}
	byReadID := make(map[string]cache.Pending, len(batch))
	for i, p := range batch {
		req.Chunks[i] = basecallChunk{
			Channel:      p.Chunk.Channel,
			ReadNumber:   p.Chunk.ReadNumber,
			ReadID:       p.Chunk.ReadID,
			RawSignal:    p.Chunk.RawSignal,
			MedianBefore: p.Chunk.MedianBefore,
			Median:       p.Chunk.Median,
		}
		byReadID[p.Chunk.ReadID] = p
	}

	var resp basecallResponse
	if err := r.roundTrip(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("basecall: %w", err)
	}

	out := make([]model.Result, 0, len(resp.Results))
	for _, item := range resp.Results {
		p, ok := byReadID[item.ReadID]
		if !ok {
			continue
		}
		out = append(out, model.Result{
			ReadID:        item.ReadID,
			Channel:       p.Chunk.Channel,
			ReadNumber:    p.Chunk.ReadNumber,
			Barcode:       item.Barcode,
			Sequence:      item.Sequence,
			Quality:       item.Quality,
			BasecallError: item.Error,
		})
	}
	return out, nil
}

func (r *Real) Validate(ctx context.Context) error {
	conn, err := net.DialTimeout("tcp", r.address, r.timeout)
	if err != nil {
		return fmt.Errorf("real caller: basecaller unreachable at %s: %w", r.address, err)
	}
	return conn.Close()
}

func (r *Real) Describe() string {
	return fmt.Sprintf("real caller: model=%s address=%s", r.model, r.address)
}

func (r *Real) Disconnect() error { return nil }

func (r *Real) roundTrip(ctx context.Context, req any, resp any) error {
	conn, err := net.DialTimeout("tcp", r.address, r.timeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", r.address, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(r.timeout)
	}
	_ = conn.SetDeadline(deadline)

	if err := writeFrame(conn, req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	return readFrame(conn, resp)
}

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

const maxFrameBytes = 64 * 1024 * 1024

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
