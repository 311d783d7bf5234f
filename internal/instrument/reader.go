package instrument

import (
	"context"
	"net"

	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/rferr"
)

// ChunkMessage is the inbound half of the instrument's bidirectional
// stream: one raw-signal delivery for a read in progress. Field names
// mirror the Chunk the rest of the pipeline operates on; this type exists
// only because the wire encoding (JSON over the length-prefixed frame) is
// this package's concern, not model's.
type ChunkMessage struct {
	Channel      int     `json:"channel"`
	ReadNumber   int     `json:"read_number"`
	ReadID       string  `json:"read_id"`
	RawSignal    []byte  `json:"raw_signal"`
	SampleStart  int64   `json:"sample_start"`
	ChunkLength  int     `json:"chunk_length"`
	MedianBefore float64 `json:"median_before"`
	Median       float64 `json:"median"`
}

// StreamChunks dials a dedicated connection and continuously reads
// ChunkMessage frames from it, inserting each into dst, until ctx is
// cancelled or the stream breaks. This gives the inbound half of the
// instrument stream its own reader goroutine; the driver's main loop
// never touches this connection, only the cache StreamChunks feeds.
func (c *Client) StreamChunks(ctx context.Context, dst *cache.Cache) error {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return &rferr.TransportLost{Remote: c.address, Err: err}
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg ChunkMessage
		if err := readFrame(conn, &msg); err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return &rferr.TransportLost{Remote: c.address, Err: err}
		}
		dst.Insert(model.Chunk{
			Channel:      msg.Channel,
			ReadNumber:   msg.ReadNumber,
			ReadID:       msg.ReadID,
			RawSignal:    msg.RawSignal,
			SampleStart:  msg.SampleStart,
			ChunkLength:  msg.ChunkLength,
			MedianBefore: msg.MedianBefore,
			Median:       msg.Median,
		})
	}
}
