package caller

import (
	"context"

	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/model"
)

// NoOp is a pass-through Caller: every chunk becomes a Result with an
// empty sequence, never touching a real basecaller. Used for latency
// testing, selected by the no_op caller name.
type NoOp struct{}

func newNoOp(_ map[string]any) (Caller, error) {
	return &NoOp{}, nil
}

func (n *NoOp) Basecall(_ context.Context, batch []cache.Pending) ([]model.Result, error) {
	out := make([]model.Result, len(batch))
	for i, p := range batch {
		out[i] = model.Result{
			ReadID:     p.Chunk.ReadID,
			Channel:    p.Chunk.Channel,
			ReadNumber: p.Chunk.ReadNumber,
		}
	}
	return out, nil
}

func (n *NoOp) Validate(_ context.Context) error { return nil }
func (n *NoOp) Describe() string                 { return "no_op caller: pass-through, empty sequence" }
func (n *NoOp) Disconnect() error                { return nil }
