package aligner

import (
	"context"

	"github.com/looselab/readfish-go/internal/model"
)

// NoOpAligner attaches no alignment_data to any Result, used for latency
// testing, selected by the no_op aligner name.
type NoOpAligner struct{}

func newNoOpAligner(_ map[string]any) (Aligner, error) {
	return &NoOpAligner{}, nil
}

func (a *NoOpAligner) Align(_ context.Context, results []model.Result) ([]model.Result, error) {
	return results, nil
}

func (a *NoOpAligner) Validate(_ context.Context) error { return nil }
func (a *NoOpAligner) Describe() string                 { return "no_op aligner: attaches no alignments" }
func (a *NoOpAligner) Initialised() bool                { return true }
func (a *NoOpAligner) Disconnect() error                { return nil }
