// Package aligner defines the Aligner plugin contract and the built-in
// implementations (mappy, mappy_rs, no_op) behind a name->constructor
// registry, mirroring internal/caller's shape.
package aligner

import (
	"context"
	"fmt"

	"github.com/looselab/readfish-go/internal/model"
)

// Aligner attaches alignment_data to each Result (possibly empty), lazily
// in spirit — the driver hands it one batch and consumes the full result.
type Aligner interface {
	Align(ctx context.Context, results []model.Result) ([]model.Result, error)
	Validate(ctx context.Context) error
	Describe() string
	Initialised() bool
	Disconnect() error
}

type Constructor func(options map[string]any) (Aligner, error)

var registry = map[string]Constructor{
	"mappy":    newMappy,
	"mappy_rs": newMappyRS,
	"no_op":    newNoOpAligner,
}

func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

func New(name string, options map[string]any) (Aligner, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("aligner: no built-in or registered plugin named %q", name)
	}
	return ctor(options)
}
