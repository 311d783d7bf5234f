package aligner

import (
	"context"
	"fmt"

	"github.com/looselab/readfish-go/internal/model"
)

// Mappy is the single-threaded Aligner, grounded on the original source's
// mappy.py plugin: one reference index, one thread, results aligned in
// call order.
type Mappy struct {
	path string
	ref  *reference
}

func newMappy(options map[string]any) (Aligner, error) {
	path, _ := options["reference"].(string)
	if path == "" {
		return nil, fmt.Errorf("mappy aligner: \"reference\" option is required")
	}
	ref, err := loadReference(path)
	if err != nil {
		return nil, fmt.Errorf("mappy aligner: %w", err)
	}
	return &Mappy{path: path, ref: ref}, nil
}

func (a *Mappy) Align(_ context.Context, results []model.Result) ([]model.Result, error) {
	out := make([]model.Result, len(results))
	for i, r := range results {
		r.AlignmentData = a.ref.match(r.Sequence)
		out[i] = r
	}
	return out, nil
}

func (a *Mappy) Validate(_ context.Context) error {
	if len(a.ref.contigs) == 0 {
		return fmt.Errorf("mappy aligner: reference %s loaded with zero contigs", a.path)
	}
	return nil
}

func (a *Mappy) Describe() string {
	return fmt.Sprintf("mappy aligner: reference=%s contigs=%d", a.path, len(a.ref.contigs))
}

func (a *Mappy) Initialised() bool { return a.ref != nil }
func (a *Mappy) Disconnect() error { return nil }
