package aligner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/looselab/readfish-go/internal/model"
)

// MappyRS is the multi-threaded Aligner, modeling mappy_rs's thread pool
// from the original source: the batch is fanned out one goroutine per
// Result, at most threads of them running at once, each matching against
// the same shared reference index (read-only once loaded, safe for
// concurrent use).
type MappyRS struct {
	path    string
	ref     *reference
	threads int
}

func newMappyRS(options map[string]any) (Aligner, error) {
	path, _ := options["reference"].(string)
	if path == "" {
		return nil, fmt.Errorf("mappy_rs aligner: \"reference\" option is required")
	}
	threads, err := threadCount(options["threads"])
	if err != nil {
		return nil, fmt.Errorf("mappy_rs aligner: %w", err)
	}
	ref, err := loadReference(path)
	if err != nil {
		return nil, fmt.Errorf("mappy_rs aligner: %w", err)
	}
	return &MappyRS{path: path, ref: ref, threads: threads}, nil
}

func threadCount(v any) (int, error) {
	switch t := v.(type) {
	case int:
		if t > 0 {
			return t, nil
		}
	case float64:
		if t > 0 {
			return int(t), nil
		}
	}
	return 0, fmt.Errorf("\"threads\" option is required and must be a positive integer")
}

func (a *MappyRS) Align(ctx context.Context, results []model.Result) ([]model.Result, error) {
	out := make([]model.Result, len(results))

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, a.threads)

	for i, r := range results {
		i, r := i, r
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r.AlignmentData = a.ref.match(r.Sequence)
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mappy_rs align: %w", err)
	}
	return out, nil
}

func (a *MappyRS) Validate(_ context.Context) error {
	if len(a.ref.contigs) == 0 {
		return fmt.Errorf("mappy_rs aligner: reference %s loaded with zero contigs", a.path)
	}
	return nil
}

func (a *MappyRS) Describe() string {
	return fmt.Sprintf("mappy_rs aligner: reference=%s contigs=%d threads=%d", a.path, len(a.ref.contigs), a.threads)
}

func (a *MappyRS) Initialised() bool { return a.ref != nil }
func (a *MappyRS) Disconnect() error { return nil }
