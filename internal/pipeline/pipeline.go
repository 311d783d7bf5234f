// Package pipeline implements the Pipeline Driver: the main drain ->
// basecall -> align -> decide -> dispatch loop, wiring
// together the cache, caller, aligner, decision engine, action tracker,
// instrument client, and statistics counters the rest of this module
// builds.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looselab/readfish-go/internal/aligner"
	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/caller"
	"github.com/looselab/readfish-go/internal/config"
	"github.com/looselab/readfish-go/internal/decision"
	"github.com/looselab/readfish-go/internal/events"
	"github.com/looselab/readfish-go/internal/instrument"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/rferr"
	"github.com/looselab/readfish-go/internal/rflog"
	"github.com/looselab/readfish-go/internal/statistics"
	"github.com/looselab/readfish-go/internal/tracker"
)

// Dispatcher is the subset of instrument.Client the driver depends on,
// narrowed to an interface so tests can substitute a fake instrument.
type Dispatcher interface {
	Dispatch(ctx context.Context, actions []instrument.Action) (int, error)
}

// Driver runs the main pipeline loop. It holds references to Caller,
// Aligner, Cache, Config and Action Tracker, plus the instrument
// dispatcher, statistics counters, event bus and logger — the decision
// engine it calls owns no state of its own.
type Driver struct {
	cfg        *config.Handle
	cache      *cache.Cache
	caller     caller.Caller
	aligner    aligner.Aligner
	tracker    *tracker.Tracker
	instrument Dispatcher
	stats      *statistics.Counters
	bus        *events.Bus
	log        *rflog.Logger

	// Throttle is the sleep interval used when a drain returns nothing,
	// default 100ms.
	Throttle time.Duration
}

type Config struct {
	Handle     *config.Handle
	Cache      *cache.Cache
	Caller     caller.Caller
	Aligner    aligner.Aligner
	Tracker    *tracker.Tracker
	Instrument Dispatcher
	Stats      *statistics.Counters
	Bus        *events.Bus
	Log        *rflog.Logger
}

func New(c Config) *Driver {
	return &Driver{
		cfg:        c.Handle,
		cache:      c.Cache,
		caller:     c.Caller,
		aligner:    c.Aligner,
		tracker:    c.Tracker,
		instrument: c.Instrument,
		stats:      c.Stats,
		bus:        c.Bus,
		log:        c.Log,
		Throttle:   100 * time.Millisecond,
	}
}

// Run executes the pipeline loop until ctx is cancelled. On return (any
// path, including a panic recovered by the caller) the cache has been
// drained one last time, both plugins have been asked to disconnect, and
// a final batch-stats summary has been logged.
func (d *Driver) Run(ctx context.Context) error {
	defer d.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := d.step(ctx); err != nil {
			return err
		}
	}
}

func (d *Driver) step(ctx context.Context) error {
	start := time.Now()

	batch := d.cache.Drain()
	if len(batch) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(d.Throttle):
		}
		return nil
	}

	results, err := d.caller.Basecall(ctx, batch)
	if err != nil {
		return fmt.Errorf("basecall: %w", err)
	}

	results, err = d.aligner.Align(ctx, results)
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}

	cfg := d.cfg.Current()
	var actions []instrument.Action

	for _, r := range results {
		cond := cfg.ConditionFor(r.Channel, r.Barcode)
		n := d.tracker.ChunkCount(r.Channel, r.ReadNumber)
		terminal := d.tracker.TerminalState(r.Channel, r.ReadNumber)

		outcome := decision.Decide(cond, r, n, terminal)
		if outcome.Skip {
			continue
		}
		d.stats.RecordDecision(cond.Name, string(outcome.Decision))

		action, ok := d.tracker.Record(r.Channel, r.ReadNumber, outcome.Action)
		if !ok {
			continue
		}
		actions = append(actions, instrument.Action{Channel: r.Channel, ReadNumber: r.ReadNumber, Action: action})

		if action == model.ActionUnblock || action == model.ActionStopReceiving {
			d.bus.Publish(events.EventReadFinalized, map[string]interface{}{
				"channel":     r.Channel,
				"read_number": r.ReadNumber,
				"action":      string(action),
				"condition":   cond.Name,
			})
		}
	}

	if len(actions) > 0 {
		if err := d.dispatchWithReconnect(ctx, actions); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}

	elapsed := time.Since(start)
	slow := d.stats.RecordBatch(len(batch), elapsed)
	d.bus.Publish(events.EventBatchProcessed, map[string]interface{}{
		"chunk_count": len(batch),
		"elapsed_ms":  elapsed.Milliseconds(),
	})
	if slow {
		d.log.Warn("slow batch: %d chunks took %s", len(batch), elapsed)
		d.bus.Publish(events.EventSlowBatch, map[string]interface{}{
			"chunk_count": len(batch),
			"elapsed_ms":  elapsed.Milliseconds(),
		})
	}

	return nil
}

// dispatchWithReconnect sends actions to the instrument, attempting one
// bounded reconnect if the first attempt reports a lost transport (spec
// §7: "the driver attempts a bounded reconnect before giving up").
func (d *Driver) dispatchWithReconnect(ctx context.Context, actions []instrument.Action) error {
	_, err := d.instrument.Dispatch(ctx, actions)
	if err == nil {
		return nil
	}

	var lost *rferr.TransportLost
	if !errors.As(err, &lost) {
		return err
	}

	reconnector, ok := d.instrument.(interface{ Reconnect(context.Context) error })
	if !ok {
		return err
	}

	d.log.Warn("dispatch lost transport, attempting bounded reconnect: %v", err)
	if rerr := reconnector.Reconnect(ctx); rerr != nil {
		return err
	}
	_, err = d.instrument.Dispatch(ctx, actions)
	return err
}

func (d *Driver) shutdown() {
	remaining := d.cache.Drain()
	if len(remaining) > 0 {
		d.log.Warn("shutdown: dropping %d pending chunk(s) still in cache", len(remaining))
	}

	if err := d.caller.Disconnect(); err != nil {
		d.log.Error("caller disconnect: %v", err)
	}
	if err := d.aligner.Disconnect(); err != nil {
		d.log.Error("aligner disconnect: %v", err)
	}

	snap := d.stats.Snapshot()
	d.log.Info("final stats: batches=%d slow=%d chunks=%d mean_batch=%s",
		snap.Batches, snap.SlowBatches, snap.TotalChunks, snap.MeanBatchTime)
}
