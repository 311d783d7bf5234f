package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/looselab/readfish-go/internal/aligner"
	"github.com/looselab/readfish-go/internal/caller"
	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/config"
	"github.com/looselab/readfish-go/internal/events"
	"github.com/looselab/readfish-go/internal/instrument"
	"github.com/looselab/readfish-go/internal/lock"
	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/pipeline"
	"github.com/looselab/readfish-go/internal/rflog"
	"github.com/looselab/readfish-go/internal/rfutil"
	"github.com/looselab/readfish-go/internal/statistics"
	"github.com/looselab/readfish-go/internal/tracker"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "targets":
		runTargets(os.Args[2:])
	case "unblock-all":
		runUnblockAll(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "version":
		fmt.Printf("readfish %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// deviceLockPath derives a lock-file path from the instrument device id, so
// a second `targets` or `unblock-all` invocation against the same device
// fails fast instead of racing the first process's reader and dispatcher.
func deviceLockPath(device string) string {
	sanitized := strings.NewReplacer(":", "_", "/", "_").Replace(device)
	return filepath.Join(os.TempDir(), "readfish-"+sanitized+".lock")
}

// targetsFlags holds the common set of flags targets/unblock-all both need.
type targetsFlags struct {
	configPath string
	device     string
	label      string
	logPath    string
	ttl        time.Duration
}

func parseTargetsFlags(args []string, usage string) targetsFlags {
	var f targetsFlags
	f.ttl = 10 * time.Minute

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--config requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			f.configPath = args[i]
		case "--device":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--device requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			f.device = args[i]
		case "--label":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--label requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			f.label = args[i]
		case "--log":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--log requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			f.logPath = args[i]
		case "--read-ttl":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--read-ttl requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			d, err := time.ParseDuration(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "--read-ttl: %v\n", err)
				os.Exit(1)
			}
			f.ttl = d
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n%s\n", args[i], usage)
			os.Exit(1)
		}
	}

	if f.configPath == "" || f.device == "" {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		os.Exit(1)
	}
	return f
}

// runTargets runs the full pipeline against a live run:
// config path and instrument device id are required, label and a JSONL
// decision-audit log are optional.
func runTargets(args []string) {
	const usage = "usage: readfish targets --config <path> --device <host:port> [--label <name>] [--log <path>] [--read-ttl <duration>]"
	f := parseTargetsFlags(args, usage)

	log := rflog.New(os.Stderr, "readfish", rflog.LevelInfo)
	if f.label != "" {
		log = rflog.New(os.Stderr, "readfish."+f.label, rflog.LevelInfo)
	}

	deviceLock := lock.NewFileLock(deviceLockPath(f.device))
	if err := deviceLock.TryLock(); err != nil {
		fmt.Fprintf(os.Stderr, "targets: %v\n", err)
		os.Exit(1)
	}
	defer deviceLock.Unlock()

	handle, err := config.NewHandle(f.configPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "targets: load config: %v\n", err)
		os.Exit(1)
	}
	if err := handle.Watch(); err != nil {
		log.Warn("config hot-reload disabled: %v", err)
	}
	defer handle.Close()

	conf := handle.Current()

	if encoded, err := rfutil.CompressAndEncode(conf.SourceText()); err == nil {
		log.Info("loaded config %s: %s", f.configPath, encoded)
	} else {
		log.Warn("could not archive config text: %v", err)
	}

	channelMapPath := f.configPath + ".channels.yaml"
	if err := conf.WriteChannelMap(channelMapPath); err != nil {
		log.Warn("could not write channel map: %v", err)
	}

	c, err := caller.New(conf.CallerSettings.Name, conf.CallerSettings.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "targets: build caller: %v\n", err)
		os.Exit(1)
	}
	a, err := aligner.New(conf.MapperSettings.Name, conf.MapperSettings.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "targets: build aligner: %v\n", err)
		os.Exit(1)
	}

	readCache := cache.New(conf.Channels)
	trk := tracker.New(f.ttl)
	client := instrument.NewClient(f.device, instrument.WithLogger(log.With("instrument")))
	stats := statistics.New(800 * time.Millisecond)
	bus := events.NewBus(256)

	if f.logPath != "" {
		audit, err := events.NewAuditLogger(f.logPath, events.DefaultMaxLogSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "targets: open audit log: %v\n", err)
			os.Exit(1)
		}
		defer audit.Close()
		bus.Subscribe(events.EventReadFinalized, func(e events.Event) {
			_ = audit.Log(string(events.EventReadFinalized), e.Data)
		})
	}

	driver := pipeline.New(pipeline.Config{
		Handle:     handle,
		Cache:      readCache,
		Caller:     c,
		Aligner:    a,
		Tracker:    trk,
		Instrument: client,
		Stats:      stats,
		Bus:        bus,
		Log:        log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutdown signal received")
		cancel()
	}()

	go func() {
		if err := client.StreamChunks(ctx, readCache); err != nil {
			log.Error("chunk stream ended: %v", err)
			cancel()
		}
	}()

	if f.ttl > 0 {
		go func() {
			ticker := time.NewTicker(f.ttl)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					trk.GC()
				}
			}
		}()
	}

	if err := driver.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "targets: %v\n", err)
		os.Exit(1)
	}
}

// runUnblockAll dispatches unblock for every chunk received, ignoring
// basecalling and alignment entirely — a diagnostic for round-trip
// dispatch latency, not a real sequencing run.
func runUnblockAll(args []string) {
	const usage = "usage: readfish unblock-all --config <path> --device <host:port> [--read-ttl <duration>]"
	f := parseTargetsFlags(args, usage)

	log := rflog.New(os.Stderr, "readfish.unblock-all", rflog.LevelInfo)

	deviceLock := lock.NewFileLock(deviceLockPath(f.device))
	if err := deviceLock.TryLock(); err != nil {
		fmt.Fprintf(os.Stderr, "unblock-all: %v\n", err)
		os.Exit(1)
	}
	defer deviceLock.Unlock()

	conf, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unblock-all: load config: %v\n", err)
		os.Exit(1)
	}

	readCache := cache.New(conf.Channels)
	client := instrument.NewClient(f.device, instrument.WithLogger(log.With("instrument")))

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	go func() {
		if err := client.StreamChunks(ctx, readCache); err != nil {
			log.Error("chunk stream ended: %v", err)
		}
	}()

	throttle := 100 * time.Millisecond
	dispatched := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("unblock-all stopped, dispatched %d action(s)", dispatched)
			return
		default:
		}

		batch := readCache.Drain()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(throttle):
			}
			continue
		}

		actions := make([]instrument.Action, 0, len(batch))
		for _, p := range batch {
			actions = append(actions, instrument.Action{
				Channel:    p.Chunk.Channel,
				ReadNumber: p.Chunk.ReadNumber,
				Action:     model.ActionUnblock,
			})
		}
		if _, err := client.Dispatch(ctx, actions); err != nil {
			log.Error("dispatch: %v", err)
		} else {
			dispatched += len(actions)
		}
	}
}

// runValidate loads and validates a configuration and prints a summary
// With --skip-plugins it never constructs the
// caller/aligner plugins, just the structural/schema checks config.Load
// already performs.
func runValidate(args []string) {
	const usage = "usage: readfish validate --config <path> [--skip-plugins]"
	var configPath string
	var skipPlugins bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--config requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			configPath = args[i]
		case "--skip-plugins":
			skipPlugins = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n%s\n", args[i], usage)
			os.Exit(1)
		}
	}
	if configPath == "" {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		os.Exit(1)
	}

	conf, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}

	if !skipPlugins {
		c, err := caller.New(conf.CallerSettings.Name, conf.CallerSettings.Options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validate: caller: %v\n", err)
			os.Exit(1)
		}
		if err := c.Validate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "validate: caller: %v\n", err)
			os.Exit(1)
		}
		_ = c.Disconnect()

		a, err := aligner.New(conf.MapperSettings.Name, conf.MapperSettings.Options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validate: aligner: %v\n", err)
			os.Exit(1)
		}
		if err := a.Validate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "validate: aligner: %v\n", err)
			os.Exit(1)
		}
		_ = a.Disconnect()
	}

	fmt.Print(conf.Describe())
	fmt.Println("configuration is valid")
}

// runStats renders a summary of a decision-audit JSONL log written by a
// prior `targets` run, tallying its unblock and stop_receiving actions
// per condition.
func runStats(args []string) {
	const usage = "usage: readfish stats --log <path>"
	var logPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--log":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--log requires a value\n%s\n", usage)
				os.Exit(1)
			}
			i++
			logPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n%s\n", args[i], usage)
			os.Exit(1)
		}
	}
	if logPath == "" {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		os.Exit(1)
	}

	total, valid, err := events.VerifyLogIntegrity(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		os.Exit(1)
	}

	byCondition, err := tallyLog(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("log entries: %d (%d verified)\n", total, valid)
	conditions := make([]string, 0, len(byCondition))
	for name := range byCondition {
		conditions = append(conditions, name)
	}
	for _, name := range conditions {
		byAction := byCondition[name]
		fmt.Printf("condition %q: unblock=%d stop_receiving=%d\n",
			name, byAction[string(model.ActionUnblock)], byAction[string(model.ActionStopReceiving)])
	}
}

func tallyLog(path string) (map[string]map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make(map[string]map[string]int)
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		cond, action, ok := parseFinalizedLine(line)
		if !ok {
			continue
		}
		if out[cond] == nil {
			out[cond] = make(map[string]int)
		}
		out[cond][action]++
	}
	return out, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// parseFinalizedLine extracts condition/action from one LogEntry JSON line
// without a full struct decode, since only these two fields feed the
// summary and the audit logger's schema is this package's own concern.
func parseFinalizedLine(line []byte) (condition, action string, ok bool) {
	condition = jsonStringField(line, "\"condition\"")
	action = jsonStringField(line, "\"action\"")
	if condition == "" {
		return "", "", false
	}
	if action == "" {
		action = jsonStringField(line, "\"event_type\"")
	}
	return condition, action, condition != "" && action != ""
}

func jsonStringField(line []byte, key string) string {
	idx := indexOf(line, key)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(key):]
	colon := indexOf(rest, ":")
	if colon < 0 {
		return ""
	}
	rest = rest[colon+1:]
	start := indexOf(rest, "\"")
	if start < 0 {
		return ""
	}
	rest = rest[start+1:]
	end := indexOf(rest, "\"")
	if end < 0 {
		return ""
	}
	return string(rest[:end])
}

func indexOf(data []byte, sub string) int {
	n, m := len(data), len(sub)
	for i := 0; i+m <= n; i++ {
		if string(data[i:i+m]) == sub {
			return i
		}
	}
	return -1
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `readfish %s — adaptive sampling control plane for nanopore sequencing

Usage: readfish <command> [options]

Commands:
  targets --config <path> --device <host:port> [--label <name>] [--log <path>]
      Run the full pipeline against a live run.
  unblock-all --config <path> --device <host:port>
      Dispatch unblock for every chunk received, for latency testing.
  validate --config <path> [--skip-plugins]
      Load and validate a configuration, printing a description.
  stats --log <path>
      Summarize a decision-audit log from a prior targets run.
  version
      Show version.
  help
      Show this help.

`, version)
}
