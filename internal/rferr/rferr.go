// Package rferr holds the error taxonomy shared across plugin
// construction, transport, and decision handling, distinct
// from internal/config's ConfigInvalid which is purely static/startup.
package rferr

import "fmt"

// PluginInitFailed wraps a Caller or Aligner construction/validation
// failure: basecaller unreachable, socket permissions, missing reference
// file. Always fatal at startup.
type PluginInitFailed struct {
	Plugin string
	Err    error
}

func (e *PluginInitFailed) Error() string {
	return fmt.Sprintf("plugin %q failed to initialize: %v", e.Plugin, e.Err)
}

func (e *PluginInitFailed) Unwrap() error { return e.Err }

// TransportLost reports an instrument or caller stream closing
// unexpectedly. The driver attempts a bounded reconnect before treating
// this as fatal.
type TransportLost struct {
	Remote string
	Err    error
}

func (e *TransportLost) Error() string {
	return fmt.Sprintf("transport to %s lost: %v", e.Remote, e.Err)
}

func (e *TransportLost) Unwrap() error { return e.Err }

// DecisionError describes a malformed alignment record (e.g. empty contig).
// Nothing in this module returns it: the decision engine classifies an
// alignment with an empty contig like any other, so it counts as an
// off-target hit rather than no_map, and no warning is logged.
type DecisionError struct {
	Channel    int
	ReadNumber int
	Reason     string
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("decision error channel=%d read=%d: %s", e.Channel, e.ReadNumber, e.Reason)
}
