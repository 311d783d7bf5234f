// Package caller defines the Caller plugin contract and the built-in
// implementations (real, no_op) behind a name->constructor registry (spec
// §4.5, §9 "Plugin polymorphism").
package caller

import (
	"context"
	"fmt"

	"github.com/looselab/readfish-go/internal/cache"
	"github.com/looselab/readfish-go/internal/model"
)

// Caller turns drained chunks into basecalled Results. basecall failing on
// a single chunk is reported as a Result with an empty sequence and
// BasecallError set; a transport-level failure returns an error, which the
// driver returns from Run without a reconnect attempt.
type Caller interface {
	Basecall(ctx context.Context, batch []cache.Pending) ([]model.Result, error)
	Validate(ctx context.Context) error
	Describe() string
	Disconnect() error
}

// Constructor builds a Caller from its plugin options, already schema
// validated by internal/config for built-in names.
type Constructor func(options map[string]any) (Caller, error)

var registry = map[string]Constructor{
	"real":  newReal,
	"no_op": newNoOp,
}

// Register adds or overrides a named constructor. The CLI does not call it.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// New constructs the named Caller from the built-ins and any names added
// with Register. Any other name is an error; no module-path loading is
// done.
func New(name string, options map[string]any) (Caller, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("caller: no built-in or registered plugin named %q", name)
	}
	return ctor(options)
}
