// Package instrument provides the abstract client the driver's dispatcher
// uses to send actions back to the instrument, plus the bounded-reconnect
// wrapper around it, modeled on the original source's
// _read_until_client.py retry loop.
//
// Negotiating the instrument's own transport is explicitly out of scope;
// this package fixes only the request/response framing already used
// elsewhere in this repo (length-prefixed JSON, mirroring
// internal/uds/client.go's Send) and the reconnect policy around it.
package instrument

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/looselab/readfish-go/internal/model"
	"github.com/looselab/readfish-go/internal/rferr"
	"github.com/looselab/readfish-go/internal/rflog"
)

// Phase is the instrument's advertised run phase. Nothing in this module
// reads it: the driver's main loop runs until its context is cancelled,
// whatever the phase.
type Phase string

const (
	PhaseMuxScan     Phase = "mux_scan"
	PhaseSequencing  Phase = "sequencing"
	PhaseUnknown     Phase = "unknown"
)

// Action is one dispatched decision, addressed to a single read.
type Action struct {
	Channel    int          `json:"channel"`
	ReadNumber int          `json:"read_number"`
	Action     model.Action `json:"action"`
}

type dispatchRequest struct {
	Actions []Action `json:"actions"`
}

type dispatchResponse struct {
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// Client talks to the instrument over a TCP socket using the same length-
// prefixed JSON frame as internal/caller.Real, and wraps every dial in a
// bounded-retry reconnect loop.
type Client struct {
	address    string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	log        *rflog.Logger

	conn net.Conn
}

// Option configures a Client at construction.
type Option func(*Client)

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }
func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }
func WithMaxRetries(n int) Option        { return func(c *Client) { c.maxRetries = n } }
func WithLogger(l *rflog.Logger) Option  { return func(c *Client) { c.log = l } }

// NewClient builds a Client for the given instrument address. Defaults:
// 10s per-attempt timeout, 5 reconnect attempts, 500ms initial backoff
// doubling each attempt.
func NewClient(address string, opts ...Option) *Client {
	c := &Client{
		address:    address,
		timeout:    10 * time.Second,
		maxRetries: 5,
		backoff:    500 * time.Millisecond,
		log:        rflog.New(logDiscard{}, "instrument", rflog.LevelError),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

// Connect dials the instrument once, bounded by the client's timeout. It
// does not retry; callers that want retry semantics use Reconnect.
func (c *Client) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return &rferr.TransportLost{Remote: c.address, Err: err}
	}
	c.conn = conn
	return nil
}

// Reconnect retries Connect up to maxRetries times with exponential
// backoff, giving up and returning the last error as TransportLost if
// every attempt fails.
func (c *Client) Reconnect(ctx context.Context) error {
	wait := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.Connect(ctx); err == nil {
			c.log.Info("reconnected to %s on attempt %d", c.address, attempt)
			return nil
		} else {
			lastErr = err
		}
		c.log.Warn("reconnect attempt %d/%d to %s failed: %v", attempt, c.maxRetries, c.address, lastErr)

		select {
		case <-ctx.Done():
			return &rferr.TransportLost{Remote: c.address, Err: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
	}
	return &rferr.TransportLost{Remote: c.address, Err: fmt.Errorf("exhausted %d reconnect attempts: %w", c.maxRetries, lastErr)}
}

// Dispatch sends the batch of actions to the instrument and returns the
// number accepted. A transport failure here is TransportLost; the driver
// decides whether to call Reconnect or shut down.
func (c *Client) Dispatch(ctx context.Context, actions []Action) (int, error) {
	if len(actions) == 0 {
		return 0, nil
	}
	if c.conn == nil {
		if err := c.Connect(ctx); err != nil {
			return 0, err
		}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	_ = c.conn.SetDeadline(deadline)

	if err := writeFrame(c.conn, dispatchRequest{Actions: actions}); err != nil {
		c.closeConn()
		return 0, &rferr.TransportLost{Remote: c.address, Err: err}
	}
	var resp dispatchResponse
	if err := readFrame(c.conn, &resp); err != nil {
		c.closeConn()
		return 0, &rferr.TransportLost{Remote: c.address, Err: err}
	}
	if resp.Error != "" {
		return resp.Accepted, fmt.Errorf("instrument rejected dispatch: %s", resp.Error)
	}
	return resp.Accepted, nil
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
