// Copyright 2024 The TableStore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline runs the per-call state machine shared by the sync
// and async facades: validate, encode, sign, send, decode, classify,
// then retry or complete.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.chromium.org/luci/common/clock"
	"go.chromium.org/luci/common/logging"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/executor"
	"go.tablestore.dev/ots/internal/signer"
	"go.tablestore.dev/ots/internal/transport"
	"go.tablestore.dev/ots/protocol"
)

// Core is the shared inner client. Facades are thin handles over one
// reference-shared Core; it owns the executor pool (unless one was
// supplied), the retry template, the signer and the transport.
type Core struct {
	endpoint transport.Endpoint
	signer   *signer.Signer
	tr       transport.Transport
	retry    ots.RetryStrategy
	pool     *executor.Pool
	ownPool  bool

	requestTimeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	closed  bool
	pending int
}

// NewCore validates the configuration, parses the endpoint and wires
// the default transport.
func NewCore(ep ots.Endpoint, cred ots.Credential, opts ots.ClientOptions) (*Core, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	parsed, err := transport.ParseEndpoint(ep.Address)
	if err != nil {
		return nil, err
	}
	c := &Core{
		endpoint: parsed,
		signer:   signer.New(cred, ep.InstanceName),
		tr:       transport.NewHTTP(parsed, opts.MaxConnections, opts.ConnectTimeout),
		retry:    opts.RetryStrategy,
		pool:     opts.Executors,

		requestTimeout: opts.RequestTimeout,
	}
	if c.pool == nil {
		c.pool = executor.NewPool(ots.DefaultExecutors)
		c.ownPool = true
	}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

// begin registers one in-flight call, unless the core is closed.
func (c *Core) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.pending++
	return true
}

func (c *Core) end() {
	c.mu.Lock()
	c.pending--
	if c.pending == 0 {
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// SetTransport swaps the transport. Tests plug fakes in through it.
func (c *Core) SetTransport(tr transport.Transport) { c.tr = tr }

// Pool is the executor pool completions run on.
func (c *Core) Pool() *executor.Pool { return c.pool }

// Close rejects new calls, waits for in-flight calls to complete and, if
// the Core owns its pool, drains it.
func (c *Core) Close(ctx context.Context) {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	for c.pending > 0 {
		c.cond.Wait()
	}
	c.mu.Unlock()
	if alreadyClosed {
		return
	}
	if c.ownPool {
		c.pool.Close()
	}
}

// Call is one type-erased logical call. The facade closes Marshal,
// Unmarshal and Done over its concrete request and response types.
type Call struct {
	Action ots.Action
	// Validate runs before anything else; a failure completes the call
	// without touching the network.
	Validate func() error
	// Marshal serializes the request. It runs once per attempt.
	Marshal func() ([]byte, error)
	// Unmarshal decodes a success body into the response.
	Unmarshal func(body []byte) error
	// SetInfo stamps the response with the attempt's request id and the
	// call's trace id.
	SetInfo func(requestID, traceID string)
	// Done receives the terminal outcome, exactly once, on a pool
	// executor.
	Done func(err error)
}

// Issue starts the state machine. It returns after validation; the rest
// of the call proceeds on its own goroutine and completes through
// call.Done.
func (c *Core) Issue(ctx context.Context, call *Call) {
	tracker := ots.NewTracker(ctx)
	if err := call.Validate(); err != nil {
		c.complete(call, c.stamp(err, "", tracker))
		return
	}
	if !c.begin() {
		c.complete(call, &ots.Error{
			Code:    ots.ErrCodeClientUnknownError,
			Message: "client is closed",
			TraceID: tracker.TraceID(),
		})
		return
	}
	go func() {
		defer c.end()
		c.run(ctx, call, tracker)
	}()
}

func (c *Core) run(ctx context.Context, call *Call, tracker ots.Tracker) {
	strategy := c.retry.Clone()
	for {
		err := c.attempt(ctx, call, tracker)
		if err == nil {
			c.complete(call, nil)
			return
		}
		if !strategy.ShouldRetry(call.Action, err) {
			c.complete(call, err)
			return
		}
		pause := strategy.NextPause(ctx)
		if pause == ots.StopRetry {
			logging.Debugf(ctx, "[%s] %s: retry deadline exhausted after %d retries",
				tracker, call.Action, strategy.Retries())
			c.complete(call, err)
			return
		}
		logging.Debugf(ctx, "[%s] %s: retry %d in %s after %s",
			tracker, call.Action, strategy.Retries(), pause, err)
		if tr := clock.Sleep(clock.Tag(ctx, "retry-pause"), pause); tr.Err != nil {
			c.complete(call, err)
			return
		}
	}
}

// attempt performs encode, sign, send and decode for one try.
func (c *Core) attempt(ctx context.Context, call *Call, tracker ots.Tracker) error {
	body, err := call.Marshal()
	if err != nil {
		return c.stamp(err, "", tracker)
	}
	path := call.Action.Path()
	headers := c.signer.Headers(ctx, path, body, tracker.TraceID())

	resp, err := c.tr.Send(ctx, &transport.Request{
		Path:           path,
		Body:           body,
		Headers:        headers,
		RequestTimeout: c.requestTimeout,
	})
	if err != nil {
		return c.stamp(err, "", tracker)
	}

	requestID := resp.Headers[signer.HeaderRequestID]
	if resp.Status != 200 {
		code, message, ok := protocol.UnmarshalError(resp.Body)
		if !ok {
			return &ots.Error{
				Code:       ots.ErrCodeCorruptedResponse,
				HTTPStatus: resp.Status,
				Message:    "unrecognized error envelope",
				RequestID:  requestID,
				TraceID:    tracker.TraceID(),
			}
		}
		return &ots.Error{
			Code:       code,
			HTTPStatus: resp.Status,
			Message:    message,
			RequestID:  requestID,
			TraceID:    tracker.TraceID(),
		}
	}
	if err := call.Unmarshal(resp.Body); err != nil {
		return c.stamp(err, requestID, tracker)
	}
	call.SetInfo(requestID, tracker.TraceID())
	return nil
}

// stamp fills in the trace id (and request id, when known) on a domain
// error, wrapping foreign errors first.
func (c *Core) stamp(err error, requestID string, tracker ots.Tracker) error {
	var e *ots.Error
	if !errors.As(err, &e) {
		e = &ots.Error{Code: ots.ErrCodeClientUnknownError, Message: err.Error()}
	}
	if e.RequestID == "" {
		e.RequestID = requestID
	}
	if e.TraceID == "" {
		e.TraceID = tracker.TraceID()
	}
	return e
}

// complete posts the terminal callback onto the pool. If the pool is
// already drained the callback runs on the caller; it still runs exactly
// once.
func (c *Core) complete(call *Call, err error) {
	if !c.pool.Post(func() { call.Done(err) }) {
		call.Done(err)
	}
}
