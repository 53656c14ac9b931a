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

// Package batchwriter aggregates independently submitted single-row
// writes into bounded multi-row BatchWriteRow calls.
//
// An aggregator loop pops waiting items into batches and dispatches them
// through a shared client, up to an adaptive concurrency ceiling. When
// the store throttles, the ceiling stops growing and the aggregator's
// nap doubles, up to a cap; once the pressure passes, the nap shrinks
// linearly and concurrency grows again. Row-level results are
// demultiplexed back to each submitter's callback, which fires exactly
// once per submitted item, even across retries and shutdown.
package batchwriter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.chromium.org/luci/common/clock"
	"go.chromium.org/luci/common/logging"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/executor"
)

const (
	opPut = iota
	opUpdate
	opDelete
)

// item is one waiting single-row write: its kind, the row change, and
// the completion that reaches the submitter's callback.
type item struct {
	op     int
	put    ots.RowPutChange
	update ots.RowUpdateChange
	del    ots.RowDeleteChange

	// slot is where the item landed in the most recent outgoing batch.
	slot int

	// done receives the terminal per-row outcome. It runs on a pool
	// executor.
	done func(res ots.BatchWriteRowResult, requestID, traceID string, err error)
}

// AsyncWriter is the non-blocking batch writer.
type AsyncWriter struct {
	ctx    context.Context
	client ots.AsyncClient
	cfg    Config
	pool   *executor.Pool

	mu      sync.Mutex
	waiting []*item
	// drained flips once the shutdown drain saw an empty waiting list;
	// from then on enqueue must reject, or an item could slip in after
	// the final flush and never get its callback.
	drained bool

	wake chan struct{}
	exit atomic.Bool

	inFlight      atomic.Int64
	inFlightWG    sync.WaitGroup
	shouldBackoff atomic.Bool

	aggDone chan struct{}
}

// NewAsync starts a batch writer over client. ctx provides the clock and
// logger for the aggregator; callbacks run on cfg.Executors when set,
// else on the client's pool.
func NewAsync(ctx context.Context, client ots.AsyncClient, cfg Config) (*AsyncWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool := cfg.Executors
	if pool == nil {
		pool = client.Executors()
	}
	w := &AsyncWriter{
		ctx:     ctx,
		client:  client,
		cfg:     cfg,
		pool:    pool,
		wake:    make(chan struct{}, 1),
		aggDone: make(chan struct{}),
	}
	go w.aggregator()
	return w, nil
}

// Close flushes the waiting list ignoring the concurrency cap, waits for
// every in-flight batch to settle, and stops the aggregator. Items that
// still fail during shutdown complete with their error; every item gets
// its one callback.
func (w *AsyncWriter) Close(ctx context.Context) {
	if !w.exit.Swap(true) {
		w.signal()
	}
	<-w.aggDone
}

// PutRow enqueues one whole-row write. It returns immediately; cb fires
// later, exactly once.
func (w *AsyncWriter) PutRow(req *ots.PutRowRequest, cb ots.Callback[*ots.PutRowRequest, *ots.PutRowResponse]) {
	resp := &ots.PutRowResponse{}
	w.enqueue(req.Validate, &item{
		op:  opPut,
		put: req.Change,
		done: func(res ots.BatchWriteRowResult, requestID, traceID string, err error) {
			if err == nil {
				resp.ResponseInfo = ots.ResponseInfo{RequestID: requestID, TraceID: traceID}
				resp.ConsumedCapacity = res.ConsumedCapacity
				resp.Row = res.Row
			}
			cb(req, resp, err)
		},
	}, func(err error) { cb(req, resp, err) })
}

// UpdateRow enqueues one cell-level update.
func (w *AsyncWriter) UpdateRow(req *ots.UpdateRowRequest, cb ots.Callback[*ots.UpdateRowRequest, *ots.UpdateRowResponse]) {
	resp := &ots.UpdateRowResponse{}
	w.enqueue(req.Validate, &item{
		op:     opUpdate,
		update: req.Change,
		done: func(res ots.BatchWriteRowResult, requestID, traceID string, err error) {
			if err == nil {
				resp.ResponseInfo = ots.ResponseInfo{RequestID: requestID, TraceID: traceID}
				resp.ConsumedCapacity = res.ConsumedCapacity
				resp.Row = res.Row
			}
			cb(req, resp, err)
		},
	}, func(err error) { cb(req, resp, err) })
}

// DeleteRow enqueues one whole-row delete.
func (w *AsyncWriter) DeleteRow(req *ots.DeleteRowRequest, cb ots.Callback[*ots.DeleteRowRequest, *ots.DeleteRowResponse]) {
	resp := &ots.DeleteRowResponse{}
	w.enqueue(req.Validate, &item{
		op:  opDelete,
		del: req.Change,
		done: func(res ots.BatchWriteRowResult, requestID, traceID string, err error) {
			if err == nil {
				resp.ResponseInfo = ots.ResponseInfo{RequestID: requestID, TraceID: traceID}
				resp.ConsumedCapacity = res.ConsumedCapacity
				resp.Row = res.Row
			}
			cb(req, resp, err)
		},
	}, func(err error) { cb(req, resp, err) })
}

// enqueue validates, appends the item to the waiting list and nudges the
// aggregator. Failures complete through fail on a pool executor so the
// callback contract holds even for rejected items.
func (w *AsyncWriter) enqueue(validate func() error, it *item, fail func(err error)) {
	if w.exit.Load() {
		w.post(func() {
			fail(&ots.Error{
				Code:    ots.ErrCodeClientUnknownError,
				Message: "batch writer is closed",
			})
		})
		return
	}
	if err := validate(); err != nil {
		w.post(func() { fail(err) })
		return
	}
	w.mu.Lock()
	if w.drained {
		w.mu.Unlock()
		w.post(func() {
			fail(&ots.Error{
				Code:    ots.ErrCodeClientUnknownError,
				Message: "batch writer is closed",
			})
		})
		return
	}
	w.waiting = append(w.waiting, it)
	w.mu.Unlock()
	w.signal()
}

// post schedules a task on the callback pool, falling back to inline if
// the pool is already drained.
func (w *AsyncWriter) post(task func()) {
	if !w.pool.Post(task) {
		task()
	}
}

// push adds items to the waiting list. Requeued items are prepended in
// their original relative order so retried writes keep their submission
// order.
func (w *AsyncWriter) push(items []*item, prepend bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prepend {
		w.waiting = append(append(make([]*item, 0, len(items)+len(w.waiting)), items...), w.waiting...)
	} else {
		w.waiting = append(w.waiting, items...)
	}
}

// popBatch takes up to MaxBatchSize oldest items.
func (w *AsyncWriter) popBatch() []*item {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.waiting)
	if n == 0 {
		return nil
	}
	if n > w.cfg.MaxBatchSize {
		n = w.cfg.MaxBatchSize
	}
	batch := w.waiting[:n:n]
	w.waiting = w.waiting[n:]
	return batch
}

func (w *AsyncWriter) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// aggregator is the only consumer of the waiting list. It runs until
// Close, then drains.
func (w *AsyncWriter) aggregator() {
	defer close(w.aggDone)
	nap := w.cfg.RegularNap
	permitted := int64(0)
	for !w.exit.Load() {
		w.takeSomeNap(nap)
		nap, permitted = w.nextNapAndConcurrency(permitted, nap)
		w.sendBatches(permitted)
	}

	// Drain: flush everything ignoring the concurrency cap and wait for
	// in-flight batches. Batch completions during shutdown never
	// requeue, so this settles.
	for {
		w.sendBatches(int64(^uint64(0) >> 1))
		w.inFlightWG.Wait()
		w.mu.Lock()
		empty := len(w.waiting) == 0
		if empty {
			w.drained = true
		}
		w.mu.Unlock()
		if empty && w.inFlight.Load() == 0 {
			return
		}
	}
}

// takeSomeNap sleeps for nap, or until nudged.
func (w *AsyncWriter) takeSomeNap(nap time.Duration) {
	t := clock.NewTimer(clock.Tag(w.ctx, "batch-writer-nap"))
	t.Reset(nap)
	defer t.Stop()
	select {
	case <-w.wake:
	case <-t.GetC():
	}
}

// nextNapAndConcurrency recomputes the adaptive pair for one round.
//
// While a backoff was latched since the last round, the ceiling must not
// grow (and drops to the current in-flight count, floored at one) and
// the nap doubles up to MaxNap. Otherwise concurrency may open
// concurrencyIncStep batches beyond what is in flight, and the nap
// shrinks linearly back towards RegularNap.
func (w *AsyncWriter) nextNapAndConcurrency(permitted int64, nap time.Duration) (time.Duration, int64) {
	if w.shouldBackoff.Swap(false) {
		if inFlight := w.inFlight.Load(); permitted > inFlight {
			permitted = inFlight
		}
		if permitted < 1 {
			permitted = 1
		}
		nap *= 2
		if nap > w.cfg.MaxNap {
			nap = w.cfg.MaxNap
		}
		logging.Debugf(w.ctx, "batch writer backing off: nap=%s permitted=%d", nap, permitted)
		return nap, permitted
	}
	permitted = w.inFlight.Load() + concurrencyIncStep
	if m := int64(w.cfg.MaxConcurrency); permitted > m {
		permitted = m
	}
	nap -= w.cfg.NapShrinkStep
	if nap < w.cfg.RegularNap {
		nap = w.cfg.RegularNap
	}
	return nap, permitted
}

// sendBatches dispatches waiting items while capacity remains.
func (w *AsyncWriter) sendBatches(permitted int64) {
	for w.inFlight.Load() < permitted {
		batch := w.popBatch()
		if len(batch) == 0 {
			return
		}
		w.dispatch(batch)
	}
}

// dispatch builds one BatchWriteRowRequest out of the popped items and
// issues it asynchronously.
func (w *AsyncWriter) dispatch(batch []*item) {
	req := &ots.BatchWriteRowRequest{}
	for _, it := range batch {
		switch it.op {
		case opPut:
			it.slot = len(req.Puts)
			req.Puts = append(req.Puts, it.put)
		case opUpdate:
			it.slot = len(req.Updates)
			req.Updates = append(req.Updates, it.update)
		case opDelete:
			it.slot = len(req.Deletes)
			req.Deletes = append(req.Deletes, it.del)
		}
	}
	w.inFlight.Add(1)
	w.inFlightWG.Add(1)
	w.client.BatchWriteRow(w.ctx, req,
		func(_ *ots.BatchWriteRowRequest, resp *ots.BatchWriteRowResponse, err error) {
			w.onBatchDone(batch, resp, err)
		})
}

// onBatchDone demultiplexes one settled batch. It runs on a client pool
// executor and never holds the waiting-list lock across user code.
func (w *AsyncWriter) onBatchDone(batch []*item, resp *ots.BatchWriteRowResponse, err error) {
	defer func() {
		w.inFlight.Add(-1)
		w.inFlightWG.Done()
		w.signal()
	}()

	if err != nil {
		if !w.exit.Load() && ots.ShouldRetry(ots.ActionBatchWriteRow, err) {
			w.shouldBackoff.Store(true)
			w.push(batch, true)
			return
		}
		for _, it := range batch {
			it := it
			w.post(func() { it.done(ots.BatchWriteRowResult{}, "", "", err) })
		}
		return
	}

	var requeue []*item
	for _, it := range batch {
		var res ots.BatchWriteRowResult
		switch it.op {
		case opPut:
			res = resp.PutResults[it.slot]
		case opUpdate:
			res = resp.UpdateResults[it.slot]
		case opDelete:
			res = resp.DeleteResults[it.slot]
		}
		if res.Error != nil && !w.exit.Load() &&
			ots.ShouldRetry(ots.ActionBatchWriteRow, res.Error) {
			w.shouldBackoff.Store(true)
			requeue = append(requeue, it)
			continue
		}
		it := it
		w.post(func() {
			if res.Error != nil {
				e := *res.Error
				if e.RequestID == "" {
					e.RequestID = resp.RequestID
				}
				if e.TraceID == "" {
					e.TraceID = resp.TraceID
				}
				it.done(ots.BatchWriteRowResult{}, "", "", &e)
				return
			}
			it.done(res, resp.RequestID, resp.TraceID, nil)
		})
	}
	if len(requeue) > 0 {
		w.push(requeue, true)
	}
}
