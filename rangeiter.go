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

package ots

import (
	"context"
)

// serverPageCap is the largest per-page limit a GetRange accepts.
const serverPageCap = 5000

// RangeIterator is a lazy sequence of rows over paged GetRange calls.
//
//	it := ots.NewRangeIterator(client, criterion)
//	for {
//		if err := it.MoveNext(ctx); err != nil { ... }
//		if !it.Valid() {
//			break
//		}
//		row := it.Get()
//	}
//
// It never returns duplicate rows across pages, stops when the server
// reports no continuation or the criterion's limit is reached, and keeps
// a running total of consumed capacity. A failed MoveNext leaves the
// iterator invalid but still queryable, so the caller can inspect what
// had been consumed and where to resume.
type RangeIterator struct {
	client    RangeGetter
	criterion RangeQueryCriterion

	buffer    []Row
	current   Row
	valid     bool
	cursor    PrimaryKey
	remaining Optional[int64]
	consumed  CapacityUnit
	nextStart Optional[PrimaryKey]
	fetched   bool
	exhausted bool
}

// NewRangeIterator starts an iterator at the criterion's inclusive start.
// The criterion must already be valid; MoveNext surfaces validation
// errors from the underlying GetRange otherwise.
func NewRangeIterator(client RangeGetter, cr RangeQueryCriterion) *RangeIterator {
	it := &RangeIterator{
		client:    client,
		criterion: cr,
		cursor:    cr.InclusiveStart,
	}
	if lim, ok := cr.Limit.Get(); ok {
		it.remaining.Set(lim)
	}
	return it
}

// MoveNext advances to the next row, fetching pages as needed. After a
// successful MoveNext, Valid reports whether a row is positioned.
func (it *RangeIterator) MoveNext(ctx context.Context) error {
	for {
		if len(it.buffer) > 0 {
			it.current = it.buffer[0]
			it.buffer = it.buffer[1:]
			it.valid = true
			return nil
		}
		if it.exhausted {
			it.valid = false
			return nil
		}
		if rem, ok := it.remaining.Get(); ok && rem <= 0 {
			it.valid = false
			return nil
		}
		if it.fetched {
			if _, ok := it.nextStart.Get(); !ok {
				it.exhausted = true
				it.valid = false
				return nil
			}
		}

		req := &GetRangeRequest{Criterion: it.criterion}
		req.Criterion.InclusiveStart = it.cursor
		pageLimit := int64(serverPageCap)
		if rem, ok := it.remaining.Get(); ok && rem < pageLimit {
			pageLimit = rem
		}
		req.Criterion.Limit = Value(pageLimit)

		resp, err := it.client.GetRange(ctx, req)
		if err != nil {
			it.valid = false
			return err
		}
		it.fetched = true
		it.consumed.Add(resp.ConsumedCapacity)
		it.buffer = resp.Rows
		if rem, ok := it.remaining.Get(); ok {
			it.remaining.Set(rem - int64(len(resp.Rows)))
		}
		it.nextStart = resp.NextStart
		if ns, ok := resp.NextStart.Get(); ok {
			it.cursor = ns
		}
	}
}

// Valid reports whether the last MoveNext positioned a row.
func (it *RangeIterator) Valid() bool { return it.valid }

// Get returns the current row. Valid must be true.
func (it *RangeIterator) Get() *Row {
	if !it.valid {
		panic("Get on an invalid RangeIterator")
	}
	return &it.current
}

// ConsumedCapacity is the capacity consumed by all pages fetched so far.
func (it *RangeIterator) ConsumedCapacity() CapacityUnit { return it.consumed }

// NextStart returns the resume point the server last reported, if any.
func (it *RangeIterator) NextStart() (PrimaryKey, bool) {
	return it.nextStart.Get()
}
