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

package batchwriter

import (
	"context"

	"go.tablestore.dev/ots"
)

// SyncWriter is the blocking facade over an AsyncWriter. Each call
// enqueues and then blocks on a one-shot signal its callback posts into.
type SyncWriter struct {
	async *AsyncWriter
}

// NewSync starts a batch writer and wraps it in the blocking facade.
func NewSync(ctx context.Context, client ots.AsyncClient, cfg Config) (*SyncWriter, error) {
	aw, err := NewAsync(ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	return &SyncWriter{async: aw}, nil
}

// Async exposes the wrapped writer.
func (w *SyncWriter) Async() *AsyncWriter { return w.async }

// Close flushes and stops the wrapped writer.
func (w *SyncWriter) Close(ctx context.Context) { w.async.Close(ctx) }

func (w *SyncWriter) PutRow(req *ots.PutRowRequest) (*ots.PutRowResponse, error) {
	type outcome struct {
		resp *ots.PutRowResponse
		err  error
	}
	ch := make(chan outcome, 1)
	w.async.PutRow(req, func(_ *ots.PutRowRequest, resp *ots.PutRowResponse, err error) {
		ch <- outcome{resp, err}
	})
	out := <-ch
	return out.resp, out.err
}

func (w *SyncWriter) UpdateRow(req *ots.UpdateRowRequest) (*ots.UpdateRowResponse, error) {
	type outcome struct {
		resp *ots.UpdateRowResponse
		err  error
	}
	ch := make(chan outcome, 1)
	w.async.UpdateRow(req, func(_ *ots.UpdateRowRequest, resp *ots.UpdateRowResponse, err error) {
		ch <- outcome{resp, err}
	})
	out := <-ch
	return out.resp, out.err
}

func (w *SyncWriter) DeleteRow(req *ots.DeleteRowRequest) (*ots.DeleteRowResponse, error) {
	type outcome struct {
		resp *ots.DeleteRowResponse
		err  error
	}
	ch := make(chan outcome, 1)
	w.async.DeleteRow(req, func(_ *ots.DeleteRowRequest, resp *ots.DeleteRowResponse, err error) {
		ch <- outcome{resp, err}
	})
	out := <-ch
	return out.resp, out.err
}
