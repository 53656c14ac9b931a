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

package client

import (
	"context"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/executor"
)

// syncClient blocks each call on a fresh one-shot signal the async
// callback posts into. There is no polling; the wait is settled only by
// the callback.
type syncClient struct {
	async *asyncClient
}

func (c *syncClient) Executors() *executor.Pool { return c.async.Executors() }

func (c *syncClient) Close(ctx context.Context) { c.async.Close(ctx) }

// await adapts one async call: it hands the caller a callback plus the
// channel to block on.
func await[Req, Resp any](
	issue func(cb ots.Callback[Req, Resp]),
) (Resp, error) {
	type outcome struct {
		resp Resp
		err  error
	}
	ch := make(chan outcome, 1)
	issue(func(_ Req, resp Resp, err error) {
		ch <- outcome{resp, err}
	})
	out := <-ch
	return out.resp, out.err
}

func (c *syncClient) CreateTable(ctx context.Context, req *ots.CreateTableRequest) (*ots.CreateTableResponse, error) {
	return await(func(cb ots.Callback[*ots.CreateTableRequest, *ots.CreateTableResponse]) {
		c.async.CreateTable(ctx, req, cb)
	})
}

func (c *syncClient) ListTable(ctx context.Context, req *ots.ListTableRequest) (*ots.ListTableResponse, error) {
	return await(func(cb ots.Callback[*ots.ListTableRequest, *ots.ListTableResponse]) {
		c.async.ListTable(ctx, req, cb)
	})
}

func (c *syncClient) DescribeTable(ctx context.Context, req *ots.DescribeTableRequest) (*ots.DescribeTableResponse, error) {
	return await(func(cb ots.Callback[*ots.DescribeTableRequest, *ots.DescribeTableResponse]) {
		c.async.DescribeTable(ctx, req, cb)
	})
}

func (c *syncClient) DeleteTable(ctx context.Context, req *ots.DeleteTableRequest) (*ots.DeleteTableResponse, error) {
	return await(func(cb ots.Callback[*ots.DeleteTableRequest, *ots.DeleteTableResponse]) {
		c.async.DeleteTable(ctx, req, cb)
	})
}

func (c *syncClient) UpdateTable(ctx context.Context, req *ots.UpdateTableRequest) (*ots.UpdateTableResponse, error) {
	return await(func(cb ots.Callback[*ots.UpdateTableRequest, *ots.UpdateTableResponse]) {
		c.async.UpdateTable(ctx, req, cb)
	})
}

func (c *syncClient) GetRow(ctx context.Context, req *ots.GetRowRequest) (*ots.GetRowResponse, error) {
	return await(func(cb ots.Callback[*ots.GetRowRequest, *ots.GetRowResponse]) {
		c.async.GetRow(ctx, req, cb)
	})
}

func (c *syncClient) PutRow(ctx context.Context, req *ots.PutRowRequest) (*ots.PutRowResponse, error) {
	return await(func(cb ots.Callback[*ots.PutRowRequest, *ots.PutRowResponse]) {
		c.async.PutRow(ctx, req, cb)
	})
}

func (c *syncClient) UpdateRow(ctx context.Context, req *ots.UpdateRowRequest) (*ots.UpdateRowResponse, error) {
	return await(func(cb ots.Callback[*ots.UpdateRowRequest, *ots.UpdateRowResponse]) {
		c.async.UpdateRow(ctx, req, cb)
	})
}

func (c *syncClient) DeleteRow(ctx context.Context, req *ots.DeleteRowRequest) (*ots.DeleteRowResponse, error) {
	return await(func(cb ots.Callback[*ots.DeleteRowRequest, *ots.DeleteRowResponse]) {
		c.async.DeleteRow(ctx, req, cb)
	})
}

func (c *syncClient) BatchGetRow(ctx context.Context, req *ots.BatchGetRowRequest) (*ots.BatchGetRowResponse, error) {
	return await(func(cb ots.Callback[*ots.BatchGetRowRequest, *ots.BatchGetRowResponse]) {
		c.async.BatchGetRow(ctx, req, cb)
	})
}

func (c *syncClient) BatchWriteRow(ctx context.Context, req *ots.BatchWriteRowRequest) (*ots.BatchWriteRowResponse, error) {
	return await(func(cb ots.Callback[*ots.BatchWriteRowRequest, *ots.BatchWriteRowResponse]) {
		c.async.BatchWriteRow(ctx, req, cb)
	})
}

func (c *syncClient) GetRange(ctx context.Context, req *ots.GetRangeRequest) (*ots.GetRangeResponse, error) {
	return await(func(cb ots.Callback[*ots.GetRangeRequest, *ots.GetRangeResponse]) {
		c.async.GetRange(ctx, req, cb)
	})
}

func (c *syncClient) ComputeSplitsBySize(ctx context.Context, req *ots.ComputeSplitsBySizeRequest) (*ots.ComputeSplitsBySizeResponse, error) {
	return await(func(cb ots.Callback[*ots.ComputeSplitsBySizeRequest, *ots.ComputeSplitsBySizeResponse]) {
		c.async.ComputeSplitsBySize(ctx, req, cb)
	})
}
