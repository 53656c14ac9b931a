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

	"go.tablestore.dev/ots/executor"
)

// SyncClient is the blocking facade. Each method issues the call, waits
// for all retries to settle and returns the final outcome.
//
// A SyncClient derived with client.Sync from an AsyncClient (or an
// AsyncClient derived with client.Async from a SyncClient) shares that
// client's underlying core. client.New and client.NewAsync each build a
// separate core, even for the same endpoint and credential; see package
// client.
type SyncClient interface {
	CreateTable(ctx context.Context, req *CreateTableRequest) (*CreateTableResponse, error)
	ListTable(ctx context.Context, req *ListTableRequest) (*ListTableResponse, error)
	DescribeTable(ctx context.Context, req *DescribeTableRequest) (*DescribeTableResponse, error)
	DeleteTable(ctx context.Context, req *DeleteTableRequest) (*DeleteTableResponse, error)
	UpdateTable(ctx context.Context, req *UpdateTableRequest) (*UpdateTableResponse, error)
	GetRow(ctx context.Context, req *GetRowRequest) (*GetRowResponse, error)
	PutRow(ctx context.Context, req *PutRowRequest) (*PutRowResponse, error)
	UpdateRow(ctx context.Context, req *UpdateRowRequest) (*UpdateRowResponse, error)
	DeleteRow(ctx context.Context, req *DeleteRowRequest) (*DeleteRowResponse, error)
	BatchGetRow(ctx context.Context, req *BatchGetRowRequest) (*BatchGetRowResponse, error)
	BatchWriteRow(ctx context.Context, req *BatchWriteRowRequest) (*BatchWriteRowResponse, error)
	GetRange(ctx context.Context, req *GetRangeRequest) (*GetRangeResponse, error)
	ComputeSplitsBySize(ctx context.Context, req *ComputeSplitsBySizeRequest) (*ComputeSplitsBySizeResponse, error)

	// Executors is the pool user callbacks and completions run on.
	Executors() *executor.Pool
	// Close drains pending work and rejects new calls. It is safe to call
	// more than once.
	Close(ctx context.Context)
}

// Callback receives the outcome of an asynchronous call: the original
// request, the response (in its reset state when err is non-nil) and the
// final error after all retries. It runs exactly once, on an executor
// from the client's pool, never on a transport goroutine.
type Callback[Req, Resp any] func(req Req, resp Resp, err error)

// AsyncClient is the non-blocking facade. Each method validates, then
// returns immediately; the callback fires later.
type AsyncClient interface {
	CreateTable(ctx context.Context, req *CreateTableRequest, cb Callback[*CreateTableRequest, *CreateTableResponse])
	ListTable(ctx context.Context, req *ListTableRequest, cb Callback[*ListTableRequest, *ListTableResponse])
	DescribeTable(ctx context.Context, req *DescribeTableRequest, cb Callback[*DescribeTableRequest, *DescribeTableResponse])
	DeleteTable(ctx context.Context, req *DeleteTableRequest, cb Callback[*DeleteTableRequest, *DeleteTableResponse])
	UpdateTable(ctx context.Context, req *UpdateTableRequest, cb Callback[*UpdateTableRequest, *UpdateTableResponse])
	GetRow(ctx context.Context, req *GetRowRequest, cb Callback[*GetRowRequest, *GetRowResponse])
	PutRow(ctx context.Context, req *PutRowRequest, cb Callback[*PutRowRequest, *PutRowResponse])
	UpdateRow(ctx context.Context, req *UpdateRowRequest, cb Callback[*UpdateRowRequest, *UpdateRowResponse])
	DeleteRow(ctx context.Context, req *DeleteRowRequest, cb Callback[*DeleteRowRequest, *DeleteRowResponse])
	BatchGetRow(ctx context.Context, req *BatchGetRowRequest, cb Callback[*BatchGetRowRequest, *BatchGetRowResponse])
	BatchWriteRow(ctx context.Context, req *BatchWriteRowRequest, cb Callback[*BatchWriteRowRequest, *BatchWriteRowResponse])
	GetRange(ctx context.Context, req *GetRangeRequest, cb Callback[*GetRangeRequest, *GetRangeResponse])
	ComputeSplitsBySize(ctx context.Context, req *ComputeSplitsBySizeRequest, cb Callback[*ComputeSplitsBySizeRequest, *ComputeSplitsBySizeResponse])

	Executors() *executor.Pool
	Close(ctx context.Context)
}

// RangeGetter is the slice of SyncClient a RangeIterator needs.
type RangeGetter interface {
	GetRange(ctx context.Context, req *GetRangeRequest) (*GetRangeResponse, error)
}
