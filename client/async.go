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
	"go.tablestore.dev/ots/protocol"
)

func (c *asyncClient) CreateTable(ctx context.Context, req *ots.CreateTableRequest, cb ots.Callback[*ots.CreateTableRequest, *ots.CreateTableResponse]) {
	resp := &ots.CreateTableResponse{}
	issue(ctx, c.core, ots.ActionCreateTable, req, resp,
		protocol.MarshalCreateTableRequest, protocol.UnmarshalCreateTableResponse,
		func() { *resp = ots.CreateTableResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) ListTable(ctx context.Context, req *ots.ListTableRequest, cb ots.Callback[*ots.ListTableRequest, *ots.ListTableResponse]) {
	resp := &ots.ListTableResponse{}
	issue(ctx, c.core, ots.ActionListTable, req, resp,
		protocol.MarshalListTableRequest, protocol.UnmarshalListTableResponse,
		func() { *resp = ots.ListTableResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) DescribeTable(ctx context.Context, req *ots.DescribeTableRequest, cb ots.Callback[*ots.DescribeTableRequest, *ots.DescribeTableResponse]) {
	resp := &ots.DescribeTableResponse{}
	issue(ctx, c.core, ots.ActionDescribeTable, req, resp,
		protocol.MarshalDescribeTableRequest, protocol.UnmarshalDescribeTableResponse,
		func() { *resp = ots.DescribeTableResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) DeleteTable(ctx context.Context, req *ots.DeleteTableRequest, cb ots.Callback[*ots.DeleteTableRequest, *ots.DeleteTableResponse]) {
	resp := &ots.DeleteTableResponse{}
	issue(ctx, c.core, ots.ActionDeleteTable, req, resp,
		protocol.MarshalDeleteTableRequest, protocol.UnmarshalDeleteTableResponse,
		func() { *resp = ots.DeleteTableResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) UpdateTable(ctx context.Context, req *ots.UpdateTableRequest, cb ots.Callback[*ots.UpdateTableRequest, *ots.UpdateTableResponse]) {
	resp := &ots.UpdateTableResponse{}
	issue(ctx, c.core, ots.ActionUpdateTable, req, resp,
		protocol.MarshalUpdateTableRequest, protocol.UnmarshalUpdateTableResponse,
		func() { *resp = ots.UpdateTableResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) GetRow(ctx context.Context, req *ots.GetRowRequest, cb ots.Callback[*ots.GetRowRequest, *ots.GetRowResponse]) {
	resp := &ots.GetRowResponse{}
	issue(ctx, c.core, ots.ActionGetRow, req, resp,
		protocol.MarshalGetRowRequest, protocol.UnmarshalGetRowResponse,
		func() { *resp = ots.GetRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) PutRow(ctx context.Context, req *ots.PutRowRequest, cb ots.Callback[*ots.PutRowRequest, *ots.PutRowResponse]) {
	resp := &ots.PutRowResponse{}
	issue(ctx, c.core, ots.ActionPutRow, req, resp,
		protocol.MarshalPutRowRequest, protocol.UnmarshalPutRowResponse,
		func() { *resp = ots.PutRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) UpdateRow(ctx context.Context, req *ots.UpdateRowRequest, cb ots.Callback[*ots.UpdateRowRequest, *ots.UpdateRowResponse]) {
	resp := &ots.UpdateRowResponse{}
	issue(ctx, c.core, ots.ActionUpdateRow, req, resp,
		protocol.MarshalUpdateRowRequest, protocol.UnmarshalUpdateRowResponse,
		func() { *resp = ots.UpdateRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) DeleteRow(ctx context.Context, req *ots.DeleteRowRequest, cb ots.Callback[*ots.DeleteRowRequest, *ots.DeleteRowResponse]) {
	resp := &ots.DeleteRowResponse{}
	issue(ctx, c.core, ots.ActionDeleteRow, req, resp,
		protocol.MarshalDeleteRowRequest, protocol.UnmarshalDeleteRowResponse,
		func() { *resp = ots.DeleteRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) BatchGetRow(ctx context.Context, req *ots.BatchGetRowRequest, cb ots.Callback[*ots.BatchGetRowRequest, *ots.BatchGetRowResponse]) {
	resp := &ots.BatchGetRowResponse{}
	issue(ctx, c.core, ots.ActionBatchGetRow, req, resp,
		protocol.MarshalBatchGetRowRequest,
		func(body []byte, r *ots.BatchGetRowResponse) error {
			return protocol.UnmarshalBatchGetRowResponse(body, req, r)
		},
		func() { *resp = ots.BatchGetRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) BatchWriteRow(ctx context.Context, req *ots.BatchWriteRowRequest, cb ots.Callback[*ots.BatchWriteRowRequest, *ots.BatchWriteRowResponse]) {
	resp := &ots.BatchWriteRowResponse{}
	issue(ctx, c.core, ots.ActionBatchWriteRow, req, resp,
		protocol.MarshalBatchWriteRowRequest,
		func(body []byte, r *ots.BatchWriteRowResponse) error {
			return protocol.UnmarshalBatchWriteRowResponse(body, req, r)
		},
		func() { *resp = ots.BatchWriteRowResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) GetRange(ctx context.Context, req *ots.GetRangeRequest, cb ots.Callback[*ots.GetRangeRequest, *ots.GetRangeResponse]) {
	resp := &ots.GetRangeResponse{}
	issue(ctx, c.core, ots.ActionGetRange, req, resp,
		protocol.MarshalGetRangeRequest, protocol.UnmarshalGetRangeResponse,
		func() { *resp = ots.GetRangeResponse{} },
		func(err error) { cb(req, resp, err) })
}

func (c *asyncClient) ComputeSplitsBySize(ctx context.Context, req *ots.ComputeSplitsBySizeRequest, cb ots.Callback[*ots.ComputeSplitsBySizeRequest, *ots.ComputeSplitsBySizeResponse]) {
	resp := &ots.ComputeSplitsBySizeResponse{}
	issue(ctx, c.core, ots.ActionComputeSplitsBySize, req, resp,
		protocol.MarshalComputeSplitsBySizeRequest, protocol.UnmarshalComputeSplitsBySizeResponse,
		func() { *resp = ots.ComputeSplitsBySizeResponse{} },
		func(err error) { cb(req, resp, err) })
}
