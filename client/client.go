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

// Package client constructs the blocking and non-blocking table-store
// clients.
//
// Both facades are thin handles over one reference-shared core: a sync
// client obtained with Sync(asyncClient) issues calls through the very
// same pipeline, pool and retry template as the async client it came
// from.
package client

import (
	"context"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/executor"
	"go.tablestore.dev/ots/internal/pipeline"
)

// NewAsync builds a non-blocking client.
func NewAsync(ep ots.Endpoint, cred ots.Credential, opts ots.ClientOptions) (ots.AsyncClient, error) {
	core, err := pipeline.NewCore(ep, cred, opts)
	if err != nil {
		return nil, err
	}
	return &asyncClient{core: core}, nil
}

// New builds a blocking client.
func New(ep ots.Endpoint, cred ots.Credential, opts ots.ClientOptions) (ots.SyncClient, error) {
	core, err := pipeline.NewCore(ep, cred, opts)
	if err != nil {
		return nil, err
	}
	return &syncClient{async: &asyncClient{core: core}}, nil
}

// Sync derives a blocking facade sharing c's underlying client. c must
// have been built by this package.
func Sync(c ots.AsyncClient) ots.SyncClient {
	return &syncClient{async: c.(*asyncClient)}
}

// Async derives a non-blocking facade sharing c's underlying client.
// c must have been built by this package.
func Async(c ots.SyncClient) ots.AsyncClient {
	return c.(*syncClient).async
}

type asyncClient struct {
	core *pipeline.Core
}

func (c *asyncClient) Executors() *executor.Pool { return c.core.Pool() }

func (c *asyncClient) Close(ctx context.Context) { c.core.Close(ctx) }

// issue wires one concrete request/response pair into the type-erased
// pipeline call.
func issue[Req interface{ Validate() error }, Resp interface {
	SetResponseInfo(requestID, traceID string)
}](
	ctx context.Context,
	core *pipeline.Core,
	action ots.Action,
	req Req,
	resp Resp,
	marshal func(Req) ([]byte, error),
	unmarshal func([]byte, Resp) error,
	reset func(),
	done func(err error),
) {
	core.Issue(ctx, &pipeline.Call{
		Action:   action,
		Validate: req.Validate,
		Marshal:  func() ([]byte, error) { return marshal(req) },
		Unmarshal: func(body []byte) error {
			return unmarshal(body, resp)
		},
		SetInfo: resp.SetResponseInfo,
		Done: func(err error) {
			if err != nil {
				// The response container is handed back in its reset
				// state on error; the error alone carries the ids.
				reset()
			}
			done(err)
		},
	})
}
