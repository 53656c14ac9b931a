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
	"sync"
	"testing"

	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"
	"google.golang.org/protobuf/encoding/protowire"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/internal/transport"
)

// memTransport answers every request with a fixed body.
type memTransport struct {
	mu   sync.Mutex
	sent int
	body []byte
}

func (m *memTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
	return &transport.Response{
		Status:  200,
		Headers: map[string]string{"x-ots-requestid": "rid"},
		Body:    m.body,
	}, nil
}

func listTableBody(names ...string) []byte {
	var b []byte
	for _, n := range names {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, n)
	}
	return b
}

func newClients(t *ftt.Test, tr transport.Transport) (ots.SyncClient, ots.AsyncClient) {
	sc, err := New(
		ots.Endpoint{Address: "http://host", InstanceName: "inst"},
		ots.Credential{AccessKeyID: "ak", AccessKeySecret: "sk"},
		ots.DefaultClientOptions())
	assert.Loosely(t, err, should.BeNil)
	ac := Async(sc)
	sc.(*syncClient).async.core.SetTransport(tr)
	return sc, ac
}

func TestFacades(t *testing.T) {
	t.Parallel()

	ftt.Run(`With an in-memory transport`, t, func(t *ftt.Test) {
		ctx := context.Background()

		t.Run(`the sync facade blocks until the callback fires`, func(t *ftt.Test) {
			tr := &memTransport{body: listTableBody("users", "events")}
			sc, _ := newClients(t, tr)
			defer sc.Close(ctx)

			resp, err := sc.ListTable(ctx, &ots.ListTableRequest{})
			assert.Loosely(t, err, should.BeNil)
			assert.Loosely(t, resp.Tables, should.Match([]string{"users", "events"}))
			assert.Loosely(t, resp.RequestID, should.Equal("rid"))
			assert.Loosely(t, resp.TraceID, should.NotBeEmpty)
		})

		t.Run(`both facades share one underlying client`, func(t *ftt.Test) {
			tr := &memTransport{body: listTableBody()}
			sc, ac := newClients(t, tr)
			defer sc.Close(ctx)

			assert.Loosely(t, ac.Executors(), should.Equal(sc.Executors()))
			assert.Loosely(t, Sync(ac).(*syncClient).async, should.Equal(sc.(*syncClient).async))
		})

		t.Run(`the async facade delivers the response through the callback`, func(t *ftt.Test) {
			tr := &memTransport{body: listTableBody("t")}
			sc, ac := newClients(t, tr)
			defer sc.Close(ctx)

			done := make(chan *ots.ListTableResponse, 1)
			ac.ListTable(ctx, &ots.ListTableRequest{},
				func(_ *ots.ListTableRequest, resp *ots.ListTableResponse, err error) {
					assert.Loosely(t, err, should.BeNil)
					done <- resp
				})
			resp := <-done
			assert.Loosely(t, resp.Tables, should.Match([]string{"t"}))
		})

		t.Run(`validation failures return the reset response`, func(t *ftt.Test) {
			tr := &memTransport{}
			sc, _ := newClients(t, tr)
			defer sc.Close(ctx)

			resp, err := sc.DeleteTable(ctx, &ots.DeleteTableRequest{})
			assert.Loosely(t, err, should.NotBeNil)
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeParameterInvalid))
			assert.Loosely(t, *resp, should.Match(ots.DeleteTableResponse{}))
			assert.Loosely(t, tr.sent, should.BeZero)
		})
	})
}
