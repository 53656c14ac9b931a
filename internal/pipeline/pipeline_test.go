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

package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.chromium.org/luci/common/clock"
	"go.chromium.org/luci/common/clock/testclock"
	"go.chromium.org/luci/common/logging/gologger"
	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"
	"google.golang.org/protobuf/encoding/protowire"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/internal/signer"
	"go.tablestore.dev/ots/internal/transport"
)

// scriptedTransport replays a list of exchanges and records requests.
type scriptedTransport struct {
	mu       sync.Mutex
	script   []func(*transport.Request) (*transport.Response, error)
	requests []*transport.Request
}

func (s *scriptedTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.script) == 0 {
		return &transport.Response{Status: 200}, nil
	}
	step := s.script[0]
	if len(s.script) > 1 {
		s.script = s.script[1:]
	}
	return step(req)
}

func (s *scriptedTransport) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func errorBody(code, message string) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendString(b, code)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, message)
	return b
}

func respond(status int, headers map[string]string, body []byte) func(*transport.Request) (*transport.Response, error) {
	return func(*transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: status, Headers: headers, Body: body}, nil
	}
}

func newTestCore(t *ftt.Test, tr transport.Transport) *Core {
	core, err := NewCore(
		ots.Endpoint{Address: "http://host", InstanceName: "inst"},
		ots.Credential{AccessKeyID: "ak", AccessKeySecret: "sk"},
		ots.DefaultClientOptions())
	assert.Loosely(t, err, should.BeNil)
	core.SetTransport(tr)
	return core
}

// testCall builds a minimal list-table call and a channel its completion
// lands on.
func testCall(validate func() error) (*Call, chan error) {
	done := make(chan error, 1)
	if validate == nil {
		validate = func() error { return nil }
	}
	return &Call{
		Action:    ots.ActionListTable,
		Validate:  validate,
		Marshal:   func() ([]byte, error) { return nil, nil },
		Unmarshal: func([]byte) error { return nil },
		SetInfo:   func(requestID, traceID string) {},
		Done:      func(err error) { done <- err },
	}, done
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	ftt.Run(`With a scripted transport`, t, func(t *ftt.Test) {
		ctx, tc := testclock.UseTime(
			gologger.StdConfig.Use(context.Background()),
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		tc.SetTimerCallback(func(d time.Duration, _ clock.Timer) { tc.Add(d) })

		t.Run(`a validation failure never reaches the transport`, func(t *ftt.Test) {
			tr := &scriptedTransport{}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(func() error {
				return &ots.Error{Code: ots.ErrCodeParameterInvalid, Message: "bad"}
			})
			core.Issue(ctx, call)
			err := <-done
			assert.Loosely(t, err, should.NotBeNil)
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeParameterInvalid))
			assert.Loosely(t, err.(*ots.Error).TraceID, should.NotBeEmpty)
			assert.Loosely(t, tr.sent(), should.BeZero)
		})

		t.Run(`a success stamps request and trace ids`, func(t *ftt.Test) {
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){
				respond(200, map[string]string{signer.HeaderRequestID: "req-1"}, nil),
			}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			var gotReqID, gotTraceID string
			done := make(chan error, 1)
			core.Issue(ctx, &Call{
				Action:    ots.ActionListTable,
				Validate:  func() error { return nil },
				Marshal:   func() ([]byte, error) { return []byte("payload"), nil },
				Unmarshal: func([]byte) error { return nil },
				SetInfo: func(requestID, traceID string) {
					gotReqID, gotTraceID = requestID, traceID
				},
				Done: func(err error) { done <- err },
			})
			assert.Loosely(t, <-done, should.BeNil)
			assert.Loosely(t, gotReqID, should.Equal("req-1"))
			assert.Loosely(t, gotTraceID, should.NotBeEmpty)

			t.Run(`and the attempt was signed`, func(t *ftt.Test) {
				req := tr.requests[0]
				assert.Loosely(t, req.Path, should.Equal("/ListTable"))
				assert.Loosely(t, req.Headers[signer.HeaderSignature], should.NotBeEmpty)
				assert.Loosely(t, req.Headers[signer.HeaderAPIVersion], should.Equal("2015-12-31"))
				assert.Loosely(t, req.Headers[signer.HeaderTraceID], should.Equal(gotTraceID))
			})
		})

		t.Run(`a server error envelope becomes a domain error`, func(t *ftt.Test) {
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){
				respond(403,
					map[string]string{signer.HeaderRequestID: "req-9"},
					errorBody(ots.ErrCodeAuthFailed, "mismatched signature")),
			}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			err := <-done
			e := err.(*ots.Error)
			assert.Loosely(t, e.Code, should.Equal(ots.ErrCodeAuthFailed))
			assert.Loosely(t, e.HTTPStatus, should.Equal(403))
			assert.Loosely(t, e.Message, should.Equal("mismatched signature"))
			assert.Loosely(t, e.RequestID, should.Equal("req-9"))
			assert.Loosely(t, tr.sent(), should.Equal(1))
		})

		t.Run(`retriable errors loop until success`, func(t *ftt.Test) {
			busy := respond(503, nil, errorBody(ots.ErrCodeServerBusy, "busy"))
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){
				busy, busy,
				respond(200, map[string]string{signer.HeaderRequestID: "req-3"}, nil),
			}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			assert.Loosely(t, <-done, should.BeNil)
			assert.Loosely(t, tr.sent(), should.Equal(3))

			t.Run(`every attempt shares one trace id`, func(t *ftt.Test) {
				first := tr.requests[0].Headers[signer.HeaderTraceID]
				for _, req := range tr.requests[1:] {
					assert.Loosely(t, req.Headers[signer.HeaderTraceID], should.Equal(first))
				}
			})
		})

		t.Run(`retries stop at the deadline with the last error`, func(t *ftt.Test) {
			busy := respond(503, nil, errorBody(ots.ErrCodeServerBusy, "busy"))
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){busy}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			err := <-done
			assert.Loosely(t, err, should.NotBeNil)
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeServerBusy))
			// More than one attempt was made before giving up.
			assert.Loosely(t, tr.sent(), should.BeGreaterThan(1))
		})

		t.Run(`unretriable errors fail on the first attempt`, func(t *ftt.Test) {
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){
				respond(400, nil, errorBody(ots.ErrCodeParameterInvalid, "bad field")),
			}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			err := <-done
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeParameterInvalid))
			assert.Loosely(t, tr.sent(), should.Equal(1))
		})

		t.Run(`an unparsable error envelope is corrupted response`, func(t *ftt.Test) {
			tr := &scriptedTransport{script: []func(*transport.Request) (*transport.Response, error){
				respond(500, nil, []byte("not a protobuf")),
			}}
			core := newTestCore(t, tr)
			defer core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			err := <-done
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeCorruptedResponse))
		})

		t.Run(`a closed core rejects new calls`, func(t *ftt.Test) {
			tr := &scriptedTransport{}
			core := newTestCore(t, tr)
			core.Close(ctx)

			call, done := testCall(nil)
			core.Issue(ctx, call)
			err := <-done
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeClientUnknownError))
			assert.Loosely(t, tr.sent(), should.BeZero)
		})
	})
}
