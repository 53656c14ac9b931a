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

package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"

	"go.tablestore.dev/ots"
)

func TestHTTPTransport(t *testing.T) {
	t.Parallel()

	ftt.Run(`Against a local HTTP server`, t, func(t *ftt.Test) {
		ctx := context.Background()

		t.Run(`a plain exchange passes through`, func(t *ftt.Test) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				assert.Loosely(t, r.Method, should.Equal("POST"))
				assert.Loosely(t, r.URL.Path, should.Equal("/PutRow"))
				assert.Loosely(t, r.Header.Get("x-ots-traceid"), should.Equal("trace"))
				assert.Loosely(t, string(body), should.Equal("payload"))
				w.Header().Set("X-Ots-Requestid", "rid")
				w.WriteHeader(200)
				w.Write([]byte("pong"))
			}))
			defer srv.Close()

			ep, err := ParseEndpoint(srv.URL)
			assert.Loosely(t, err, should.BeNil)
			tr := NewHTTP(ep, 4, time.Second)

			resp, err := tr.Send(ctx, &Request{
				Path:           "/PutRow",
				Body:           []byte("payload"),
				Headers:        map[string]string{"x-ots-traceid": "trace"},
				RequestTimeout: 5 * time.Second,
			})
			assert.Loosely(t, err, should.BeNil)
			assert.Loosely(t, resp.Status, should.Equal(200))
			assert.Loosely(t, resp.Headers["x-ots-requestid"], should.Equal("rid"))
			assert.Loosely(t, resp.Body, should.Match([]byte("pong")))
		})

		t.Run(`error statuses are returned, not classified`, func(t *ftt.Test) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(503)
			}))
			defer srv.Close()

			ep, _ := ParseEndpoint(srv.URL)
			tr := NewHTTP(ep, 4, time.Second)
			resp, err := tr.Send(ctx, &Request{Path: "/", RequestTimeout: 5 * time.Second})
			assert.Loosely(t, err, should.BeNil)
			assert.Loosely(t, resp.Status, should.Equal(503))
		})

		t.Run(`a slow server yields RequestTimeout`, func(t *ftt.Test) {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-release
			}))
			defer srv.Close()
			defer close(release)

			ep, _ := ParseEndpoint(srv.URL)
			tr := NewHTTP(ep, 4, time.Second)
			_, err := tr.Send(ctx, &Request{Path: "/", RequestTimeout: 50 * time.Millisecond})
			assert.Loosely(t, err, should.NotBeNil)
			assert.Loosely(t, err.(*ots.Error).Code, should.Equal(ots.ErrCodeRequestTimeout))
		})

		t.Run(`an unresolvable host yields CouldntResolveHost`, func(t *ftt.Test) {
			ep, err := ParseEndpoint("http://host.invalid")
			assert.Loosely(t, err, should.BeNil)
			tr := NewHTTP(ep, 4, time.Second)
			_, err = tr.Send(ctx, &Request{Path: "/", RequestTimeout: 5 * time.Second})
			assert.Loosely(t, err, should.NotBeNil)
			code := err.(*ots.Error).Code
			// Some resolvers time out instead of answering NXDOMAIN.
			ok := code == ots.ErrCodeCouldntResolveHost || code == ots.ErrCodeRequestTimeout
			assert.Loosely(t, ok, should.BeTrue)
		})
	})
}
