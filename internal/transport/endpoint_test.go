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
	"testing"

	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"
)

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	ftt.Run(`Parsing endpoints`, t, func(t *ftt.Test) {
		cases := []struct {
			url      string
			protocol Protocol
			host     string
			port     string
		}{
			{"https://h", HTTPS, "h", "443"},
			{"http://h", HTTP, "h", "80"},
			{"http://h:81", HTTP, "h", "81"},
			{"https://example.com:8443", HTTPS, "example.com", "8443"},
			{"http://h/", HTTP, "h", "80"},
			{"https://h:81///", HTTPS, "h", "81"},
		}
		for _, c := range cases {
			t.Run(c.url, func(t *ftt.Test) {
				ep, err := ParseEndpoint(c.url)
				assert.Loosely(t, err, should.BeNil)
				assert.Loosely(t, ep.Protocol, should.Equal(c.protocol))
				assert.Loosely(t, ep.Host, should.Equal(c.host))
				assert.Loosely(t, ep.Port, should.Equal(c.port))
			})
		}

		bad := []struct {
			url     string
			message string
		}{
			{"", "Endpoint must be nonempty."},
			{"ftp://h", "unsupported protocol: ftp."},
			{"http://h/x", "invalid syntax of endpoint."},
			{"http://", "invalid syntax of endpoint."},
			{"http:/h", "invalid syntax of endpoint."},
			{"http://h:", "invalid syntax of endpoint."},
			{"http://h:8x", "invalid syntax of endpoint."},
			{"h", "invalid syntax of endpoint."},
		}
		for _, c := range bad {
			t.Run("rejects "+c.url, func(t *ftt.Test) {
				_, err := ParseEndpoint(c.url)
				assert.Loosely(t, err, should.NotBeNil)
				assert.Loosely(t, err.Error(), should.ContainSubstring(c.message))
			})
		}
	})
}
