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

package signer

import (
	"context"
	"testing"
	"time"

	"go.chromium.org/luci/common/clock/testclock"
	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"

	"go.tablestore.dev/ots"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	ftt.Run(`Canonicalizing headers`, t, func(t *ftt.Test) {
		got := canonicalize(map[string]string{
			"X-Ots-Date":        " 2024-01-02T03:04:05.000000Z ",
			"x-ots-apiversion":  "2015-12-31",
			"x-ots-accesskeyid": "ak",
		})
		assert.Loosely(t, got, should.Equal(
			"x-ots-accesskeyid:ak\n"+
				"x-ots-apiversion:2015-12-31\n"+
				"x-ots-date:2024-01-02T03:04:05.000000Z"))
	})
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	ftt.Run(`Building signed headers`, t, func(t *ftt.Test) {
		ctx, _ := testclock.UseTime(context.Background(),
			time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC))
		cred := ots.Credential{AccessKeyID: "ak", AccessKeySecret: "secret"}
		s := New(cred, "inst")

		h := s.Headers(ctx, "/PutRow", []byte("body"), "trace")

		t.Run(`attaches the protocol headers`, func(t *ftt.Test) {
			assert.Loosely(t, h[HeaderDate], should.Equal("2024-01-02T03:04:05.123456Z"))
			assert.Loosely(t, h[HeaderAPIVersion], should.Equal("2015-12-31"))
			assert.Loosely(t, h[HeaderAccessKeyID], should.Equal("ak"))
			assert.Loosely(t, h[HeaderInstanceName], should.Equal("inst"))
			assert.Loosely(t, h[HeaderTraceID], should.Equal("trace"))
			// md5("body"), base64.
			assert.Loosely(t, h[HeaderContentMD5],
				should.Equal("hBotaJrYa9FhFEdFPCLG/A=="))
			assert.Loosely(t, h[HeaderSignature], should.NotBeEmpty)
			_, hasToken := h[HeaderSTSToken]
			assert.Loosely(t, hasToken, should.BeFalse)
		})

		t.Run(`includes the security token only when present`, func(t *ftt.Test) {
			cred.SecurityToken = "tok"
			h2 := New(cred, "inst").Headers(ctx, "/PutRow", []byte("body"), "trace")
			assert.Loosely(t, h2[HeaderSTSToken], should.Equal("tok"))
			// The token participates in the canonical string.
			assert.Loosely(t, h2[HeaderSignature], should.NotEqual(h[HeaderSignature]))
		})

		t.Run(`the signature covers path, secret and headers`, func(t *ftt.Test) {
			other := s.Headers(ctx, "/GetRow", []byte("body"), "trace")
			assert.Loosely(t, other[HeaderSignature], should.NotEqual(h[HeaderSignature]))

			withOtherSecret := New(ots.Credential{
				AccessKeyID: "ak", AccessKeySecret: "secret2"}, "inst")
			h3 := withOtherSecret.Headers(ctx, "/PutRow", []byte("body"), "trace")
			assert.Loosely(t, h3[HeaderSignature], should.NotEqual(h[HeaderSignature]))
		})

		t.Run(`signing is deterministic for fixed inputs`, func(t *ftt.Test) {
			again := s.Headers(ctx, "/PutRow", []byte("body"), "trace")
			assert.Loosely(t, again[HeaderSignature], should.Equal(h[HeaderSignature]))
		})
	})
}
