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
	"math/rand"
	"strings"
	"testing"

	"go.chromium.org/luci/common/data/rand/mathrand"
	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"
)

func TestBase57(t *testing.T) {
	t.Parallel()

	ftt.Run(`Base-57 encoding`, t, func(t *ftt.Test) {
		assert.Loosely(t, len(base57Alphabet), should.Equal(57))
		for _, banned := range "01lIO" {
			assert.Loosely(t, strings.ContainsRune(base57Alphabet, banned), should.BeFalse)
		}

		t.Run(`is injective over small values`, func(t *ftt.Test) {
			seen := map[string]uint64{}
			for v := uint64(0); v < 10000; v++ {
				s := base57Encode(v)
				prev, dup := seen[s]
				assert.Loosely(t, dup, should.BeFalse)
				_ = prev
				seen[s] = v
			}
		})

		t.Run(`encodes zero`, func(t *ftt.Test) {
			assert.Loosely(t, base57Encode(0), should.Equal("2"))
		})
	})
}

func TestTracker(t *testing.T) {
	t.Parallel()

	ftt.Run(`Minting trackers`, t, func(t *ftt.Test) {
		ctx := mathrand.Set(context.Background(), rand.New(rand.NewSource(8)))

		t.Run(`produces nonempty distinct ids`, func(t *ftt.Test) {
			a := NewTracker(ctx)
			b := NewTracker(ctx)
			assert.Loosely(t, a.TraceID(), should.NotBeEmpty)
			assert.Loosely(t, a.TraceID(), should.NotEqual(b.TraceID()))
		})

		t.Run(`ids from one process share the host base`, func(t *ftt.Test) {
			// The top 16 bits are the folded hostname hash, so two ids of
			// equal length share their leading digit.
			a := NewTracker(ctx)
			b := NewTracker(ctx)
			if len(a.TraceID()) == len(b.TraceID()) {
				assert.Loosely(t, a.TraceID()[0], should.Equal(b.TraceID()[0]))
			}
		})
	})
}

func TestAdler32(t *testing.T) {
	t.Parallel()

	ftt.Run(`Adler32`, t, func(t *ftt.Test) {
		// Classic known answer: "Wikipedia" hashes to 0x11E60398.
		assert.Loosely(t, adler32("Wikipedia"), should.Equal(uint32(0x11E60398)))
		assert.Loosely(t, adler32(""), should.Equal(uint32(1)))
	})
}
