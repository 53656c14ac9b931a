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
	"os"
	"sync"

	"go.chromium.org/luci/common/data/rand/mathrand"
)

// Tracker identifies one user-visible operation. It is carried in the
// x-ots-traceid header, shared by all retried attempts of the call, and
// stamped on every log line and error the call produces.
type Tracker struct {
	traceID string
}

// TraceID returns the wire form of the tracker.
func (t Tracker) TraceID() string { return t.traceID }

func (t Tracker) String() string { return t.traceID }

// 57 symbols: digits and letters minus the confusable 0, 1, l, I, O.
const base57Alphabet = "23456789" +
	"abcdefghijkmnopqrstuvwxyz" +
	"ABCDEFGHJKLMNPQRSTUVWXYZ"

func base57Encode(v uint64) string {
	if v == 0 {
		return base57Alphabet[:1]
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = base57Alphabet[v%57]
		v /= 57
	}
	return string(buf[i:])
}

// trackerBase is a 48-bit-shifted fold of the Adler32 checksum of the
// hostname, computed once per process. All trackers from one host share
// it, so logs from a fleet can be grouped by origin.
var trackerBase = sync.OnceValue(func() uint64 {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	a := adler32(hostname)
	fold := uint64((a >> 16) ^ (a & 0xFFFF))
	return fold << 48
})

// adler32 is the classic checksum with modulus 65521.
func adler32(s string) uint32 {
	const mod = 65521
	a, b := uint32(1), uint32(0)
	for i := 0; i < len(s); i++ {
		a = (a + uint32(s[i])) % mod
		b = (b + a) % mod
	}
	return b<<16 | a
}

// NewTracker mints a tracker: the host base xor-free in the top 16 bits,
// a 48-bit random fragment below, base-57 encoded.
func NewTracker(ctx context.Context) Tracker {
	frag := uint64(mathrand.Int63n(ctx, 1<<48))
	return Tracker{traceID: base57Encode(trackerBase() | frag)}
}
