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

// Package protocol marshals requests to and unmarshals responses from
// the per-action protobuf envelopes.
//
// The .proto schema is owned by the server; this package speaks the wire
// format directly through protowire with hand-maintained field numbers.
// Row bodies inside the envelopes are plainbuffer frames.
package protocol

import (
	"google.golang.org/protobuf/encoding/protowire"

	"go.tablestore.dev/ots"
)

func corrupt(what string) error {
	return &ots.Error{
		Code:    ots.ErrCodeCorruptedResponse,
		Message: "fail to parse " + what + " in response",
	}
}

// Append helpers. Scalars are only emitted when the caller decided the
// field is present; callers of appendStringField etc. handle required-field
// policy themselves.

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	x := uint64(0)
	if v {
		x = 1
	}
	return appendVarintField(b, num, x)
}

func appendBytesField(b []byte, num protowire.Number, p []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, p)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// decoder walks one message level. Methods record the first error; ok
// reports after the walk whether one occurred.
type decoder struct {
	p   []byte
	err error
}

// next consumes the next field tag. It reports false at end of input or
// on malformed input.
func (d *decoder) next() (protowire.Number, protowire.Type, bool) {
	if d.err != nil || len(d.p) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(d.p)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0, 0, false
	}
	d.p = d.p[n:]
	return num, typ, true
}

func (d *decoder) varint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.p)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.p = d.p[n:]
	return v
}

func (d *decoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.p)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return nil
	}
	d.p = d.p[n:]
	return v
}

func (d *decoder) skip(num protowire.Number, typ protowire.Type) {
	if d.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(num, typ, d.p)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return
	}
	d.p = d.p[n:]
}

func (d *decoder) ok() bool { return d.err == nil }
