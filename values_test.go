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
	"testing"

	"go.chromium.org/luci/common/testing/ftt"
	"go.chromium.org/luci/common/testing/truth/assert"
	"go.chromium.org/luci/common/testing/truth/should"
)

func TestPrimaryKeyValueCompare(t *testing.T) {
	t.Parallel()

	ftt.Run(`Comparing primary-key values`, t, func(t *ftt.Test) {
		t.Run(`orders like real categories naturally`, func(t *ftt.Test) {
			assert.Loosely(t, PKInt(1).Compare(PKInt(2)), should.Equal(Smaller))
			assert.Loosely(t, PKInt(2).Compare(PKInt(2)), should.Equal(Equivalent))
			assert.Loosely(t, PKInt(3).Compare(PKInt(2)), should.Equal(Larger))
			assert.Loosely(t, PKStr("a").Compare(PKStr("b")), should.Equal(Smaller))
			assert.Loosely(t, PKStr("ab").Compare(PKStr("a")), should.Equal(Larger))
			assert.Loosely(t, PKBlob([]byte{0}).Compare(PKBlob([]byte{0, 0})), should.Equal(Smaller))
		})

		t.Run(`treats infinities as range endpoints`, func(t *ftt.Test) {
			assert.Loosely(t, PKInfinityMax().Compare(PKInt(1<<62)), should.Equal(Larger))
			assert.Loosely(t, PKInfinityMin().Compare(PKInt(-1<<62)), should.Equal(Smaller))
			assert.Loosely(t, PKInfinityMin().Compare(PKInfinityMax()), should.Equal(Smaller))
			assert.Loosely(t, PKInfinityMax().Compare(PKInfinityMin()), should.Equal(Larger))
			assert.Loosely(t, PKInfinityMax().Compare(PKInfinityMax()), should.Equal(Equivalent))
			assert.Loosely(t, PKInfinityMin().Compare(PKInfinityMin()), should.Equal(Equivalent))
		})

		t.Run(`refuses cross-category and placeholder comparisons`, func(t *ftt.Test) {
			assert.Loosely(t, PKInt(1).Compare(PKStr("1")), should.Equal(Uncomparable))
			assert.Loosely(t, PKStr("x").Compare(PKBlob([]byte("x"))), should.Equal(Uncomparable))
			assert.Loosely(t, PKAutoIncr().Compare(PKAutoIncr()), should.Equal(Uncomparable))
			assert.Loosely(t, PKAutoIncr().Compare(PKInt(0)), should.Equal(Uncomparable))
			assert.Loosely(t, PKInfinityMin().Compare(PKAutoIncr()), should.Equal(Uncomparable))
			var none PrimaryKeyValue
			assert.Loosely(t, none.Compare(PKInt(0)), should.Equal(Uncomparable))
		})
	})
}

func TestPrimaryKeyCompare(t *testing.T) {
	t.Parallel()

	ftt.Run(`Comparing whole primary keys`, t, func(t *ftt.Test) {
		pk := func(vs ...PrimaryKeyValue) PrimaryKey {
			var out PrimaryKey
			for _, v := range vs {
				out = append(out, PrimaryKeyColumn{Name: "pk", Value: v})
			}
			return out
		}

		assert.Loosely(t, pk(PKInt(1), PKStr("a")).Compare(pk(PKInt(1), PKStr("b"))),
			should.Equal(Smaller))
		assert.Loosely(t, pk(PKInt(2)).Compare(pk(PKInt(1), PKInt(0))),
			should.Equal(Uncomparable))
		assert.Loosely(t, pk(PKInfinityMin()).Compare(pk(PKInt(1))),
			should.Equal(Smaller))
		assert.Loosely(t, pk(PKInt(1), PKInt(2)).Compare(pk(PKInt(1), PKInt(2))),
			should.Equal(Equivalent))
	})
}

func TestAttributeValueCompare(t *testing.T) {
	t.Parallel()

	ftt.Run(`Comparing attribute values`, t, func(t *ftt.Test) {
		assert.Loosely(t, AttrInt(1).Compare(AttrInt(2)), should.Equal(Smaller))
		assert.Loosely(t, AttrStr("a").Compare(AttrStr("a")), should.Equal(Equivalent))
		assert.Loosely(t, AttrBool(false).Compare(AttrBool(true)), should.Equal(Smaller))
		assert.Loosely(t, AttrFloatPoint(1.5).Compare(AttrFloatPoint(0.5)), should.Equal(Larger))
		assert.Loosely(t, AttrInt(1).Compare(AttrFloatPoint(1)), should.Equal(Uncomparable))
		var none AttributeValue
		assert.Loosely(t, none.Compare(none), should.Equal(Uncomparable))
	})
}
