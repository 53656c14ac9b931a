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
	"time"
)

// PrimaryKeyType is the declared type of a primary-key column in a table
// schema.
type PrimaryKeyType int

const (
	PKTypeInteger PrimaryKeyType = iota + 1
	PKTypeString
	PKTypeBinary
)

func (t PrimaryKeyType) String() string {
	switch t {
	case PKTypeInteger:
		return "Integer"
	case PKTypeString:
		return "String"
	case PKTypeBinary:
		return "Binary"
	}
	return "PrimaryKeyType(?)"
}

// PrimaryKeyColumnSchema declares one column of a table's primary key.
// AutoIncrement is only valid on integer columns.
type PrimaryKeyColumnSchema struct {
	Name          string
	Type          PrimaryKeyType
	AutoIncrement bool
}

// TableMeta fixes a table's name and primary-key schema. The schema is
// immutable after table creation.
type TableMeta struct {
	TableName string
	Schema    []PrimaryKeyColumnSchema
}

// CapacityUnit is a pair of read/write capacity figures. Either side may
// be absent, e.g. a read-only response reports no write capacity.
type CapacityUnit struct {
	Read  Optional[int64]
	Write Optional[int64]
}

// Add accumulates o into c, treating absent sides as zero but keeping
// them absent unless o contributes.
func (c *CapacityUnit) Add(o CapacityUnit) {
	if v, ok := o.Read.Get(); ok {
		c.Read.Set(c.Read.Or(0) + v)
	}
	if v, ok := o.Write.Get(); ok {
		c.Write.Set(c.Write.Or(0) + v)
	}
}

// TableOptions are the mutable per-table settings.
type TableOptions struct {
	TimeToLive   Optional[time.Duration]
	MaxVersions  Optional[int64]
	ReservedThroughput Optional[CapacityUnit]
	MaxTimeDeviation   Optional[time.Duration]
}

// TimeRange restricts reads to cell versions within [Start, End), or to
// one specific version. Boundaries are UTC times at millisecond
// precision.
type TimeRange struct {
	Start    Optional[time.Time]
	End      Optional[time.Time]
	Specific Optional[time.Time]
}

// RowExistenceExpectation is the condition a write places on the presence
// of its row.
type RowExistenceExpectation int

const (
	ExpectIgnore RowExistenceExpectation = iota
	ExpectExist
	ExpectNotExist
)

func (e RowExistenceExpectation) String() string {
	switch e {
	case ExpectIgnore:
		return "Ignore"
	case ExpectExist:
		return "ExpectExist"
	case ExpectNotExist:
		return "ExpectNotExist"
	}
	return "RowExistenceExpectation(?)"
}

// Condition guards a write.
type Condition struct {
	RowExistence RowExistenceExpectation
}

// ReturnType selects what a write operation echoes back.
type ReturnType int

const (
	ReturnNone ReturnType = iota
	ReturnPrimaryKey
)
