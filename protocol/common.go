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

package protocol

import (
	"time"

	"go.tablestore.dev/ots"
)

// Messages shared by several envelopes.
//
//	Error              { code = 1, message = 2 }
//	CapacityUnit       { read = 1, write = 2 }
//	ConsumedCapacity   { capacity_unit = 1 }
//	TimeRange          { start_time = 1, end_time = 2, specific_time = 3 }
//	Condition          { row_existence = 1 }
//	ReturnContent      { return_type = 1 }
//	PrimaryKeySchema   { name = 1, type = 2, option = 3 }
//	TableMeta          { table_name = 1, primary_key = 2* }
//	ReservedThroughput { capacity_unit = 1 }
//	TableOptions       { time_to_live = 1, max_versions = 2,
//	                     deviation_cell_version_in_sec = 5 }

// UnmarshalError parses the server error envelope. It reports false when
// the body is not a well-formed envelope.
func UnmarshalError(p []byte) (code, message string, ok bool) {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			code = string(d.bytes())
		case 2:
			message = string(d.bytes())
		default:
			d.skip(num, typ)
		}
	}
	return code, message, d.ok() && code != ""
}

func marshalCapacityUnit(cu ots.CapacityUnit) []byte {
	var b []byte
	if v, ok := cu.Read.Get(); ok {
		b = appendVarintField(b, 1, uint64(uint32(v)))
	}
	if v, ok := cu.Write.Get(); ok {
		b = appendVarintField(b, 2, uint64(uint32(v)))
	}
	return b
}

func unmarshalCapacityUnit(p []byte, cu *ots.CapacityUnit) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			cu.Read.Set(int64(int32(d.varint())))
		case 2:
			cu.Write.Set(int64(int32(d.varint())))
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("capacity unit")
	}
	return nil
}

func unmarshalConsumedCapacity(p []byte, cu *ots.CapacityUnit) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			if err := unmarshalCapacityUnit(d.bytes(), cu); err != nil {
				return err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("consumed capacity")
	}
	return nil
}

func marshalTimeRange(tr ots.TimeRange) []byte {
	var b []byte
	if v, ok := tr.Start.Get(); ok {
		b = appendVarintField(b, 1, uint64(v.UnixMilli()))
	}
	if v, ok := tr.End.Get(); ok {
		b = appendVarintField(b, 2, uint64(v.UnixMilli()))
	}
	if v, ok := tr.Specific.Get(); ok {
		b = appendVarintField(b, 3, uint64(v.UnixMilli()))
	}
	return b
}

func marshalCondition(c ots.Condition) []byte {
	// row_existence is required; IGNORE is an explicit zero.
	return appendVarintField(nil, 1, uint64(c.RowExistence))
}

func marshalReturnContent(rt ots.ReturnType) []byte {
	return appendVarintField(nil, 1, uint64(rt))
}

func marshalPrimaryKeySchema(s ots.PrimaryKeyColumnSchema) []byte {
	b := appendStringField(nil, 1, s.Name)
	b = appendVarintField(b, 2, uint64(s.Type))
	if s.AutoIncrement {
		b = appendVarintField(b, 3, 1)
	}
	return b
}

func unmarshalPrimaryKeySchema(p []byte, s *ots.PrimaryKeyColumnSchema) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			s.Name = string(d.bytes())
		case 2:
			s.Type = ots.PrimaryKeyType(d.varint())
		case 3:
			s.AutoIncrement = d.varint() == 1
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("primary-key schema")
	}
	return nil
}

func marshalTableMeta(m ots.TableMeta) []byte {
	b := appendStringField(nil, 1, m.TableName)
	for _, s := range m.Schema {
		b = appendBytesField(b, 2, marshalPrimaryKeySchema(s))
	}
	return b
}

func unmarshalTableMeta(p []byte, m *ots.TableMeta) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			m.TableName = string(d.bytes())
		case 2:
			var s ots.PrimaryKeyColumnSchema
			if err := unmarshalPrimaryKeySchema(d.bytes(), &s); err != nil {
				return err
			}
			m.Schema = append(m.Schema, s)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("table meta")
	}
	return nil
}

func marshalTableOptions(o ots.TableOptions) []byte {
	var b []byte
	if v, ok := o.TimeToLive.Get(); ok {
		b = appendVarintField(b, 1, uint64(int64(v/time.Second)))
	}
	if v, ok := o.MaxVersions.Get(); ok {
		b = appendVarintField(b, 2, uint64(v))
	}
	if v, ok := o.MaxTimeDeviation.Get(); ok {
		b = appendVarintField(b, 5, uint64(int64(v/time.Second)))
	}
	return b
}

func unmarshalTableOptions(p []byte, o *ots.TableOptions) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			o.TimeToLive.Set(time.Duration(int32(d.varint())) * time.Second)
		case 2:
			o.MaxVersions.Set(int64(int32(d.varint())))
		case 5:
			o.MaxTimeDeviation.Set(time.Duration(int64(d.varint())) * time.Second)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("table options")
	}
	return nil
}

func marshalReservedThroughput(cu ots.CapacityUnit) []byte {
	return appendBytesField(nil, 1, marshalCapacityUnit(cu))
}

// unmarshalReservedThroughputDetails extracts the current capacity out of
// ReservedThroughputDetails { capacity_unit = 1, ... }.
func unmarshalReservedThroughputDetails(p []byte, cu *ots.CapacityUnit) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			if err := unmarshalCapacityUnit(d.bytes(), cu); err != nil {
				return err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("reserved throughput details")
	}
	return nil
}
