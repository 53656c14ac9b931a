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
	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/plainbuffer"
)

// Table-administration envelopes.

// MarshalCreateTableRequest encodes
//
//	CreateTableRequest { table_meta = 1, reserved_throughput = 2,
//	                     table_options = 3, partitions = 4* }
func MarshalCreateTableRequest(r *ots.CreateTableRequest) ([]byte, error) {
	b := appendBytesField(nil, 1, marshalTableMeta(r.Meta))
	rt, _ := r.Options.ReservedThroughput.Get()
	b = appendBytesField(b, 2, marshalReservedThroughput(rt))
	b = appendBytesField(b, 3, marshalTableOptions(r.Options))
	for _, sp := range r.ShardSplitPoints {
		b = appendBytesField(b, 4, plainbuffer.EncodePrimaryKey(sp))
	}
	return b, nil
}

func UnmarshalCreateTableResponse(p []byte, r *ots.CreateTableResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		d.skip(num, typ)
	}
	if !d.ok() {
		return corrupt("create-table response")
	}
	return nil
}

func MarshalListTableRequest(r *ots.ListTableRequest) ([]byte, error) {
	return nil, nil
}

// UnmarshalListTableResponse decodes ListTableResponse { table_names = 1* }.
func UnmarshalListTableResponse(p []byte, r *ots.ListTableResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			r.Tables = append(r.Tables, string(d.bytes()))
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("list-table response")
	}
	return nil
}

func MarshalDeleteTableRequest(r *ots.DeleteTableRequest) ([]byte, error) {
	return appendStringField(nil, 1, r.TableName), nil
}

func UnmarshalDeleteTableResponse(p []byte, r *ots.DeleteTableResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		d.skip(num, typ)
	}
	if !d.ok() {
		return corrupt("delete-table response")
	}
	return nil
}

func MarshalDescribeTableRequest(r *ots.DescribeTableRequest) ([]byte, error) {
	return appendStringField(nil, 1, r.TableName), nil
}

// UnmarshalDescribeTableResponse decodes
//
//	DescribeTableResponse { table_meta = 1, reserved_throughput_details = 2,
//	                        table_options = 3, table_status = 4,
//	                        shard_splits = 5* }
func UnmarshalDescribeTableResponse(p []byte, r *ots.DescribeTableResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			if err := unmarshalTableMeta(d.bytes(), &r.Meta); err != nil {
				return err
			}
		case 2:
			var cu ots.CapacityUnit
			if err := unmarshalReservedThroughputDetails(d.bytes(), &cu); err != nil {
				return err
			}
			r.Options.ReservedThroughput.Set(cu)
		case 3:
			if err := unmarshalTableOptions(d.bytes(), &r.Options); err != nil {
				return err
			}
		case 4:
			r.Status = ots.TableStatus(d.varint())
		case 5:
			row, err := plainbuffer.DecodeRow(d.bytes())
			if err != nil {
				return err
			}
			r.ShardSplitPoints = append(r.ShardSplitPoints, row.PrimaryKey)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("describe-table response")
	}
	return nil
}

func MarshalUpdateTableRequest(r *ots.UpdateTableRequest) ([]byte, error) {
	b := appendStringField(nil, 1, r.TableName)
	if rt, ok := r.Options.ReservedThroughput.Get(); ok {
		b = appendBytesField(b, 2, marshalReservedThroughput(rt))
	}
	b = appendBytesField(b, 3, marshalTableOptions(r.Options))
	return b, nil
}

func UnmarshalUpdateTableResponse(p []byte, r *ots.UpdateTableResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			var cu ots.CapacityUnit
			if err := unmarshalReservedThroughputDetails(d.bytes(), &cu); err != nil {
				return err
			}
			r.Options.ReservedThroughput.Set(cu)
		case 2:
			if err := unmarshalTableOptions(d.bytes(), &r.Options); err != nil {
				return err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("update-table response")
	}
	return nil
}

func MarshalComputeSplitsBySizeRequest(r *ots.ComputeSplitsBySizeRequest) ([]byte, error) {
	b := appendStringField(nil, 1, r.TableName)
	b = appendVarintField(b, 2, uint64(r.SplitSize))
	return b, nil
}

// UnmarshalComputeSplitsBySizeResponse decodes
//
//	ComputeSplitPointsBySizeResponse { consumed = 1, schema = 2*,
//	                                   split_points = 3*, locations = 4* }
func UnmarshalComputeSplitsBySizeResponse(p []byte, r *ots.ComputeSplitsBySizeResponse) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			if err := unmarshalConsumedCapacity(d.bytes(), &r.ConsumedCapacity); err != nil {
				return err
			}
		case 2:
			var s ots.PrimaryKeyColumnSchema
			if err := unmarshalPrimaryKeySchema(d.bytes(), &s); err != nil {
				return err
			}
			r.Schema = append(r.Schema, s)
		case 3:
			row, err := plainbuffer.DecodeRow(d.bytes())
			if err != nil {
				return err
			}
			r.SplitPoints = append(r.SplitPoints, row.PrimaryKey)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("compute-splits response")
	}
	return nil
}
