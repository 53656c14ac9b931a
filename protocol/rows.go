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

// Single-row and range envelopes.

func appendCriterion(b []byte, cr *ots.QueryCriterion) []byte {
	for _, c := range cr.ColumnsToGet {
		b = appendStringField(b, 3, c)
	}
	if tr, ok := cr.TimeRange.Get(); ok {
		b = appendBytesField(b, 4, marshalTimeRange(tr))
	}
	if v, ok := cr.MaxVersions.Get(); ok {
		b = appendVarintField(b, 5, uint64(v))
	}
	if v, ok := cr.CacheBlocks.Get(); ok {
		b = appendBoolField(b, 6, v)
	}
	return b
}

// MarshalGetRowRequest encodes
//
//	GetRowRequest { table_name = 1, primary_key = 2, columns_to_get = 3*,
//	                time_range = 4, max_versions = 5, cache_blocks = 6 }
func MarshalGetRowRequest(r *ots.GetRowRequest) ([]byte, error) {
	cr := &r.Criterion
	b := appendStringField(nil, 1, cr.TableName)
	b = appendBytesField(b, 2, plainbuffer.EncodePrimaryKey(cr.PrimaryKey))
	b = appendCriterion(b, &cr.QueryCriterion)
	return b, nil
}

// unmarshalRowField decodes an optional plainbuffer row body. The server
// sends an empty body when there is no row.
func unmarshalRowField(p []byte, out *ots.Optional[ots.Row]) error {
	if len(p) == 0 {
		return nil
	}
	row, err := plainbuffer.DecodeRow(p)
	if err != nil {
		return err
	}
	out.Set(row)
	return nil
}

// UnmarshalGetRowResponse decodes GetRowResponse { consumed = 1, row = 2 }.
func UnmarshalGetRowResponse(p []byte, r *ots.GetRowResponse) error {
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
			if err := unmarshalRowField(d.bytes(), &r.Row); err != nil {
				return err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("get-row response")
	}
	return nil
}

// MarshalPutRowRequest encodes
//
//	PutRowRequest { table_name = 1, row = 2, condition = 3,
//	                return_content = 4 }
func MarshalPutRowRequest(r *ots.PutRowRequest) ([]byte, error) {
	c := &r.Change
	b := appendStringField(nil, 1, c.TableName)
	b = appendBytesField(b, 2, plainbuffer.EncodeRowPut(c.PrimaryKey, c.Attributes))
	b = appendBytesField(b, 3, marshalCondition(c.Condition))
	if c.ReturnType != ots.ReturnNone {
		b = appendBytesField(b, 4, marshalReturnContent(c.ReturnType))
	}
	return b, nil
}

func unmarshalWriteResponse(p []byte, what string, cu *ots.CapacityUnit, row *ots.Optional[ots.Row]) error {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			if err := unmarshalConsumedCapacity(d.bytes(), cu); err != nil {
				return err
			}
		case 2:
			if err := unmarshalRowField(d.bytes(), row); err != nil {
				return err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt(what)
	}
	return nil
}

func UnmarshalPutRowResponse(p []byte, r *ots.PutRowResponse) error {
	return unmarshalWriteResponse(p, "put-row response", &r.ConsumedCapacity, &r.Row)
}

// MarshalUpdateRowRequest encodes
//
//	UpdateRowRequest { table_name = 1, row_change = 2, condition = 3,
//	                   return_content = 4 }
func MarshalUpdateRowRequest(r *ots.UpdateRowRequest) ([]byte, error) {
	c := &r.Change
	b := appendStringField(nil, 1, c.TableName)
	b = appendBytesField(b, 2, plainbuffer.EncodeRowUpdate(c.PrimaryKey, c.Updates))
	b = appendBytesField(b, 3, marshalCondition(c.Condition))
	if c.ReturnType != ots.ReturnNone {
		b = appendBytesField(b, 4, marshalReturnContent(c.ReturnType))
	}
	return b, nil
}

func UnmarshalUpdateRowResponse(p []byte, r *ots.UpdateRowResponse) error {
	return unmarshalWriteResponse(p, "update-row response", &r.ConsumedCapacity, &r.Row)
}

// MarshalDeleteRowRequest encodes
//
//	DeleteRowRequest { table_name = 1, primary_key = 2, condition = 3,
//	                   return_content = 4 }
func MarshalDeleteRowRequest(r *ots.DeleteRowRequest) ([]byte, error) {
	c := &r.Change
	b := appendStringField(nil, 1, c.TableName)
	b = appendBytesField(b, 2, plainbuffer.EncodeRowDelete(c.PrimaryKey))
	b = appendBytesField(b, 3, marshalCondition(c.Condition))
	if c.ReturnType != ots.ReturnNone {
		b = appendBytesField(b, 4, marshalReturnContent(c.ReturnType))
	}
	return b, nil
}

func UnmarshalDeleteRowResponse(p []byte, r *ots.DeleteRowResponse) error {
	return unmarshalWriteResponse(p, "delete-row response", &r.ConsumedCapacity, &r.Row)
}

// MarshalGetRangeRequest encodes
//
//	GetRangeRequest { table_name = 1, direction = 2, columns_to_get = 3*,
//	                  time_range = 4, max_versions = 5, cache_blocks = 6,
//	                  limit = 7, inclusive_start_primary_key = 8,
//	                  exclusive_end_primary_key = 9 }
func MarshalGetRangeRequest(r *ots.GetRangeRequest) ([]byte, error) {
	cr := &r.Criterion
	b := appendStringField(nil, 1, cr.TableName)
	b = appendVarintField(b, 2, uint64(cr.Direction))
	b = appendCriterion(b, &cr.QueryCriterion)
	if v, ok := cr.Limit.Get(); ok {
		b = appendVarintField(b, 7, uint64(v))
	}
	b = appendBytesField(b, 8, plainbuffer.EncodePrimaryKey(cr.InclusiveStart))
	b = appendBytesField(b, 9, plainbuffer.EncodePrimaryKey(cr.ExclusiveEnd))
	return b, nil
}

// UnmarshalGetRangeResponse decodes
//
//	GetRangeResponse { consumed = 1, rows = 2,
//	                   next_start_primary_key = 3 }
func UnmarshalGetRangeResponse(p []byte, r *ots.GetRangeResponse) error {
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
			body := d.bytes()
			if len(body) == 0 {
				break
			}
			rows, err := plainbuffer.DecodeRows(body)
			if err != nil {
				return err
			}
			r.Rows = rows
		case 3:
			body := d.bytes()
			if len(body) == 0 {
				break
			}
			row, err := plainbuffer.DecodeRow(body)
			if err != nil {
				return err
			}
			r.NextStart.Set(row.PrimaryKey)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("get-range response")
	}
	return nil
}
