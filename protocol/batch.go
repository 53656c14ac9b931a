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

// Batch envelopes. The wire groups rows by table; the SDK API keeps them
// in flat request order. Marshalling and demultiplexing share one
// deterministic plan so results land back on the right entries.

// MarshalBatchGetRowRequest encodes
//
//	BatchGetRowRequest { tables = 1* }
//	TableInBatchGetRowRequest { table_name = 1, primary_key = 2*,
//	    columns_to_get = 3*, time_range = 4, max_versions = 5,
//	    cache_blocks = 6 }
func MarshalBatchGetRowRequest(r *ots.BatchGetRowRequest) ([]byte, error) {
	var b []byte
	for i := range r.Criteria {
		cr := &r.Criteria[i]
		t := appendStringField(nil, 1, cr.TableName)
		for _, pk := range cr.PrimaryKeys {
			t = appendBytesField(t, 2, plainbuffer.EncodePrimaryKey(pk))
		}
		t = appendCriterion(t, &cr.QueryCriterion)
		b = appendBytesField(b, 1, t)
	}
	return b, nil
}

// rowResult is the shared shape of per-row results in batch responses:
//
//	{ is_ok = 1, error = 2, consumed = 3, row = 4 }
type rowResult struct {
	isOK     bool
	errCode  string
	errMsg   string
	consumed ots.CapacityUnit
	row      ots.Optional[ots.Row]
}

func unmarshalRowResult(p []byte) (rowResult, error) {
	var res rowResult
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			res.isOK = d.varint() == 1
		case 2:
			var ok bool
			res.errCode, res.errMsg, ok = UnmarshalError(d.bytes())
			if !ok {
				return res, corrupt("row-level error")
			}
		case 3:
			if err := unmarshalConsumedCapacity(d.bytes(), &res.consumed); err != nil {
				return res, err
			}
		case 4:
			if err := unmarshalRowField(d.bytes(), &res.row); err != nil {
				return res, err
			}
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return res, corrupt("row result")
	}
	return res, nil
}

// unmarshalResultTable decodes one TableInBatch*Response
// { table_name = 1, rows = 2* }.
func unmarshalResultTable(p []byte) (name string, rows []rowResult, err error) {
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			name = string(d.bytes())
		case 2:
			res, err := unmarshalRowResult(d.bytes())
			if err != nil {
				return "", nil, err
			}
			rows = append(rows, res)
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return "", nil, corrupt("batch result table")
	}
	return name, rows, nil
}

// UnmarshalBatchGetRowResponse decodes BatchGetRowResponse { tables = 1* }
// back onto the criteria order of req.
func UnmarshalBatchGetRowResponse(p []byte, req *ots.BatchGetRowRequest, r *ots.BatchGetRowResponse) error {
	byTable := map[string][]rowResult{}
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			name, rows, err := unmarshalResultTable(d.bytes())
			if err != nil {
				return err
			}
			byTable[name] = rows
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("batch-get response")
	}

	r.Results = make([][]ots.BatchGetRowResult, len(req.Criteria))
	for i := range req.Criteria {
		cr := &req.Criteria[i]
		rows := byTable[cr.TableName]
		if len(rows) != len(cr.PrimaryKeys) {
			return corrupt("batch-get response (row count mismatch)")
		}
		out := make([]ots.BatchGetRowResult, len(rows))
		for j, res := range rows {
			out[j] = ots.BatchGetRowResult{
				ConsumedCapacity: res.consumed,
				Row:              res.row,
			}
			if !res.isOK {
				out[j].Error = &ots.Error{Code: res.errCode, Message: res.errMsg}
			}
		}
		r.Results[i] = out
	}
	return nil
}

// Operation types inside a batch write.
const (
	opPut    = 1
	opUpdate = 2
	opDelete = 3
)

// batchWriteEntry points back into one of the request's flat slices.
type batchWriteEntry struct {
	op    int
	index int
}

// batchWritePlan groups the request's rows by table, tables ordered by
// first appearance, scanning puts, then updates, then deletes. Both
// marshalling and demultiplexing derive the same plan from the request.
func batchWritePlan(r *ots.BatchWriteRowRequest) (tables []string, entries map[string][]batchWriteEntry) {
	entries = map[string][]batchWriteEntry{}
	add := func(table string, e batchWriteEntry) {
		if _, seen := entries[table]; !seen {
			tables = append(tables, table)
		}
		entries[table] = append(entries[table], e)
	}
	for i := range r.Puts {
		add(r.Puts[i].TableName, batchWriteEntry{opPut, i})
	}
	for i := range r.Updates {
		add(r.Updates[i].TableName, batchWriteEntry{opUpdate, i})
	}
	for i := range r.Deletes {
		add(r.Deletes[i].TableName, batchWriteEntry{opDelete, i})
	}
	return tables, entries
}

// MarshalBatchWriteRowRequest encodes
//
//	BatchWriteRowRequest { tables = 1* }
//	TableInBatchWriteRowRequest { table_name = 1, rows = 2* }
//	RowInBatchWriteRowRequest { type = 1, row_change = 2, condition = 3,
//	    return_content = 4 }
func MarshalBatchWriteRowRequest(r *ots.BatchWriteRowRequest) ([]byte, error) {
	tables, entries := batchWritePlan(r)
	var b []byte
	for _, table := range tables {
		t := appendStringField(nil, 1, table)
		for _, e := range entries[table] {
			var body []byte
			var cond ots.Condition
			var rt ots.ReturnType
			switch e.op {
			case opPut:
				c := &r.Puts[e.index]
				body = plainbuffer.EncodeRowPut(c.PrimaryKey, c.Attributes)
				cond, rt = c.Condition, c.ReturnType
			case opUpdate:
				c := &r.Updates[e.index]
				body = plainbuffer.EncodeRowUpdate(c.PrimaryKey, c.Updates)
				cond, rt = c.Condition, c.ReturnType
			case opDelete:
				c := &r.Deletes[e.index]
				body = plainbuffer.EncodeRowDelete(c.PrimaryKey)
				cond, rt = c.Condition, c.ReturnType
			}
			row := appendVarintField(nil, 1, uint64(e.op))
			row = appendBytesField(row, 2, body)
			row = appendBytesField(row, 3, marshalCondition(cond))
			if rt != ots.ReturnNone {
				row = appendBytesField(row, 4, marshalReturnContent(rt))
			}
			t = appendBytesField(t, 2, row)
		}
		b = appendBytesField(b, 1, t)
	}
	return b, nil
}

// UnmarshalBatchWriteRowResponse decodes BatchWriteRowResponse
// { tables = 1* } and lands each per-row result back on the request slice
// it came from.
func UnmarshalBatchWriteRowResponse(p []byte, req *ots.BatchWriteRowRequest, r *ots.BatchWriteRowResponse) error {
	byTable := map[string][]rowResult{}
	d := &decoder{p: p}
	for {
		num, typ, more := d.next()
		if !more {
			break
		}
		switch num {
		case 1:
			name, rows, err := unmarshalResultTable(d.bytes())
			if err != nil {
				return err
			}
			byTable[name] = rows
		default:
			d.skip(num, typ)
		}
	}
	if !d.ok() {
		return corrupt("batch-write response")
	}

	r.PutResults = make([]ots.BatchWriteRowResult, len(req.Puts))
	r.UpdateResults = make([]ots.BatchWriteRowResult, len(req.Updates))
	r.DeleteResults = make([]ots.BatchWriteRowResult, len(req.Deletes))

	tables, entries := batchWritePlan(req)
	for _, table := range tables {
		rows := byTable[table]
		if len(rows) != len(entries[table]) {
			return corrupt("batch-write response (row count mismatch)")
		}
		for k, e := range entries[table] {
			res := rows[k]
			out := ots.BatchWriteRowResult{
				ConsumedCapacity: res.consumed,
				Row:              res.row,
			}
			if !res.isOK {
				out.Error = &ots.Error{Code: res.errCode, Message: res.errMsg}
			}
			switch e.op {
			case opPut:
				r.PutResults[e.index] = out
			case opUpdate:
				r.UpdateResults[e.index] = out
			case opDelete:
				r.DeleteResults[e.index] = out
			}
		}
	}
	return nil
}
