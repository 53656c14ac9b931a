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

package plainbuffer

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.tablestore.dev/ots"
)

// The decoder is strict: any tag mismatch, length overflow, checksum
// mismatch, variant disallowed in context, or trailing input fails with
// an error of code CorruptedResponse carrying the source offset.

type reader struct {
	buf []byte
	pos int
}

func (r *reader) corrupt(format string, args ...any) error {
	return &ots.Error{
		Code: ots.ErrCodeCorruptedResponse,
		Message: fmt.Sprintf("corrupted plain buffer at offset %d: %s",
			r.pos, fmt.Sprintf(format, args...)),
	}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u8() (byte, error) {
	if r.remaining() < 1 {
		return 0, r.corrupt("truncated byte")
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, r.corrupt("truncated uint32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, r.corrupt("truncated uint64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) bytes(n uint32) ([]byte, error) {
	if uint32(r.remaining()) < n {
		return nil, r.corrupt("truncated %d-byte field", n)
	}
	p := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return p, nil
}

func (r *reader) peek(tag byte) bool {
	return r.remaining() >= 1 && r.buf[r.pos] == tag
}

func (r *reader) expectTag(tag byte) error {
	got, err := r.u8()
	if err != nil {
		return err
	}
	if got != tag {
		r.pos--
		return r.corrupt("expect tag %#x, got %#x", tag, got)
	}
	return nil
}

func (r *reader) readHeader() error {
	h, err := r.u32()
	if err != nil {
		return err
	}
	if h != header {
		r.pos -= 4
		return r.corrupt("bad frame header %#x", h)
	}
	return nil
}

// cellName reads a name and feeds its bytes to the cell checksum.
func (r *reader) cellName(crc byte) (string, byte, error) {
	if err := r.expectTag(tagCellName); err != nil {
		return "", 0, err
	}
	n, err := r.u32()
	if err != nil {
		return "", 0, err
	}
	p, err := r.bytes(n)
	if err != nil {
		return "", 0, err
	}
	return string(p), crc8Bytes(crc, p), nil
}

// valueVariant reads the 4-byte value-length placeholder and the
// variant tag. The placeholder is not authoritative; the per-variant
// parse consumes the body.
func (r *reader) valueVariant() (byte, error) {
	if err := r.expectTag(tagCellValue); err != nil {
		return 0, err
	}
	if _, err := r.u32(); err != nil {
		return 0, err
	}
	return r.u8()
}

func (r *reader) blobBody(crc byte) ([]byte, byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	p, err := r.bytes(n)
	if err != nil {
		return nil, 0, err
	}
	crc = crc8U32(crc, n)
	crc = crc8Bytes(crc, p)
	return p, crc, nil
}

func (r *reader) primaryKeyValue(crc byte) (ots.PrimaryKeyValue, byte, error) {
	var zero ots.PrimaryKeyValue
	vt, err := r.valueVariant()
	if err != nil {
		return zero, 0, err
	}
	switch vt {
	case vtInteger:
		v, err := r.u64()
		if err != nil {
			return zero, 0, err
		}
		crc = crc8(crc, vtInteger)
		crc = crc8U64(crc, v)
		return ots.PKInt(int64(v)), crc, nil
	case vtString:
		crc = crc8(crc, vtString)
		p, crc, err := r.blobBody(crc)
		if err != nil {
			return zero, 0, err
		}
		return ots.PKStr(string(p)), crc, nil
	case vtBlob:
		crc = crc8(crc, vtBlob)
		p, crc, err := r.blobBody(crc)
		if err != nil {
			return zero, 0, err
		}
		return ots.PKBlob(append([]byte(nil), p...)), crc, nil
	}
	r.pos--
	return zero, 0, r.corrupt("variant %#x is not allowed in a row-key cell", vt)
}

func (r *reader) attrValue(crc byte) (ots.AttributeValue, byte, error) {
	var zero ots.AttributeValue
	vt, err := r.valueVariant()
	if err != nil {
		return zero, 0, err
	}
	switch vt {
	case vtInteger:
		v, err := r.u64()
		if err != nil {
			return zero, 0, err
		}
		crc = crc8(crc, vtInteger)
		crc = crc8U64(crc, v)
		return ots.AttrInt(int64(v)), crc, nil
	case vtString:
		crc = crc8(crc, vtString)
		p, crc, err := r.blobBody(crc)
		if err != nil {
			return zero, 0, err
		}
		return ots.AttrStr(string(p)), crc, nil
	case vtBlob:
		crc = crc8(crc, vtBlob)
		p, crc, err := r.blobBody(crc)
		if err != nil {
			return zero, 0, err
		}
		return ots.AttrBlob(append([]byte(nil), p...)), crc, nil
	case vtDouble:
		bits, err := r.u64()
		if err != nil {
			return zero, 0, err
		}
		crc = crc8(crc, vtDouble)
		crc = crc8U64(crc, bits)
		return ots.AttrFloatPoint(math.Float64frombits(bits)), crc, nil
	case vtBoolean:
		b, err := r.u8()
		if err != nil {
			return zero, 0, err
		}
		crc = crc8(crc, vtBoolean)
		var x byte
		if b != 0 {
			x = 1
		}
		crc = crc8(crc, x)
		return ots.AttrBool(b != 0), crc, nil
	}
	r.pos--
	return zero, 0, r.corrupt("variant %#x is not allowed in a row-data cell", vt)
}

func (r *reader) cellChecksum(crc byte) error {
	if err := r.expectTag(tagCellChecksum); err != nil {
		return err
	}
	oracle, err := r.u8()
	if err != nil {
		return err
	}
	if crc != oracle {
		r.pos--
		return r.corrupt("cell checksum mismatch: computed %#x, stored %#x", crc, oracle)
	}
	return nil
}

func (r *reader) primaryKeyColumn(rowCRC byte) (ots.PrimaryKeyColumn, byte, error) {
	var zero ots.PrimaryKeyColumn
	if err := r.expectTag(tagCell); err != nil {
		return zero, 0, err
	}
	cellCRC := byte(0)
	name, cellCRC, err := r.cellName(cellCRC)
	if err != nil {
		return zero, 0, err
	}
	value, cellCRC, err := r.primaryKeyValue(cellCRC)
	if err != nil {
		return zero, 0, err
	}
	if err := r.cellChecksum(cellCRC); err != nil {
		return zero, 0, err
	}
	return ots.PrimaryKeyColumn{Name: name, Value: value}, crc8(rowCRC, cellCRC), nil
}

func (r *reader) rowKey(rowCRC byte) (ots.PrimaryKey, byte, error) {
	if err := r.expectTag(tagRowKey); err != nil {
		return nil, 0, err
	}
	var pk ots.PrimaryKey
	for r.peek(tagCell) {
		col, crc, err := r.primaryKeyColumn(rowCRC)
		if err != nil {
			return nil, 0, err
		}
		pk = append(pk, col)
		rowCRC = crc
	}
	return pk, rowCRC, nil
}

func (r *reader) attribute(rowCRC byte) (ots.Attribute, byte, error) {
	var zero ots.Attribute
	if err := r.expectTag(tagCell); err != nil {
		return zero, 0, err
	}
	cellCRC := byte(0)
	name, cellCRC, err := r.cellName(cellCRC)
	if err != nil {
		return zero, 0, err
	}
	value, cellCRC, err := r.attrValue(cellCRC)
	if err != nil {
		return zero, 0, err
	}
	attr := ots.Attribute{Name: name, Value: value}
	if r.peek(tagCellTimestamp) {
		r.pos++
		msec, err := r.u64()
		if err != nil {
			return zero, 0, err
		}
		cellCRC = crc8U64(cellCRC, msec)
		attr.Timestamp = ots.Value(time.UnixMilli(int64(msec)).UTC())
	}
	if err := r.cellChecksum(cellCRC); err != nil {
		return zero, 0, err
	}
	return attr, crc8(rowCRC, cellCRC), nil
}

func (r *reader) row() (ots.Row, error) {
	var row ots.Row
	rowCRC := byte(0)

	pk, rowCRC, err := r.rowKey(rowCRC)
	if err != nil {
		return row, err
	}
	row.PrimaryKey = pk

	if r.peek(tagRowData) {
		r.pos++
		for r.peek(tagCell) {
			attr, crc, err := r.attribute(rowCRC)
			if err != nil {
				return row, err
			}
			row.Attributes = append(row.Attributes, attr)
			rowCRC = crc
		}
	}

	rowCRC = crc8(rowCRC, 0) // rows read back are never deletes

	if err := r.expectTag(tagRowChecksum); err != nil {
		return row, err
	}
	oracle, err := r.u8()
	if err != nil {
		return row, err
	}
	if rowCRC != oracle {
		r.pos--
		return row, r.corrupt("row checksum mismatch: computed %#x, stored %#x", rowCRC, oracle)
	}
	return row, nil
}

// DecodeRow decodes a frame holding exactly one row.
func DecodeRow(p []byte) (ots.Row, error) {
	r := &reader{buf: p}
	if err := r.readHeader(); err != nil {
		return ots.Row{}, err
	}
	row, err := r.row()
	if err != nil {
		return ots.Row{}, err
	}
	if r.remaining() != 0 {
		return ots.Row{}, r.corrupt("%d trailing bytes", r.remaining())
	}
	return row, nil
}

// DecodeRows decodes a frame holding zero or more rows.
func DecodeRows(p []byte) ([]ots.Row, error) {
	r := &reader{buf: p}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	var rows []ots.Row
	for r.remaining() > 0 {
		row, err := r.row()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
