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

	"go.tablestore.dev/ots"
)

// The encoder assumes its input already passed request validation: value
// categories are never None, and floats are finite. Violations are
// programming errors and panic.

type writer struct {
	buf []byte
}

func (w *writer) u8(v byte)    { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) header() { w.u32(header) }

// cellName writes the name with its length prefix and feeds the name
// bytes (not the length) to the cell checksum.
func (w *writer) cellName(name string, crc byte) byte {
	w.u8(tagCellName)
	w.u32(uint32(len(name)))
	w.buf = append(w.buf, name...)
	return crc8Bytes(crc, []byte(name))
}

func (w *writer) intValue(v int64, crc byte) byte {
	w.u32(1 + 8)
	w.u8(vtInteger)
	w.u64(uint64(v))
	crc = crc8(crc, vtInteger)
	return crc8U64(crc, uint64(v))
}

func (w *writer) strBlobValue(vt byte, p []byte, crc byte) byte {
	w.u32(uint32(1 + 4 + len(p)))
	w.u8(vt)
	w.u32(uint32(len(p)))
	w.buf = append(w.buf, p...)
	crc = crc8(crc, vt)
	crc = crc8U32(crc, uint32(len(p)))
	return crc8Bytes(crc, p)
}

func (w *writer) fpValue(v float64, crc byte) byte {
	bits := math.Float64bits(v)
	w.u32(1 + 8)
	w.u8(vtDouble)
	w.u64(bits)
	crc = crc8(crc, vtDouble)
	return crc8U64(crc, bits)
}

func (w *writer) boolValue(v bool, crc byte) byte {
	var x byte
	if v {
		x = 1
	}
	w.u32(2)
	w.u8(vtBoolean)
	w.u8(x)
	crc = crc8(crc, vtBoolean)
	return crc8(crc, x)
}

// specialValue writes a payload-free variant (infinities, auto-increment).
func (w *writer) specialValue(vt byte, crc byte) byte {
	w.u32(1)
	w.u8(vt)
	return crc8(crc, vt)
}

func (w *writer) primaryKeyValue(v ots.PrimaryKeyValue, crc byte) byte {
	w.u8(tagCellValue)
	switch v.Category() {
	case ots.PKInteger:
		return w.intValue(v.Int(), crc)
	case ots.PKString:
		return w.strBlobValue(vtString, []byte(v.Str()), crc)
	case ots.PKBinary:
		return w.strBlobValue(vtBlob, v.Blob(), crc)
	case ots.PKInfMin:
		return w.specialValue(vtInfMin, crc)
	case ots.PKInfMax:
		return w.specialValue(vtInfMax, crc)
	case ots.PKAutoIncrement:
		return w.specialValue(vtAutoIncrement, crc)
	}
	panic(fmt.Sprintf("unencodable primary-key value category %v", v.Category()))
}

func (w *writer) attrValue(v ots.AttributeValue, crc byte) byte {
	w.u8(tagCellValue)
	switch v.Category() {
	case ots.AttrInteger:
		return w.intValue(v.Int(), crc)
	case ots.AttrString:
		return w.strBlobValue(vtString, []byte(v.Str()), crc)
	case ots.AttrBinary:
		return w.strBlobValue(vtBlob, v.Blob(), crc)
	case ots.AttrFloat:
		return w.fpValue(v.FloatPoint(), crc)
	case ots.AttrBoolean:
		return w.boolValue(v.Bool(), crc)
	}
	panic(fmt.Sprintf("unencodable attribute value category %v", v.Category()))
}

func (w *writer) cellChecksum(crc byte) {
	w.u8(tagCellChecksum)
	w.u8(crc)
}

// primaryKey writes the row-key section and folds each cell checksum
// into rowCRC.
func (w *writer) primaryKey(pk ots.PrimaryKey, rowCRC byte) byte {
	w.u8(tagRowKey)
	for _, c := range pk {
		cellCRC := byte(0)
		w.u8(tagCell)
		cellCRC = w.cellName(c.Name, cellCRC)
		cellCRC = w.primaryKeyValue(c.Value, cellCRC)
		w.cellChecksum(cellCRC)
		rowCRC = crc8(rowCRC, cellCRC)
	}
	return rowCRC
}

func (w *writer) attributes(attrs []ots.Attribute, rowCRC byte) byte {
	if len(attrs) == 0 {
		return rowCRC
	}
	w.u8(tagRowData)
	for _, a := range attrs {
		cellCRC := byte(0)
		w.u8(tagCell)
		cellCRC = w.cellName(a.Name, cellCRC)
		cellCRC = w.attrValue(a.Value, cellCRC)
		if ts, ok := a.Timestamp.Get(); ok {
			msec := uint64(ts.UnixMilli())
			w.u8(tagCellTimestamp)
			w.u64(msec)
			cellCRC = crc8U64(cellCRC, msec)
		}
		w.cellChecksum(cellCRC)
		rowCRC = crc8(rowCRC, cellCRC)
	}
	return rowCRC
}

func (w *writer) updates(ups []ots.RowUpdate, rowCRC byte) byte {
	if len(ups) == 0 {
		return rowCRC
	}
	w.u8(tagRowData)
	for _, u := range ups {
		cellCRC := byte(0)
		w.u8(tagCell)
		cellCRC = w.cellName(u.Name, cellCRC)
		if v, ok := u.Value.Get(); ok {
			cellCRC = w.attrValue(v, cellCRC)
		}
		switch u.Op {
		case ots.UpdateDelete:
			w.u8(tagCellType)
			w.u8(cellDeleteOneVersion)
		case ots.UpdateDeleteAll:
			w.u8(tagCellType)
			w.u8(cellDeleteAllVersions)
		}
		var msec uint64
		ts, hasTs := u.Timestamp.Get()
		if hasTs {
			msec = uint64(ts.UnixMilli())
			w.u8(tagCellTimestamp)
			w.u64(msec)
		}
		// The checksum folds the timestamp before the cell-type byte,
		// opposite to their order on the wire. The server computes it
		// this way.
		if hasTs {
			cellCRC = crc8U64(cellCRC, msec)
		}
		switch u.Op {
		case ots.UpdateDelete:
			cellCRC = crc8(cellCRC, cellDeleteOneVersion)
		case ots.UpdateDeleteAll:
			cellCRC = crc8(cellCRC, cellDeleteAllVersions)
		}
		w.cellChecksum(cellCRC)
		rowCRC = crc8(rowCRC, cellCRC)
	}
	return rowCRC
}

func (w *writer) rowChecksum(crc byte) {
	w.u8(tagRowChecksum)
	w.u8(crc)
}

// EncodePrimaryKey encodes a frame holding a single row with only a
// primary key. Used for point reads and range endpoints.
func EncodePrimaryKey(pk ots.PrimaryKey) []byte {
	w := &writer{}
	w.header()
	rowCRC := w.primaryKey(pk, 0)
	rowCRC = crc8(rowCRC, 0) // not a delete
	w.rowChecksum(rowCRC)
	return w.buf
}

// EncodeRowPut encodes a whole-row write.
func EncodeRowPut(pk ots.PrimaryKey, attrs []ots.Attribute) []byte {
	w := &writer{}
	w.header()
	rowCRC := w.primaryKey(pk, 0)
	rowCRC = w.attributes(attrs, rowCRC)
	rowCRC = crc8(rowCRC, 0) // not a delete
	w.rowChecksum(rowCRC)
	return w.buf
}

// EncodeRowUpdate encodes a cell-level update change.
func EncodeRowUpdate(pk ots.PrimaryKey, ups []ots.RowUpdate) []byte {
	w := &writer{}
	w.header()
	rowCRC := w.primaryKey(pk, 0)
	rowCRC = w.updates(ups, rowCRC)
	rowCRC = crc8(rowCRC, 0) // not a row delete
	w.rowChecksum(rowCRC)
	return w.buf
}

// EncodeRowDelete encodes a whole-row delete: the row-delete marker is
// written and a 1 folded into the row checksum.
func EncodeRowDelete(pk ots.PrimaryKey) []byte {
	w := &writer{}
	w.header()
	rowCRC := w.primaryKey(pk, 0)
	w.u8(tagRowDeleteMarker)
	rowCRC = crc8(rowCRC, 1)
	w.rowChecksum(rowCRC)
	return w.buf
}
