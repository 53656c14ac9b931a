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

// Package plainbuffer implements the tagged, length-prefixed,
// CRC8-checksummed binary row encoding used on the wire.
//
// A frame is a 4-byte little-endian header followed by zero or more rows.
// A row is a tagged row-key section, an optional tagged row-data
// section, an optional row-delete marker, and a row checksum covering
// every cell checksum plus the delete-marker byte. All multi-byte
// integers are little-endian.
//
// The numeric values of the tags below are fixed by the server protocol.
package plainbuffer

// frame header, little-endian uint32.
const header uint32 = 0x75

// Section and field tags, one byte each.
const (
	tagNone            byte = 0x0
	tagRowKey          byte = 0x1
	tagRowData         byte = 0x2
	tagCell            byte = 0x3
	tagCellName        byte = 0x4
	tagCellValue       byte = 0x5
	tagCellType        byte = 0x6
	tagCellTimestamp   byte = 0x7
	tagRowDeleteMarker byte = 0x8
	tagRowChecksum     byte = 0x9
	tagCellChecksum    byte = 0xA
)

// Variant tags inside a cell value.
const (
	vtInteger       byte = 0x0
	vtDouble        byte = 0x1
	vtBoolean       byte = 0x2
	vtString        byte = 0x3
	vtNull          byte = 0x6
	vtBlob          byte = 0x7
	vtInfMin        byte = 0x9
	vtInfMax        byte = 0xA
	vtAutoIncrement byte = 0xB
)

// Cell-type bytes for cell-level deletes in an update change.
const (
	cellDeleteAllVersions byte = 0x1
	cellDeleteOneVersion  byte = 0x3
)
