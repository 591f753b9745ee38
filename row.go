// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"fmt"
	"math"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindU8
	kindI8
	kindU16
	kindI16
	kindU32
	kindI32
	kindU64
	kindI64
	kindFloat
	kindDouble
	kindStringOffset // string pointer not yet resolved against a pool
	kindString       // resolved string bytes
	kindData
)

// RowValue is a tagged union over every value a UTF column can hold:
// signed/unsigned integers of width 1/2/4/8, float, double, a string
// (either a raw pool offset or already-resolved bytes), a data-blob
// descriptor (offset+length into the data pool), or None for columns
// whose storage mode is StorageNone.
type RowValue struct {
	kind valueKind

	u uint64
	i int64
	f float64

	str []byte

	dataOffset uint32
	dataLength uint32
}

func (v RowValue) IsNone() bool { return v.kind == kindNone }

// Uint returns the value as a uint64 for any integer kind.
func (v RowValue) Uint() (uint64, bool) {
	switch v.kind {
	case kindU8, kindU16, kindU32, kindU64:
		return v.u, true
	case kindI8, kindI16, kindI32, kindI64:
		return uint64(v.i), true
	}
	return 0, false
}

// Int returns the value as an int64 for any integer kind; unsigned values
// are converted with int64(), so values above math.MaxInt64 wrap.
func (v RowValue) Int() (int64, bool) {
	switch v.kind {
	case kindI8, kindI16, kindI32, kindI64:
		return v.i, true
	case kindU8, kindU16, kindU32, kindU64:
		return int64(v.u), true
	}
	return 0, false
}

// Float returns the value for TypeFloat/TypeDouble columns.
func (v RowValue) Float() (float64, bool) {
	if v.kind == kindFloat || v.kind == kindDouble {
		return v.f, true
	}
	return 0, false
}

// StringOffset returns the raw string-pool offset for a column whose
// string has not yet been resolved (parseRows given no string pool, or a
// CONSTANT default before resolution). ParseTable always supplies a pool,
// so the rows it returns hold resolved strings. ok is false once the value
// has been resolved or is not a string.
func (v RowValue) StringOffset() (uint32, bool) {
	if v.kind == kindStringOffset {
		return uint32(v.u), true
	}
	return 0, false
}

// String returns the resolved string bytes, when available.
func (v RowValue) String() (string, bool) {
	if v.kind == kindString {
		return string(v.str), true
	}
	return "", false
}

// Data returns the (offset, length) data-pool descriptor for a TypeData
// column. Callers read at header.AbsDataPoolOffset()+offset in the
// underlying stream to materialize the blob; it is never eagerly read here.
func (v RowValue) Data() (offset, length uint32, ok bool) {
	if v.kind == kindData {
		return v.dataOffset, v.dataLength, true
	}
	return 0, 0, false
}

func float32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }
func float64FromBits(bits uint64) float64 { return math.Float64frombits(bits) }

// Row is one parsed table row: one RowValue per column, in column order.
type Row []RowValue

// parseRows decodes header.RowCount rows from the row block starting at
// header.RowsOffset, taken as an offset into the body window as passed
// (parseTableAt shifts it past the outer frame before calling).
// Columns with StoragePerRow consume bytes from the current row's stride;
// all other storage modes are resolved without advancing the cursor. If
// pool is non-nil, TypeString values are resolved to their string bytes
// immediately; otherwise the raw pool offset is retained on the value for
// later resolution.
func parseRows(body window, header *TableHeader, cols []Column, pool StringPool) ([]Row, error) {
	rows := make([]Row, header.RowCount)
	stride := uint32(header.RowStride)

	for r := uint32(0); r < header.RowCount; r++ {
		rowStart := header.RowsOffset + r*stride
		cursor := rowStart
		row := make(Row, len(cols))

		for ci, col := range cols {
			switch col.Storage {
			case StorageNone:
				row[ci] = RowValue{kind: kindNone}
			case StorageZero:
				row[ci] = zeroValue(col.Type)
			case StorageConstant:
				row[ci] = col.Default
			case StoragePerRow:
				val, n, err := decodeInlineValue(body, cursor, col.Type)
				if err != nil {
					return nil, fmt.Errorf("row %d column %d: %w", r, ci, err)
				}
				if val.kind == kindStringOffset && pool != nil {
					s, ok := pool.GetString(uint32(val.u))
					if !ok {
						return nil, fmt.Errorf("row %d column %d: %w: string offset %d", r, ci, ErrOutOfBounds, val.u)
					}
					val = RowValue{kind: kindString, str: s}
				}
				row[ci] = val
				cursor += n
			default:
				return nil, fmt.Errorf("row %d column %d: %w: storage flag 0x%02X", r, ci, ErrUnknownType, col.Storage)
			}
		}

		if cursor-rowStart != stride {
			return nil, fmt.Errorf("%w: row %d consumed %d bytes, want %d", ErrRowStrideMismatch, r, cursor-rowStart, stride)
		}

		rows[r] = row
	}

	return rows, nil
}

func zeroValue(typ ValueType) RowValue {
	switch typ {
	case TypeU8, TypeU16, TypeU32, TypeU64:
		return RowValue{kind: kindOfUnsigned(typ), u: 0}
	case TypeI8, TypeI16, TypeI32, TypeI64:
		return RowValue{kind: kindOfSigned(typ), i: 0}
	case TypeFloat:
		return RowValue{kind: kindFloat, f: 0}
	case TypeDouble:
		return RowValue{kind: kindDouble, f: 0}
	case TypeString:
		return RowValue{kind: kindString, str: nil}
	case TypeData:
		return RowValue{kind: kindData, dataOffset: 0, dataLength: 0}
	default:
		return RowValue{kind: kindNone}
	}
}

func kindOfUnsigned(typ ValueType) valueKind {
	switch typ {
	case TypeU8:
		return kindU8
	case TypeU16:
		return kindU16
	case TypeU32:
		return kindU32
	default:
		return kindU64
	}
}

func kindOfSigned(typ ValueType) valueKind {
	switch typ {
	case TypeI8:
		return kindI8
	case TypeI16:
		return kindI16
	case TypeI32:
		return kindI32
	default:
		return kindI64
	}
}
