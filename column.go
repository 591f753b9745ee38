// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import "fmt"

// ValueType is the low nibble of a column's flag byte.
type ValueType uint8

// Accepted UTF value types and their on-disk widths.
const (
	TypeU8     ValueType = 0x00
	TypeI8     ValueType = 0x01
	TypeU16    ValueType = 0x02
	TypeI16    ValueType = 0x03
	TypeU32    ValueType = 0x04
	TypeI32    ValueType = 0x05
	TypeU64    ValueType = 0x06
	TypeI64    ValueType = 0x07
	TypeFloat  ValueType = 0x08
	TypeDouble ValueType = 0x09
	TypeString ValueType = 0x0A
	TypeData   ValueType = 0x0B
)

// width returns the on-disk byte width of a value type, or 0 for an
// unrecognized type code.
func (t ValueType) width() uint32 {
	switch t {
	case TypeU8, TypeI8:
		return 1
	case TypeU16, TypeI16:
		return 2
	case TypeU32, TypeI32, TypeFloat, TypeString:
		return 4
	case TypeU64, TypeI64, TypeDouble, TypeData:
		return 8
	default:
		return 0
	}
}

func (t ValueType) valid() bool {
	return t.width() != 0
}

// StorageMode is the high nibble of a column's flag byte, controlling
// where the column's value lives.
type StorageMode uint8

const (
	// StorageNone means the column has no value anywhere.
	StorageNone StorageMode = 0x00
	// StorageZero means the value is zero for every row; nothing is
	// stored per-row.
	StorageZero StorageMode = 0x10
	// StorageConstant means a single default value is stored once, in
	// the column record itself.
	StorageConstant StorageMode = 0x30
	// StoragePerRow means the value is stored once per row, at the
	// column's offset within the row stride.
	StoragePerRow StorageMode = 0x50
)

const columnFlagStorageMask = 0xF0

// Column is one parsed column record: its type, storage mode, name
// pointer into the string pool, and (for StorageConstant columns) the
// single default value shared by every row.
type Column struct {
	Type    ValueType
	Storage StorageMode
	NamePtr uint32
	Name    string
	Default RowValue
}

// parseColumns reads column_count column records from body starting at
// offset, returning the parsed columns and the total number of bytes
// consumed (so the caller can locate the row block that follows).
func parseColumns(body window, offset uint32, count uint16) ([]Column, uint32, error) {
	cols := make([]Column, 0, count)
	start := offset
	for i := uint16(0); i < count; i++ {
		flag, err := body.u8(offset)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: column %d flag", ErrShortRead, i)
		}
		offset++

		typ := ValueType(flag & 0x0F)
		if !typ.valid() {
			return nil, 0, fmt.Errorf("%w: column %d type code 0x%02X", ErrUnknownType, i, flag&0x0F)
		}
		storage := StorageMode(flag & columnFlagStorageMask)

		namePtr, err := body.u32(offset)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: column %d name pointer", ErrShortRead, i)
		}
		offset += 4

		col := Column{Type: typ, Storage: storage, NamePtr: namePtr}

		if storage == StorageConstant {
			val, n, err := decodeInlineValue(body, offset, typ)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: column %d default value", err, i)
			}
			col.Default = val
			offset += n
		}

		cols = append(cols, col)
	}
	return cols, offset - start, nil
}

// decodeInlineValue decodes one value of the given type at offset,
// returning the value and the number of bytes consumed. Used both for a
// column's CONSTANT default and for a PER_ROW value in the row block.
func decodeInlineValue(body window, offset uint32, typ ValueType) (RowValue, uint32, error) {
	switch typ {
	case TypeU8:
		v, err := body.u8(offset)
		return RowValue{kind: kindU8, u: uint64(v)}, 1, err
	case TypeI8:
		v, err := body.u8(offset)
		return RowValue{kind: kindI8, i: int64(int8(v))}, 1, err
	case TypeU16:
		v, err := body.u16(offset)
		return RowValue{kind: kindU16, u: uint64(v)}, 2, err
	case TypeI16:
		v, err := body.u16(offset)
		return RowValue{kind: kindI16, i: int64(int16(v))}, 2, err
	case TypeU32:
		v, err := body.u32(offset)
		return RowValue{kind: kindU32, u: uint64(v)}, 4, err
	case TypeI32:
		v, err := body.u32(offset)
		return RowValue{kind: kindI32, i: int64(int32(v))}, 4, err
	case TypeFloat:
		v, err := body.u32(offset)
		return RowValue{kind: kindFloat, f: float64(float32FromBits(v))}, 4, err
	case TypeString:
		v, err := body.u32(offset)
		return RowValue{kind: kindStringOffset, u: uint64(v)}, 4, err
	case TypeU64:
		v, err := body.u64(offset)
		return RowValue{kind: kindU64, u: v}, 8, err
	case TypeI64:
		v, err := body.u64(offset)
		return RowValue{kind: kindI64, i: int64(v)}, 8, err
	case TypeDouble:
		v, err := body.u64(offset)
		return RowValue{kind: kindDouble, f: float64FromBits(v)}, 8, err
	case TypeData:
		off, err := body.u32(offset)
		if err != nil {
			return RowValue{}, 8, err
		}
		length, err := body.u32(offset + 4)
		return RowValue{kind: kindData, dataOffset: off, dataLength: length}, 8, err
	default:
		return RowValue{}, 0, fmt.Errorf("%w: type code 0x%02X", ErrUnknownType, typ)
	}
}
