// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import "fmt"

// Outer frame tags. A UTF table's frame is "@UTF"; the CPK container's
// outermost frame is structurally identical but tagged "CPK " instead.
const (
	utfMagic = "@UTF"
	cpkMagic = "CPK "

	// outerFrameSize is magic(4) + length(4).
	outerFrameSize = 8

	// tableHeaderBodySize is the 24-byte fixed body that follows the
	// outer frame: RowsOffset(4) + StringPoolOffset(4) + DataPoolOffset(4)
	// + TableNamePointer(4) + ColumnCount(2) + RowStride(2) + RowCount(4).
	tableHeaderBodySize = 24
)

// TableHeader is the fixed 32-byte preamble identifying a UTF (or CPK
// outer-frame) table. All offsets it carries are relative to the start of
// the table body, i.e. the byte immediately following the 8-byte outer
// frame.
type TableHeader struct {
	Magic       string
	TableLength uint32

	RowsOffset       uint32
	StringPoolOffset uint32
	DataPoolOffset   uint32
	TableNamePointer uint32
	ColumnCount      uint16
	RowStride        uint16
	RowCount         uint32

	// frameOffset is the absolute stream offset of this table's magic
	// byte, used to turn the header's body-relative offsets into
	// absolute stream offsets.
	frameOffset int64
}

// ColumnBlockOffset returns the body-relative offset of the first column
// record, which always immediately follows the 24-byte header body.
func (h *TableHeader) ColumnBlockOffset() uint32 {
	return tableHeaderBodySize
}

// AbsRowsOffset, AbsStringPoolOffset and AbsDataPoolOffset expose the
// table's interior regions as absolute stream offsets.
func (h *TableHeader) AbsRowsOffset() int64 {
	return h.frameOffset + outerFrameSize + int64(h.RowsOffset)
}

func (h *TableHeader) AbsStringPoolOffset() int64 {
	return h.frameOffset + outerFrameSize + int64(h.StringPoolOffset)
}

func (h *TableHeader) AbsDataPoolOffset() int64 {
	return h.frameOffset + outerFrameSize + int64(h.DataPoolOffset)
}

// AbsTableEnd returns the absolute stream offset one past the end of the
// table (frameOffset + 8 + TableLength).
func (h *TableHeader) AbsTableEnd() int64 {
	return h.frameOffset + outerFrameSize + int64(h.TableLength)
}

// parseTableHeader parses the 32-byte preamble from body, a window that
// starts at the table's magic byte (i.e. body[0:4] is the magic). wantMagic
// is either utfMagic or cpkMagic. frameOffset is body's absolute stream
// position, used to compute the Abs* accessors above.
func parseTableHeader(body window, wantMagic string, frameOffset int64) (*TableHeader, error) {
	if len(body) < outerFrameSize+tableHeaderBodySize {
		return nil, fmt.Errorf("%w: table header truncated", ErrShortRead)
	}
	magic := string(body[0:4])
	if magic != wantMagic {
		return nil, fmt.Errorf("%w: want %q got %q", ErrInvalidMagic, wantMagic, magic)
	}

	length, err := body.u32(4)
	if err != nil {
		return nil, err
	}

	h := &TableHeader{
		Magic:       magic,
		TableLength: length,
		frameOffset: frameOffset,
	}

	base := uint32(outerFrameSize)
	if h.RowsOffset, err = body.u32(base + 0); err != nil {
		return nil, err
	}
	if h.StringPoolOffset, err = body.u32(base + 4); err != nil {
		return nil, err
	}
	if h.DataPoolOffset, err = body.u32(base + 8); err != nil {
		return nil, err
	}
	if h.TableNamePointer, err = body.u32(base + 12); err != nil {
		return nil, err
	}
	if h.ColumnCount, err = body.u16(base + 16); err != nil {
		return nil, err
	}
	if h.RowStride, err = body.u16(base + 18); err != nil {
		return nil, err
	}
	if h.RowCount, err = body.u32(base + 20); err != nil {
		return nil, err
	}

	if !(h.RowsOffset <= h.StringPoolOffset &&
		h.StringPoolOffset <= h.DataPoolOffset &&
		h.DataPoolOffset <= h.TableLength) {
		return nil, fmt.Errorf("%w: header offsets out of order (rows=%d strings=%d data=%d length=%d)",
			ErrOutOfBounds, h.RowsOffset, h.StringPoolOffset, h.DataPoolOffset, h.TableLength)
	}

	return h, nil
}
