// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"fmt"
	"io"
)

// DefaultMaxRows bounds a table's row count absent an explicit
// Options.MaxRows, guarding against corrupt or hostile inputs that declare
// an enormous row count. Mirrors the teacher's MaxDefaultRelocEntriesCount
// guard rail.
const DefaultMaxRows = 1_000_000

// ParseTable parses one UTF table starting at the current implicit
// position of r (offset 0). It reads the whole table frame into memory,
// parses the header, the column list, the string pool and every row, and
// returns them together. r must not be obfuscated; callers holding an
// obfuscated table must call DeobfuscateTable on its bytes first (e.g. via
// bytes.NewReader over an in-memory copy).
func ParseTable(r io.ReaderAt, opts *Options) (*TableHeader, []Column, StringPool, []Row, error) {
	return parseTableAt(r, 0, utfMagic, opts)
}

func parseTableAt(r io.ReaderAt, base int64, wantMagic string, opts *Options) (*TableHeader, []Column, StringPool, []Row, error) {
	opts = opts.withDefaults()

	probe, err := readBytesAt(r, base, outerFrameSize)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	length, err := window(probe).u32(4)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	full, err := readBytesAt(r, base, outerFrameSize+length)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	w := window(full)

	header, err := parseTableHeader(w, wantMagic, base)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if header.RowCount > opts.maxRows() {
		return nil, nil, nil, nil, fmt.Errorf("%w: %d rows (max %d)", ErrMaxRowsExceeded, header.RowCount, opts.maxRows())
	}

	colsOffset := outerFrameSize + header.ColumnBlockOffset()
	cols, _, err := parseColumns(w, colsOffset, header.ColumnCount)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	poolStart := outerFrameSize + header.StringPoolOffset
	poolEnd := outerFrameSize + header.DataPoolOffset
	poolBytes, err := w.bytesAt(poolStart, poolEnd-poolStart)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	pool := newStringPool(poolBytes, opts.StringPoolStrategy)

	if err := resolveColumnNames(cols, pool); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := resolveConstantStrings(cols, pool); err != nil {
		return nil, nil, nil, nil, err
	}

	// Row block offsets in parseRows are relative to the table body (i.e.
	// they don't include the 8-byte outer frame), but the window w we're
	// decoding from here does include it, so we hand parseRows a
	// frame-relative header by shifting RowsOffset forward by the frame
	// size; it addresses w directly.
	shifted := *header
	shifted.RowsOffset += outerFrameSize

	rows, err := parseRows(w, &shifted, cols, pool)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return header, cols, pool, rows, nil
}

// resolveConstantStrings resolves the CONSTANT default value of any
// TypeString column against pool, since constant string defaults are
// parsed as raw pool offsets (decodeInlineValue has no pool access) and
// would otherwise stay unresolved for every row that shares them.
func resolveConstantStrings(cols []Column, pool StringPool) error {
	for i := range cols {
		if off, ok := cols[i].Default.StringOffset(); ok {
			s, ok := pool.GetString(off)
			if !ok {
				return fmt.Errorf("column %d: %w: default string offset %d", i, ErrOutOfBounds, off)
			}
			cols[i].Default = RowValue{kind: kindString, str: s}
		}
	}
	return nil
}

// resolveColumnNames looks up each column's name pointer in pool so
// callers can address columns by name without re-touching the pool.
func resolveColumnNames(cols []Column, pool StringPool) error {
	for i := range cols {
		name, ok := pool.GetString(cols[i].NamePtr)
		if !ok {
			return fmt.Errorf("column %d: %w: name offset %d", i, ErrOutOfBounds, cols[i].NamePtr)
		}
		cols[i].Name = string(name)
	}
	return nil
}
