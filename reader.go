// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"encoding/binary"
	"fmt"
	"io"
)

// window is an in-memory byte range with bounds-checked big-endian scalar
// reads. All UTF table fields are big-endian; this is the one place that
// decodes them, so nothing else in the package touches encoding/binary
// directly for table data.
type window []byte

func (w window) u8(offset uint32) (uint8, error) {
	if offset >= uint32(len(w)) {
		return 0, fmt.Errorf("%w: u8 at %d", ErrShortRead, offset)
	}
	return w[offset], nil
}

func (w window) u16(offset uint32) (uint16, error) {
	if offset+2 > uint32(len(w)) {
		return 0, fmt.Errorf("%w: u16 at %d", ErrShortRead, offset)
	}
	return binary.BigEndian.Uint16(w[offset:]), nil
}

func (w window) u32(offset uint32) (uint32, error) {
	if offset+4 > uint32(len(w)) {
		return 0, fmt.Errorf("%w: u32 at %d", ErrShortRead, offset)
	}
	return binary.BigEndian.Uint32(w[offset:]), nil
}

func (w window) u64(offset uint32) (uint64, error) {
	if offset+8 > uint32(len(w)) {
		return 0, fmt.Errorf("%w: u64 at %d", ErrShortRead, offset)
	}
	return binary.BigEndian.Uint64(w[offset:]), nil
}

// bytesAt returns a sub-slice of the window, bounds-checked.
func (w window) bytesAt(offset, size uint32) ([]byte, error) {
	end := offset + size
	if end < offset || end > uint32(len(w)) {
		return nil, fmt.Errorf("%w: %d bytes at %d", ErrShortRead, size, offset)
	}
	return w[offset:end], nil
}

// readBytesAt performs a bounds-checked read of size bytes at offset from
// an external stream, returning a freshly allocated buffer. Mirrors the
// teacher's ReadBytesAtOffset, generalized from an mmap'd slice to any
// io.ReaderAt so CpkReader can work the same way whether the backing file
// was memory-mapped (Open) or is a plain in-memory buffer (OpenBytes).
func readBytesAt(r io.ReaderAt, offset int64, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, offset)
	if err != nil && !(err == io.EOF && n == int(size)) {
		return nil, fmt.Errorf("%w: reading %d bytes at %d: %v", ErrShortRead, size, offset, err)
	}
	return buf, nil
}
