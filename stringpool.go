// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import "bytes"

// StringPool resolves a u32 offset, relative to the start of the pool, to
// the NUL-terminated byte string starting there. Two implementations
// satisfy this contract with identical semantics for valid,
// start-of-string offsets: scanStringPool and indexedStringPool.
type StringPool interface {
	GetString(offset uint32) ([]byte, bool)
}

// StringPoolStrategy selects which StringPool implementation Open,
// OpenBytes and ParseTable build.
type StringPoolStrategy int

const (
	// StringPoolScan reads from offset to the next NUL on every lookup.
	// O(1) to build, O(L) per lookup. The default: most callers resolve a
	// handful of strings per table.
	StringPoolScan StringPoolStrategy = iota

	// StringPoolIndexed walks the pool once at construction, building a
	// map from every string's start offset to its bytes. O(pool size) to
	// build, O(1) per lookup. Pick this when the same pool will be
	// queried many times, e.g. resolving every column name for every row.
	StringPoolIndexed
)

// scanStringPool stores the raw pool bytes and scans for a NUL on every
// lookup. Grounded on the teacher's readASCIIStringAtOffset: a single-shot
// scan-to-terminator reader with no precomputed state.
type scanStringPool struct {
	pool []byte
}

func newScanStringPool(pool []byte) *scanStringPool {
	return &scanStringPool{pool: pool}
}

func (p *scanStringPool) GetString(offset uint32) ([]byte, bool) {
	if offset >= uint32(len(p.pool)) {
		return nil, false
	}
	rest := p.pool[offset:]
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return nil, false
	}
	return rest[:n], true
}

// indexedStringPool pre-builds a map from every NUL-terminated string's
// start offset to its bytes. Grounded on the teacher's COFFStringTable,
// which builds exactly this kind of map once and serves every subsequent
// symbol-name lookup from it.
type indexedStringPool struct {
	byOffset map[uint32][]byte
}

func newIndexedStringPool(pool []byte) *indexedStringPool {
	m := make(map[uint32][]byte)
	start := 0
	for i := 0; i <= len(pool); i++ {
		if i == len(pool) || pool[i] == 0 {
			if i > start || start < len(pool) {
				m[uint32(start)] = pool[start:i]
			}
			start = i + 1
		}
	}
	return &indexedStringPool{byOffset: m}
}

func (p *indexedStringPool) GetString(offset uint32) ([]byte, bool) {
	s, ok := p.byOffset[offset]
	return s, ok
}

// newStringPool builds a StringPool for the given pool bytes according to
// strategy.
func newStringPool(pool []byte, strategy StringPoolStrategy) StringPool {
	if strategy == StringPoolIndexed {
		return newIndexedStringPool(pool)
	}
	return newScanStringPool(pool)
}
