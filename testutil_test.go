// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"encoding/binary"
	"math"
)

// poolBuilder assembles a NUL-terminated string pool with dedup by exact
// string match, the way a real UTF table writer would avoid storing the
// same column name twice.
type poolBuilder struct {
	buf     []byte
	offsets map[string]uint32
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{offsets: map[string]uint32{}}
}

func (p *poolBuilder) intern(s string) uint32 {
	if off, ok := p.offsets[s]; ok {
		return off
	}
	off := uint32(len(p.buf))
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0)
	p.offsets[s] = off
	return off
}

// fieldVal is a test-only tagged value used to fill in either a column's
// CONSTANT default or a row's PER_ROW value, keyed off the column's
// declared ValueType at encode time.
type fieldVal struct {
	u uint64
	f float64
	s string
}

func uval(u uint64) fieldVal  { return fieldVal{u: u} }
func sval(s string) fieldVal  { return fieldVal{s: s} }
func fval(f float64) fieldVal { return fieldVal{f: f} }

type colSpec struct {
	name     string
	typ      ValueType
	storage  StorageMode
	constant fieldVal
}

// utfBuilder assembles a complete, well-formed "@UTF"-framed table for use
// as a test fixture, mirroring the layout parseTableAt expects: header,
// column records, row block, string pool, data pool, in that order.
type utfBuilder struct {
	pool *poolBuilder
}

func newUTFBuilder() *utfBuilder {
	return &utfBuilder{pool: newPoolBuilder()}
}

func (b *utfBuilder) encodeValue(v fieldVal, typ ValueType) []byte {
	switch typ {
	case TypeU8, TypeI8:
		return []byte{byte(v.u)}
	case TypeU16, TypeI16:
		return binary.BigEndian.AppendUint16(nil, uint16(v.u))
	case TypeU32, TypeI32:
		return binary.BigEndian.AppendUint32(nil, uint32(v.u))
	case TypeU64, TypeI64:
		return binary.BigEndian.AppendUint64(nil, v.u)
	case TypeFloat:
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(float32(v.f)))
	case TypeDouble:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(v.f))
	case TypeString:
		off := b.pool.intern(v.s)
		return binary.BigEndian.AppendUint32(nil, off)
	case TypeData:
		// Not exercised by the test suite; encode as an empty descriptor.
		return binary.BigEndian.AppendUint64(nil, 0)
	default:
		panic("unsupported test value type")
	}
}

// build assembles the full table byte slice (including the 8-byte outer
// "@UTF" frame) for the given table name, columns and rows. rows[i][j]
// is only consulted for columns with StoragePerRow; other storage modes
// ignore the corresponding row entry.
func (b *utfBuilder) build(tableName string, cols []colSpec, rows [][]fieldVal) []byte {
	b.pool.intern(tableName)
	for _, c := range cols {
		b.pool.intern(c.name)
	}

	var colBytes []byte
	for _, c := range cols {
		flag := byte(c.typ) | byte(c.storage)
		colBytes = append(colBytes, flag)
		colBytes = binary.BigEndian.AppendUint32(colBytes, b.pool.offsets[c.name])
		if c.storage == StorageConstant {
			colBytes = append(colBytes, b.encodeValue(c.constant, c.typ)...)
		}
	}

	var rowStride uint32
	for _, c := range cols {
		if c.storage == StoragePerRow {
			rowStride += c.typ.width()
		}
	}

	var rowBytes []byte
	for _, row := range rows {
		for ci, c := range cols {
			if c.storage != StoragePerRow {
				continue
			}
			rowBytes = append(rowBytes, b.encodeValue(row[ci], c.typ)...)
		}
	}

	rowsOffset := tableHeaderBodySize + uint32(len(colBytes))
	stringPoolOffset := rowsOffset + uint32(len(rowBytes))
	dataPoolOffset := stringPoolOffset + uint32(len(b.pool.buf))
	tableLength := dataPoolOffset // no data pool content in any fixture

	out := make([]byte, 0, outerFrameSize+tableLength)
	out = append(out, utfMagic...)
	out = binary.BigEndian.AppendUint32(out, tableLength)
	out = binary.BigEndian.AppendUint32(out, rowsOffset)
	out = binary.BigEndian.AppendUint32(out, stringPoolOffset)
	out = binary.BigEndian.AppendUint32(out, dataPoolOffset)
	out = binary.BigEndian.AppendUint32(out, b.pool.offsets[tableName])
	out = binary.BigEndian.AppendUint16(out, uint16(len(cols)))
	out = binary.BigEndian.AppendUint16(out, uint16(rowStride))
	out = binary.BigEndian.AppendUint32(out, uint32(len(rows)))
	out = append(out, colBytes...)
	out = append(out, rowBytes...)
	out = append(out, b.pool.buf...)
	return out
}

// bitWriter packs bits from the end of a buffer backward, MSB-first within
// each byte — the mirror image of bitReader, used only to build CriLAYLA
// fixtures for the decompressor tests.
type bitWriter struct {
	buf       []byte
	byteIndex int
	bitsLeft  int
}

func newBitWriter(sizeBytes int) *bitWriter {
	return &bitWriter{buf: make([]byte, sizeBytes), byteIndex: sizeBytes - 1, bitsLeft: 8}
}

func (w *bitWriter) writeBit(bit uint) {
	if w.bitsLeft == 0 {
		w.byteIndex--
		w.bitsLeft = 8
	}
	w.bitsLeft--
	if bit != 0 {
		w.buf[w.byteIndex] |= 1 << uint(w.bitsLeft)
	}
}

func (w *bitWriter) writeBits(v uint, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.writeBit((v >> uint(i)) & 1)
	}
}

// crilaylaToken is one decode step of a hand-built CriLAYLA bitstream: a
// literal byte, or a back-reference (offset, length) pair using the same
// (cursor, source) semantics as DecompressCRILAYLA's match branch. Tokens
// must be listed in decode order, i.e. payload bytes from the end of the
// decoded output backward to its start.
type crilaylaToken struct {
	isMatch bool
	lit     byte
	offset  uint
	length  int
}

func literalToken(b byte) crilaylaToken { return crilaylaToken{lit: b} }

func matchToken(offset uint, length int) crilaylaToken {
	return crilaylaToken{isMatch: true, offset: offset, length: length}
}

// matchLengthBitWidth returns the number of bits writeMatchLength will
// spend encoding length, mirroring readMatchLength's escalating
// {2,3,5,8}-bit tiers without actually writing anything.
func matchLengthBitWidth(length int) uint {
	remaining := length - 3
	var bits uint
	for _, width := range lengthChunkWidths {
		bits += width
		max := (1 << width) - 1
		if remaining < max {
			return bits
		}
		remaining -= max
	}
	for remaining >= 255 {
		bits += 8
		remaining -= 255
	}
	return bits + 8
}

// writeMatchLength is the exact inverse of readMatchLength: it emits
// whatever escalating-tier (and, beyond that, 8-bit chunk) sequence
// readMatchLength would decode back to length.
func writeMatchLength(w *bitWriter, length int) {
	remaining := length - 3
	for _, width := range lengthChunkWidths {
		max := (1 << width) - 1
		if remaining < max {
			w.writeBits(uint(remaining), width)
			return
		}
		w.writeBits(uint(max), width)
		remaining -= max
	}
	for remaining >= 255 {
		w.writeBits(255, 8)
		remaining -= 255
	}
	w.writeBits(uint(remaining), 8)
}

// encodeCRILAYLATokens builds a valid CriLAYLA blob from an explicit
// sequence of literal/match tokens, letting tests exercise the back-
// reference (match-copy) decode path that encodeLiteralsCRILAYLA cannot
// reach. decodedSize is the declared uncompressed payload size (excluding
// prefix); tokens must decode to exactly that many bytes.
func encodeCRILAYLATokens(tokens []crilaylaToken, decodedSize int, prefix []byte) []byte {
	if len(prefix) != crilaylaPrefixSize {
		panic("prefix must be exactly crilaylaPrefixSize bytes")
	}

	var totalBits uint
	for _, tok := range tokens {
		totalBits++ // token bit
		if tok.isMatch {
			totalBits += 13 + matchLengthBitWidth(tok.length)
		} else {
			totalBits += 8
		}
	}
	sizeBytes := int((totalBits + 7) / 8)

	bw := newBitWriter(sizeBytes)
	for _, tok := range tokens {
		if tok.isMatch {
			bw.writeBit(1)
			bw.writeBits(tok.offset, 13)
			writeMatchLength(bw, tok.length)
		} else {
			bw.writeBit(0)
			bw.writeBits(uint(tok.lit), 8)
		}
	}

	out := make([]byte, 0, crilaylaHeaderSize+len(bw.buf)+len(prefix))
	out = append(out, crilaylaTag...)
	out = binary.LittleEndian.AppendUint32(out, uint32(decodedSize))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(bw.buf)))
	out = append(out, bw.buf...)
	out = append(out, prefix...)
	return out
}

// encodeLiteralsCRILAYLA builds a minimal, valid CriLAYLA blob that
// encodes payload purely as literal bytes (every token bit is 0). It does
// not exercise the match path, but round-trips through the real bit
// packing/unpacking and header framing.
func encodeLiteralsCRILAYLA(payload, prefix []byte) []byte {
	if len(prefix) != crilaylaPrefixSize {
		panic("prefix must be exactly crilaylaPrefixSize bytes")
	}

	totalBits := len(payload) * 9 // 1 token bit + 8 data bits per byte
	sizeBytes := (totalBits + 7) / 8
	bw := newBitWriter(sizeBytes)
	for i := len(payload) - 1; i >= 0; i-- {
		bw.writeBit(0)
		bw.writeBits(uint(payload[i]), 8)
	}

	out := make([]byte, 0, crilaylaHeaderSize+len(bw.buf)+len(prefix))
	out = append(out, crilaylaTag...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(bw.buf)))
	out = append(out, bw.buf...)
	out = append(out, prefix...)
	return out
}
