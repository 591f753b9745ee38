// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import "errors"

// Errors returned while parsing UTF tables, CriLAYLA blobs and CPK
// containers. All are sentinel values so callers can match them with
// errors.Is even after this package wraps them with additional context.
var (
	// ErrInvalidMagic is returned when an expected magic tag (@UTF, CPK ,
	// CRILAYLA) is not present at the expected position.
	ErrInvalidMagic = errors.New("cpk: invalid magic")

	// ErrShortRead is returned when a read would run past the end of the
	// supplied window or stream.
	ErrShortRead = errors.New("cpk: short read")

	// ErrUnknownType is returned when a column's type code is outside the
	// set of accepted UTF value types.
	ErrUnknownType = errors.New("cpk: unknown column type")

	// ErrRowStrideMismatch is returned when decoding a row's per-row
	// columns does not consume exactly header.RowStride bytes.
	ErrRowStrideMismatch = errors.New("cpk: row stride mismatch")

	// ErrOutOfBounds is returned when a string-pool pointer falls outside
	// the pool, or when a table header's region offsets are out of order.
	// Data-pool descriptors are not checked, and CriLAYLA back-references
	// report ErrOutOfBoundsCopy instead.
	ErrOutOfBounds = errors.New("cpk: pointer out of bounds")

	// ErrFileNotFound is returned when an extraction target is absent
	// from the TOC.
	ErrFileNotFound = errors.New("cpk: file not found")

	// ErrDecryptionError is returned when an installed Decryptor fails.
	ErrDecryptionError = errors.New("cpk: decryption error")

	// ErrDecompressionError is returned when CriLAYLA decoding fails.
	ErrDecompressionError = errors.New("cpk: decompression error")

	// ErrTruncatedBitstream is returned when the CriLAYLA bit reader is
	// asked to read past the start of the compressed body.
	ErrTruncatedBitstream = errors.New("cpk: truncated CriLAYLA bitstream")

	// ErrOutOfBoundsCopy is returned when a CriLAYLA back-reference source
	// position falls at or beyond the end of the output buffer.
	ErrOutOfBoundsCopy = errors.New("cpk: CriLAYLA back-reference out of bounds")

	// ErrBadSignature is returned when the outer CPK frame's signature is
	// not "CPK ".
	ErrBadSignature = errors.New("cpk: bad CPK signature")

	// ErrMissingTable is returned when a CPK's HEADER row does not
	// reference a TOC table.
	ErrMissingTable = errors.New("cpk: missing TOC table")

	// ErrITOCOnlyUnsupported is returned by ExtractFile for a CpkFile that
	// only appears in ITOC, since this package does not know where its
	// payload bytes live.
	ErrITOCOnlyUnsupported = errors.New("cpk: ITOC-only file extraction is unsupported")

	// ErrMaxRowsExceeded is returned when a table's declared row count
	// exceeds Options.MaxRows.
	ErrMaxRowsExceeded = errors.New("cpk: row count exceeds configured maximum")
)
