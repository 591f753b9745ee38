// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package cpk reads CRI Middleware archive containers (CPK files) and the
// UTF tables used as their structural backbone, as well as by sibling CRI
// formats (ACB/AWB audio banks, ACF configuration archives).
//
// The package exposes three independent capabilities: parsing a UTF table
// into its columns, string pool and rows (ParseTable); enumerating and
// extracting files from a CPK container (Open, OpenBytes, CpkReader); and
// the two codecs CRI layers underneath both of those, CriLAYLA
// decompression (DecompressCRILAYLA) and the UTF table XOR deobfuscator
// (DeobfuscateTable).
//
// The package is read-only: it has no facility for writing or repacking
// CPK archives, and it does not interpret ACB/AWB payloads beyond parsing
// their row data as ordinary UTF rows.
package cpk
