// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

const (
	obfuscationSeedMask = 0x5F
	obfuscationSeedMult = 0x15
)

// DeobfuscateTable applies CRI's UTF XOR mask to buf in place. The mask is
// an involution: calling DeobfuscateTable twice on the same bytes restores
// the original content. Callers must check a table's magic first — this
// function never autodetects whether a table needs it.
func DeobfuscateTable(buf []byte) {
	m := byte(obfuscationSeedMask)
	for i, b := range buf {
		buf[i] = b ^ m
		m = m * obfuscationSeedMult
	}
}
