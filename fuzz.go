// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

// Fuzz is a go-fuzz-style entry point: it opens data as an in-memory CPK
// archive, walks every non-ITOC-only file entry and attempts to extract
// each one. Returns 1 when at least one entry extracts without error
// (prioritizing the input for future mutation), 0 otherwise. A panic
// raised while parsing is not recovered and reaches the fuzzer.
func Fuzz(data []byte) int {
	cr, err := OpenBytes(data, nil)
	if err != nil {
		return 0
	}

	files, err := cr.GetFiles()
	if err != nil {
		return 0
	}
	if len(files) == 0 {
		return 0
	}

	interesting := 0
	for i := range files {
		if files[i].ITOCOnly {
			continue
		}
		if _, err := cr.ExtractFile(&files[i]); err == nil {
			interesting = 1
		}
	}
	return interesting
}
