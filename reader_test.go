// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"bytes"
	"errors"
	"testing"
)

func TestWindowScalarReads(t *testing.T) {
	w := window([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})

	if v, err := w.u8(1); err != nil || v != 0x01 {
		t.Fatalf("u8(1) = %v, %v", v, err)
	}
	if v, err := w.u16(2); err != nil || v != 0x0203 {
		t.Fatalf("u16(2) = %#04x, %v", v, err)
	}
	if v, err := w.u32(0); err != nil || v != 0x00010203 {
		t.Fatalf("u32(0) = %#08x, %v", v, err)
	}
	if v, err := w.u64(0); err != nil || v != 0x0001020304050607 {
		t.Fatalf("u64(0) = %#016x, %v", v, err)
	}
}

func TestWindowOutOfBounds(t *testing.T) {
	w := window([]byte{0x01, 0x02})

	if _, err := w.u8(2); !errors.Is(err, ErrShortRead) {
		t.Fatalf("u8 past end: got %v, want ErrShortRead", err)
	}
	if _, err := w.u16(1); !errors.Is(err, ErrShortRead) {
		t.Fatalf("u16 straddling end: got %v, want ErrShortRead", err)
	}
	if _, err := w.u32(0); !errors.Is(err, ErrShortRead) {
		t.Fatalf("u32 past end: got %v, want ErrShortRead", err)
	}
	if _, err := w.bytesAt(1, 5); !errors.Is(err, ErrShortRead) {
		t.Fatalf("bytesAt past end: got %v, want ErrShortRead", err)
	}
	if _, err := w.bytesAt(0xFFFFFFFE, 4); !errors.Is(err, ErrShortRead) {
		t.Fatalf("bytesAt overflowing end: got %v, want ErrShortRead", err)
	}
}

func TestReadBytesAt(t *testing.T) {
	data := []byte("hello, world")
	r := bytes.NewReader(data)

	got, err := readBytesAt(r, 7, 5)
	if err != nil {
		t.Fatalf("readBytesAt: %v", err)
	}
	if string(got) != "world" {
		t.Fatalf("readBytesAt = %q, want %q", got, "world")
	}

	if _, err := readBytesAt(r, 7, 100); !errors.Is(err, ErrShortRead) {
		t.Fatalf("readBytesAt past end: got %v, want ErrShortRead", err)
	}

	if got, err := readBytesAt(r, 0, 0); err != nil || got != nil {
		t.Fatalf("readBytesAt size 0 = %v, %v, want nil, nil", got, err)
	}
}
