// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// Options controls parsing behaviour for ParseTable, Open and OpenBytes.
// A nil *Options is equivalent to &Options{}; every field has a documented
// zero-value default, mirroring the teacher's pe.Options.
type Options struct {
	// StringPoolStrategy selects the StringPool implementation built for
	// each parsed table. Defaults to StringPoolScan.
	StringPoolStrategy StringPoolStrategy

	// MaxRows bounds a table's declared row count. Zero means
	// DefaultMaxRows.
	MaxRows uint32

	// Decryptor is installed on the returned CpkReader, if any. Defaults
	// to NoopDecryptor.
	Decryptor Decryptor

	// Logger receives warnings about non-fatal parsing issues (an ETOC or
	// ITOC table that fails to parse) and debug lines with each nested
	// table's offsets. Defaults to a stdout logger filtered at
	// log.LevelError.
	Logger log.Logger
}

// withDefaults returns opts, or a fresh zero-value Options if opts is nil.
// It never mutates the caller's Options.
func (o *Options) withDefaults() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

func (o *Options) maxRows() uint32 {
	if o == nil || o.MaxRows == 0 {
		return DefaultMaxRows
	}
	return o.MaxRows
}

func (o *Options) decryptor() Decryptor {
	if o == nil || o.Decryptor == nil {
		return NoopDecryptor{}
	}
	return o.Decryptor
}

func (o *Options) helper() *log.Helper {
	if o != nil && o.Logger != nil {
		return log.NewHelper(o.Logger)
	}
	logger := log.NewStdLogger(os.Stdout)
	return log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))
}
