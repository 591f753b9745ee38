// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

import (
	"bytes"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	// cpkPreambleSize is the outer "CPK " signature frame: magic(4) +
	// body length(4, big-endian) + 8 reserved/padding bytes, immediately
	// followed by the HEADER UTF table.
	cpkPreambleSize = 16
)

// CpkHeader is the single-row projection of a CPK's HEADER table.
type CpkHeader struct {
	TocOffset  uint64
	TocSize    uint64
	EtocOffset uint64
	EtocSize   uint64
	ItocOffset uint64
	ItocSize   uint64

	ContentOffset uint64
	Files         uint64
	Align         uint64

	Version  uint64
	Revision uint64
	Kind     uint64
}

// CpkFile is one file entry assembled from TOC (and, optionally, ETOC/
// ITOC) rows.
type CpkFile struct {
	DirName    string
	FileName   string
	TocName    string
	UserString string

	ID uint32

	// Offset is the file's absolute byte offset within the CPK stream.
	// Zero and meaningless for an ITOCOnly entry.
	Offset uint64

	CompressedSize   uint32
	UncompressedSize uint32

	CRC    uint32
	HasCRC bool

	UpdateDateTime    uint64
	HasUpdateDateTime bool
	LocalDir          string

	// ITOCOnly marks a file that appears only in the ITOC table, with no
	// corresponding TOC row. This library does not know where such a
	// file's payload bytes live; see ExtractFile.
	ITOCOnly bool
}

// Path joins DirName and FileName the way the archive itself lays out
// directories, for use with CpkReader.FileByPath.
func (f *CpkFile) Path() string {
	if f.DirName == "" {
		return f.FileName
	}
	return f.DirName + "/" + f.FileName
}

// CpkReader owns a CPK container's backing stream plus its parsed header
// tables and file list. Not safe for concurrent use; independent readers
// over independent streams may run in parallel.
type CpkReader struct {
	r      io.ReaderAt
	closer io.Closer
	mm     mmap.MMap

	opts   *Options
	logger *log.Helper

	header CpkHeader

	files       []CpkFile
	filesLoaded bool

	byPath map[string]*CpkFile
	byID   map[uint32]*CpkFile
}

// Open memory-maps the file at path read-only and parses its HEADER
// table. Mirrors the teacher's mmap-backed File constructor.
func Open(path string, opts *Options) (*CpkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	cr := &CpkReader{
		r:      bytes.NewReader(data),
		mm:     data,
		closer: f,
		opts:   opts.withDefaults(),
	}
	cr.logger = cr.opts.helper()

	if err := cr.parseHeader(); err != nil {
		cr.Close()
		return nil, err
	}
	return cr, nil
}

// OpenBytes wraps an in-memory buffer and parses its HEADER table.
func OpenBytes(data []byte, opts *Options) (*CpkReader, error) {
	cr := &CpkReader{
		r:    bytes.NewReader(data),
		opts: opts.withDefaults(),
	}
	cr.logger = cr.opts.helper()

	if err := cr.parseHeader(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Close releases the backing stream. A CpkReader must not be used after
// Close.
func (c *CpkReader) Close() error {
	if c.mm != nil {
		_ = c.mm.Unmap()
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

func (c *CpkReader) parseHeader() error {
	preamble, err := readBytesAt(c.r, 0, cpkPreambleSize)
	if err != nil {
		return fmt.Errorf("%w: reading CPK preamble: %w", ErrBadSignature, err)
	}
	if string(preamble[0:4]) != cpkMagic {
		return fmt.Errorf("%w: want %q got %q", ErrBadSignature, cpkMagic, preamble[0:4])
	}

	header, cols, _, rows, err := parseTableAt(c.r, cpkPreambleSize, utfMagic, c.opts)
	if err != nil {
		return fmt.Errorf("parsing HEADER table: %w", err)
	}
	if header.RowCount == 0 {
		return fmt.Errorf("%w: HEADER table has no rows", ErrMissingTable)
	}

	v := newTableView(cols, rows)
	c.header = CpkHeader{
		TocOffset:     first(v.uint(0, "TocOffset")),
		TocSize:       first(v.uint(0, "TocSize")),
		EtocOffset:    first(v.uint(0, "EtocOffset")),
		EtocSize:      first(v.uint(0, "EtocSize")),
		ItocOffset:    first(v.uint(0, "ItocOffset")),
		ItocSize:      first(v.uint(0, "ItocSize")),
		ContentOffset: first(v.uint(0, "ContentOffset")),
		Files:         first(v.uint(0, "Files")),
		Align:         first(v.uint(0, "Align")),
		Version:       first(v.uint(0, "Version")),
		Revision:      first(v.uint(0, "Revision")),
		Kind:          first(v.uint(0, "Kind")),
	}

	if c.header.TocOffset == 0 || c.header.TocSize == 0 {
		return ErrMissingTable
	}
	return nil
}

func first(v uint64, ok bool) uint64 {
	if !ok {
		return 0
	}
	return v
}

// readNestedTable reads size bytes at offset, deobfuscating them first if
// their magic isn't already @UTF, and parses the result as a UTF table.
func (c *CpkReader) readNestedTable(offset, size uint64) (*TableHeader, []Column, StringPool, []Row, error) {
	raw, err := readBytesAt(c.r, int64(offset), uint32(size))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(raw) < 4 {
		return nil, nil, nil, nil, fmt.Errorf("%w: table too small", ErrShortRead)
	}
	if string(raw[0:4]) != utfMagic {
		DeobfuscateTable(raw)
		if string(raw[0:4]) != utfMagic {
			return nil, nil, nil, nil, ErrInvalidMagic
		}
	}

	header, cols, pool, rows, err := parseTableAt(bytes.NewReader(raw), 0, utfMagic, c.opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// raw is read starting at offset, but parseTableAt was handed a private
	// copy starting at 0, so header.frameOffset is 0 at this point; correct
	// it so the Abs* accessors below report true stream positions.
	header.frameOffset = int64(offset)
	c.logger.Debugf("nested UTF table at stream offset %d: rows=%d strings=%d data=%d end=%d",
		offset, header.AbsRowsOffset(), header.AbsStringPoolOffset(), header.AbsDataPoolOffset(), header.AbsTableEnd())

	return header, cols, pool, rows, nil
}

// absoluteOffset implements the ContentOffset+FileOffset override rule
// from the per-file offset computation: the payload offset is
// ContentOffset+FileOffset, unless that sum would land before TocOffset
// (the guard against pre-content payloads), in which case FileOffset is
// used unmodified.
func absoluteOffset(contentOffset, fileOffset, tocOffset uint64) uint64 {
	sum := contentOffset + fileOffset
	if sum < tocOffset {
		return fileOffset
	}
	return sum
}

// GetFiles returns every file entry described by TOC (merged with ETOC and
// ITOC where present). The result is built once and cached.
func (c *CpkReader) GetFiles() ([]CpkFile, error) {
	if c.filesLoaded {
		return c.files, nil
	}

	_, tocCols, _, tocRows, err := c.readNestedTable(c.header.TocOffset, c.header.TocSize)
	if err != nil {
		return nil, fmt.Errorf("parsing TOC: %w", err)
	}
	toc := newTableView(tocCols, tocRows)

	var etoc tableView
	if c.header.EtocOffset != 0 && c.header.EtocSize != 0 {
		_, etocCols, _, etocRows, err := c.readNestedTable(c.header.EtocOffset, c.header.EtocSize)
		if err != nil {
			c.logger.Warnf("ETOC parse failed, continuing without it: %v", err)
		} else {
			etoc = newTableView(etocCols, etocRows)
		}
	}

	files := make([]CpkFile, toc.rowCount())
	byID := make(map[uint32]*CpkFile, toc.rowCount())

	for i := range files {
		dirName, _ := toc.str(i, "DirName")
		fileName, _ := toc.str(i, "FileName")
		tocName, _ := toc.str(i, "TocName")
		userString, _ := toc.str(i, "UserString")
		fileOffset, _ := toc.uint(i, "FileOffset")
		fileSize, _ := toc.uint(i, "FileSize")
		extractSize, _ := toc.uint(i, "ExtractSize")
		id, _ := toc.uint(i, "ID")
		crc, hasCRC := toc.uint(i, "CRC")

		f := CpkFile{
			DirName:          dirName,
			FileName:         fileName,
			TocName:          tocName,
			UserString:       userString,
			ID:               uint32(id),
			Offset:           absoluteOffset(c.header.ContentOffset, fileOffset, c.header.TocOffset),
			CompressedSize:   uint32(fileSize),
			UncompressedSize: uint32(extractSize),
			CRC:              uint32(crc),
			HasCRC:           hasCRC,
		}

		if etoc.rowCount() == toc.rowCount() {
			if dt, ok := etoc.uint(i, "UpdateDateTime"); ok {
				f.UpdateDateTime = dt
				f.HasUpdateDateTime = true
			}
			if ld, ok := etoc.str(i, "LocalDir"); ok {
				f.LocalDir = ld
			}
		}

		files[i] = f
		byID[f.ID] = &files[i]
	}

	if c.header.ItocOffset != 0 && c.header.ItocSize != 0 {
		_, itocCols, _, itocRows, err := c.readNestedTable(c.header.ItocOffset, c.header.ItocSize)
		if err != nil {
			c.logger.Warnf("ITOC parse failed, continuing without it: %v", err)
		} else {
			itoc := newTableView(itocCols, itocRows)
			for i := 0; i < itoc.rowCount(); i++ {
				id, ok := itoc.uint(i, "ID")
				if !ok {
					continue
				}
				if _, exists := byID[uint32(id)]; exists {
					continue
				}
				fileSize, _ := itoc.uint(i, "FileSize")
				extractSize, _ := itoc.uint(i, "ExtractSize")
				files = append(files, CpkFile{
					ID:               uint32(id),
					CompressedSize:   uint32(fileSize),
					UncompressedSize: uint32(extractSize),
					ITOCOnly:         true,
				})
				byID[uint32(id)] = &files[len(files)-1]
			}
		}
	}

	c.files = files
	c.filesLoaded = true
	return c.files, nil
}

func (c *CpkReader) buildIndexes() error {
	if c.byPath != nil {
		return nil
	}
	files, err := c.GetFiles()
	if err != nil {
		return err
	}
	c.byPath = make(map[string]*CpkFile, len(files))
	c.byID = make(map[uint32]*CpkFile, len(files))
	for i := range files {
		c.byPath[files[i].Path()] = &files[i]
		c.byID[files[i].ID] = &files[i]
	}
	return nil
}

// FileByPath looks up a file by directory and file name, building the
// lookup index on first use.
func (c *CpkReader) FileByPath(dir, name string) (*CpkFile, error) {
	if err := c.buildIndexes(); err != nil {
		return nil, err
	}
	path := name
	if dir != "" {
		path = dir + "/" + name
	}
	f, ok := c.byPath[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// FileByID looks up a file by its TOC ID, building the lookup index on
// first use.
func (c *CpkReader) FileByID(id uint32) (*CpkFile, error) {
	if err := c.buildIndexes(); err != nil {
		return nil, err
	}
	f, ok := c.byID[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// ExtractFile reads, optionally decrypts and optionally CriLAYLA-decodes
// one file's payload.
func (c *CpkReader) ExtractFile(f *CpkFile) ([]byte, error) {
	if f.ITOCOnly {
		return nil, ErrITOCOnlyUnsupported
	}

	buf, err := readBytesAt(c.r, int64(f.Offset), f.CompressedSize)
	if err != nil {
		return nil, err
	}

	if err := c.opts.decryptor().Decrypt(buf, f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionError, err)
	}

	if f.CompressedSize < f.UncompressedSize {
		out, err := DecompressCRILAYLA(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompressionError, err)
		}
		return out, nil
	}

	return buf, nil
}

// ExtractAll extracts every file in the archive, writing each to the
// io.Writer dst returns for it (a nil return skips that file). This is the
// hook the out-of-scope command-line extractor is built on.
func (c *CpkReader) ExtractAll(dst func(*CpkFile) io.Writer) error {
	files, err := c.GetFiles()
	if err != nil {
		return err
	}
	for i := range files {
		w := dst(&files[i])
		if w == nil {
			continue
		}
		data, err := c.ExtractFile(&files[i])
		if err != nil {
			return fmt.Errorf("extracting %s: %w", files[i].Path(), err)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
