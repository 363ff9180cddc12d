/*
This is free and unencumbered software released into the public domain.

Anyone is free to copy, modify, publish, use, compile, sell, or
distribute this software, either in source code form or as a compiled
binary, for any purpose, commercial or non-commercial, and by any
means.

In jurisdictions that recognize copyright laws, the author or authors
of this software dedicate any and all copyright interest in the
software to the public domain. We make this dedication for the benefit
of the public at large and to the detriment of our heirs and
successors. We intend this dedication to be an overt act of
relinquishment in perpetuity of all present and future rights to this
software under copyright law.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
OTHER DEALINGS IN THE SOFTWARE.

For more information, please refer to <http://unlicense.org/>
*/

// Package codec reads and writes OSM datasets one record at a time.
//
// Reading goes through the paulmach/osm scanners (PBF and XML). Writing
// always produces PBF: an OSMHeader blob followed by zlib compressed
// OSMData blobs, one primitive group of a single kind per block.
package codec

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Fajla/open-street-maps/record"
	"github.com/edsrzf/mmap-go"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type Format uint8

const (
	FormatAuto Format = iota
	FormatPBF
	FormatXML
)

// DetectFormat guesses from the file name; anything not ending in .osm or
// .xml is treated as PBF.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".osm", ".xml":
		return FormatXML
	}
	return FormatPBF
}

type ReadOptions struct {
	// ReadMetadata fills Record.Meta. Off by default, nothing in the
	// filter needs author or timestamp data.
	ReadMetadata bool

	// SkipRelations asks the PBF decoder to drop relations early.
	SkipRelations bool

	// Workers is the number of PBF decoding goroutines, 0 means GOMAXPROCS.
	Workers int

	// Mmap maps the file instead of reading it through the page cache
	// with read(2).
	Mmap bool

	Format Format
}

// Reader is a sequential record source. It is not safe for concurrent use.
type Reader struct {
	path string
	opts ReadOptions
	file *os.File
	area mmap.MMap
	sca  osm.Scanner
	n    int64
	done bool
}

// Open opens the dataset at path. A missing or unreadable file yields a
// *SourceNotFoundError.
func Open(ctx context.Context, path string, opts ReadOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	if st.IsDir() {
		f.Close()
		return nil, &SourceNotFoundError{Path: path, Err: errors.New("is a directory")}
	}

	r := &Reader{path: path, opts: opts, file: f}
	var src io.Reader = f
	if opts.Mmap && st.Size() > 0 {
		r.area, err = mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, &SourceNotFoundError{Path: path, Err: errors.Wrap(err, "mmap")}
		}
		src = bytes.NewReader(r.area)
	}

	format := opts.Format
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	switch format {
	case FormatXML:
		r.sca = osmxml.New(ctx, src)
	default:
		procs := opts.Workers
		if procs <= 0 {
			procs = runtime.GOMAXPROCS(0)
		}
		s := osmpbf.New(ctx, src, procs)
		s.SkipRelations = opts.SkipRelations
		r.sca = s
	}
	return r, nil
}

// Next returns the next record, or io.EOF once the source is exhausted.
// Decoder failures come back as *MalformedRecordError; the reader cannot
// be resumed after one.
func (r *Reader) Next() (record.Record, error) {
	if r.sca.Scan() {
		r.n++
		return fromObject(r.sca.Object(), r.opts.ReadMetadata), nil
	}
	err := r.sca.Err()
	if err == nil {
		return record.Record{}, io.EOF
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return record.Record{}, err
	}
	return record.Record{}, &MalformedRecordError{Path: r.path, Index: r.n, Err: err}
}

// Count is the number of records returned so far.
func (r *Reader) Count() int64 { return r.n }

func (r *Reader) Path() string { return r.path }

// Close releases the scanner, the mapping and the file. Calling it again
// is a no-op.
func (r *Reader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	err := r.sca.Close()
	if r.area != nil {
		if uerr := r.area.Unmap(); err == nil {
			err = uerr
		}
		r.area = nil
	}
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
