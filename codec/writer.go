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

package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/Fajla/open-street-maps/record"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	granularity     = 100
	dateGranularity = 1000

	// Limits recommended by the PBF format description.
	maxBlockEntities = 8000
	maxBlobSize      = 32 << 20
)

type WriteOptions struct {
	// WriteMetadata emits version, timestamp, changeset and user of every
	// record. When off the info blocks carry zeros.
	WriteMetadata bool

	// Program is stored as writingprogram in the header block.
	Program string

	// BlockSize caps the number of entities per primitive block.
	BlockSize int

	// Level is the zlib compression level, 0 means zlib.DefaultCompression.
	Level int
}

// Writer appends records to a PBF file. Output goes to a temporary sibling
// of the destination; Commit renames it into place, Abort throws it away.
// A destination that already exists is replaced as a whole on Commit.
type Writer struct {
	path string
	tmp  string
	opts WriteOptions
	file *os.File
	bw   *bufio.Writer

	kind    record.Kind
	pending []record.Record
	counts  map[record.Kind]int64

	zbuf bytes.Buffer
	err  error
	done bool
}

// Create starts a new PBF file that will appear at path on Commit.
func Create(path string, opts WriteOptions) (*Writer, error) {
	if opts.BlockSize <= 0 || opts.BlockSize > maxBlockEntities {
		opts.BlockSize = maxBlockEntities
	}
	if opts.Level == 0 {
		opts.Level = zlib.DefaultCompression
	}
	if opts.Program == "" {
		opts.Program = "open-street-maps"
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, &DestinationWriteError{Path: path, Op: "create", Err: err}
	}
	w := &Writer{
		path:   path,
		tmp:    f.Name(),
		opts:   opts,
		file:   f,
		bw:     bufio.NewWriterSize(f, 1<<20),
		counts: make(map[record.Kind]int64),
	}
	if err := w.writeBlob("OSMHeader", w.headerBlock()); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// Write queues r for the current block. Records are written in the order
// given; a change of kind closes the current block.
func (w *Writer) Write(r record.Record) error {
	if w.err != nil {
		return w.err
	}
	if w.done {
		return errors.New("codec: write after commit or abort")
	}
	switch r.Kind {
	case record.KindPoint, record.KindPath, record.KindRelation:
	default:
		return errors.Errorf("codec: cannot encode %v", r)
	}
	if r.Kind != w.kind || len(w.pending) >= w.opts.BlockSize {
		if err := w.flush(); err != nil {
			return err
		}
		w.kind = r.Kind
	}
	w.pending = append(w.pending, r)
	w.counts[r.Kind]++
	return nil
}

// Written is the number of records of kind k accepted so far.
func (w *Writer) Written(k record.Kind) int64 { return w.counts[k] }

// Commit flushes, syncs and renames the file into place.
func (w *Writer) Commit() error {
	if w.done {
		return errors.New("codec: commit after commit or abort")
	}
	if err := w.flush(); err != nil {
		w.Abort()
		return err
	}
	if err := w.bw.Flush(); err != nil {
		w.Abort()
		return w.fail("flush", err)
	}
	if err := w.file.Chmod(0o644); err != nil {
		w.Abort()
		return w.fail("chmod", err)
	}
	if err := w.file.Sync(); err != nil {
		w.Abort()
		return w.fail("sync", err)
	}
	w.done = true
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmp)
		return w.fail("close", err)
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		os.Remove(w.tmp)
		return w.fail("rename", err)
	}
	return nil
}

// Abort discards everything written. It is a no-op after Commit, so it
// can be deferred right after Create.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.file.Close()
	return os.Remove(w.tmp)
}

func (w *Writer) fail(op string, err error) error {
	if w.err == nil {
		w.err = &DestinationWriteError{Path: w.path, Op: op, Err: err}
	}
	return w.err
}

func (w *Writer) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	st := newStringTable()
	var group []byte
	switch w.kind {
	case record.KindPoint:
		group = protowire.AppendTag(group, 2, protowire.BytesType)
		group = protowire.AppendBytes(group, w.denseNodes(st, w.pending))
	case record.KindPath:
		for i := range w.pending {
			group = protowire.AppendTag(group, 3, protowire.BytesType)
			group = protowire.AppendBytes(group, w.way(st, &w.pending[i]))
		}
	case record.KindRelation:
		for i := range w.pending {
			group = protowire.AppendTag(group, 4, protowire.BytesType)
			group = protowire.AppendBytes(group, w.relation(st, &w.pending[i]))
		}
	}

	var block []byte
	block = protowire.AppendTag(block, 1, protowire.BytesType)
	block = protowire.AppendBytes(block, st.encode())
	block = protowire.AppendTag(block, 2, protowire.BytesType)
	block = protowire.AppendBytes(block, group)
	block = protowire.AppendTag(block, 17, protowire.VarintType)
	block = protowire.AppendVarint(block, granularity)
	block = protowire.AppendTag(block, 18, protowire.VarintType)
	block = protowire.AppendVarint(block, dateGranularity)

	w.pending = w.pending[:0]
	return w.writeBlob("OSMData", block)
}

func (w *Writer) headerBlock() []byte {
	var b []byte
	for _, feat := range []string{"OsmSchema-V0.6", "DenseNodes"} {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, feat)
	}
	b = protowire.AppendTag(b, 16, protowire.BytesType)
	b = protowire.AppendString(b, w.opts.Program)
	return b
}

/* BlobHeader length (4 bytes, big endian), BlobHeader, Blob. */
func (w *Writer) writeBlob(typ string, raw []byte) error {
	if w.err != nil {
		return w.err
	}
	w.zbuf.Reset()
	zw, err := zlib.NewWriterLevel(&w.zbuf, w.opts.Level)
	if err != nil {
		return w.fail("compress", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return w.fail("compress", err)
	}
	if err := zw.Close(); err != nil {
		return w.fail("compress", err)
	}

	var blob []byte
	blob = protowire.AppendTag(blob, 2, protowire.VarintType)
	blob = protowire.AppendVarint(blob, uint64(len(raw)))
	blob = protowire.AppendTag(blob, 3, protowire.BytesType)
	blob = protowire.AppendBytes(blob, w.zbuf.Bytes())
	if len(blob) > maxBlobSize {
		return w.fail("encode", errors.Errorf("blob of %d bytes exceeds %d", len(blob), maxBlobSize))
	}

	var hdr []byte
	hdr = protowire.AppendTag(hdr, 1, protowire.BytesType)
	hdr = protowire.AppendString(hdr, typ)
	hdr = protowire.AppendTag(hdr, 3, protowire.VarintType)
	hdr = protowire.AppendVarint(hdr, uint64(len(blob)))

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(hdr)))
	for _, p := range [][]byte{size[:], hdr, blob} {
		if _, err := w.bw.Write(p); err != nil {
			return w.fail("write", err)
		}
	}
	return nil
}

type info struct {
	version   int32
	timestamp int64
	changeset int64
	uid       int32
	userSid   uint32
}

func (w *Writer) info(st *stringTable, r *record.Record) (i info) {
	if !w.opts.WriteMetadata || r.Meta == nil {
		return
	}
	i.version = r.Meta.Version
	if !r.Meta.Timestamp.IsZero() {
		i.timestamp = r.Meta.Timestamp.UnixMilli() / dateGranularity
	}
	i.changeset = r.Meta.Changeset
	i.uid = r.Meta.UserID
	i.userSid = st.index(r.Meta.User)
	return
}

func appendInfo(b []byte, i info) []byte {
	var m []byte
	m = protowire.AppendTag(m, 1, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(int64(i.version)))
	m = protowire.AppendTag(m, 2, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(i.timestamp))
	m = protowire.AppendTag(m, 3, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(i.changeset))
	m = protowire.AppendTag(m, 4, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(int64(i.uid)))
	m = protowire.AppendTag(m, 5, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(i.userSid))
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func appendPacked(b []byte, num protowire.Number, packed []byte) []byte {
	if len(packed) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func zz(v int64) uint64 { return protowire.EncodeZigZag(v) }

func toRaw(deg float64) int64 { return int64(math.Round(deg * 1e9 / granularity)) }

func (w *Writer) denseNodes(st *stringTable, nodes []record.Record) []byte {
	var ids, lats, lons, kv []byte
	var vers, tss, css, uids, usids []byte
	var pid, plat, plon, pts, pcs int64
	var puid, pusid int64
	for i := range nodes {
		n := &nodes[i]
		lat, lon := toRaw(n.Coord.Lat), toRaw(n.Coord.Lon)
		ids = protowire.AppendVarint(ids, zz(n.ID-pid))
		lats = protowire.AppendVarint(lats, zz(lat-plat))
		lons = protowire.AppendVarint(lons, zz(lon-plon))
		pid, plat, plon = n.ID, lat, lon

		for _, t := range n.Tags {
			if t.Key == "" {
				continue
			}
			kv = protowire.AppendVarint(kv, uint64(st.index(t.Key)))
			kv = protowire.AppendVarint(kv, uint64(st.index(t.Value)))
		}
		kv = protowire.AppendVarint(kv, 0)

		in := w.info(st, n)
		vers = protowire.AppendVarint(vers, uint64(int64(in.version)))
		tss = protowire.AppendVarint(tss, zz(in.timestamp-pts))
		css = protowire.AppendVarint(css, zz(in.changeset-pcs))
		uids = protowire.AppendVarint(uids, zz(int64(in.uid)-puid))
		usids = protowire.AppendVarint(usids, zz(int64(in.userSid)-pusid))
		pts, pcs, puid, pusid = in.timestamp, in.changeset, int64(in.uid), int64(in.userSid)
	}

	var di []byte
	di = appendPacked(di, 1, vers)
	di = appendPacked(di, 2, tss)
	di = appendPacked(di, 3, css)
	di = appendPacked(di, 4, uids)
	di = appendPacked(di, 5, usids)

	var b []byte
	b = appendPacked(b, 1, ids)
	b = protowire.AppendTag(b, 5, protowire.BytesType)
	b = protowire.AppendBytes(b, di)
	b = appendPacked(b, 8, lats)
	b = appendPacked(b, 9, lons)
	b = appendPacked(b, 10, kv)
	return b
}

func (w *Writer) tags(st *stringTable, tags record.Tags) (keys, vals []byte) {
	for _, t := range tags {
		keys = protowire.AppendVarint(keys, uint64(st.index(t.Key)))
		vals = protowire.AppendVarint(vals, uint64(st.index(t.Value)))
	}
	return
}

func (w *Writer) way(st *stringTable, r *record.Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.ID))
	keys, vals := w.tags(st, r.Tags)
	b = appendPacked(b, 2, keys)
	b = appendPacked(b, 3, vals)
	b = appendInfo(b, w.info(st, r))

	var refs []byte
	var prev int64
	for _, ref := range r.Refs {
		refs = protowire.AppendVarint(refs, zz(ref-prev))
		prev = ref
	}
	return appendPacked(b, 8, refs)
}

func memberType(k record.Kind) uint64 {
	switch k {
	case record.KindPath:
		return 1
	case record.KindRelation:
		return 2
	}
	return 0
}

func (w *Writer) relation(st *stringTable, r *record.Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.ID))
	keys, vals := w.tags(st, r.Tags)
	b = appendPacked(b, 2, keys)
	b = appendPacked(b, 3, vals)
	b = appendInfo(b, w.info(st, r))

	var roles, memids, types []byte
	var prev int64
	for _, m := range r.Members {
		roles = protowire.AppendVarint(roles, uint64(st.index(m.Role)))
		memids = protowire.AppendVarint(memids, zz(m.Ref-prev))
		prev = m.Ref
		types = protowire.AppendVarint(types, memberType(m.Kind))
	}
	b = appendPacked(b, 8, roles)
	b = appendPacked(b, 9, memids)
	return appendPacked(b, 10, types)
}

/* Index 0 is reserved for the empty string, dense key/value lists use it
as the end-of-node marker. */
type stringTable struct {
	idx  map[string]uint32
	strs []string
}

func newStringTable() *stringTable {
	return &stringTable{idx: map[string]uint32{"": 0}, strs: []string{""}}
}

func (s *stringTable) index(str string) uint32 {
	if i, ok := s.idx[str]; ok {
		return i
	}
	i := uint32(len(s.strs))
	s.idx[str] = i
	s.strs = append(s.strs, str)
	return i
}

func (s *stringTable) encode() []byte {
	var b []byte
	for _, str := range s.strs {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, str)
	}
	return b
}
