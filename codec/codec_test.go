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
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fajla/open-street-maps/record"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []record.Record {
	return []record.Record{
		record.NewPoint(1, 52.5, 13.4),
		record.NewPoint(2, 52.51, 13.41, record.Tag{Key: "amenity", Value: "cafe"}),
		record.NewPoint(5, -33.9, 151.2),
		record.NewPath(10, []int64{1, 2, 5}, record.Tag{Key: "highway", Value: "residential"}, record.Tag{Key: "name", Value: "Elm"}),
		record.NewPath(11, []int64{5, 1}),
		record.NewRelation(20, []record.Member{
			{Kind: record.KindPath, Ref: 10, Role: "outer"},
			{Kind: record.KindPoint, Ref: 2, Role: ""},
		}, record.Tag{Key: "type", Value: "route"}),
	}
}

func writeAll(t *testing.T, path string, opts WriteOptions, recs []record.Record) {
	t.Helper()
	w, err := Create(path, opts)
	require.NoError(t, err)
	defer w.Abort()
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Commit())
}

func readAll(t *testing.T, path string, opts ReadOptions) []record.Record {
	t.Helper()
	r, err := Open(context.Background(), path, opts)
	require.NoError(t, err)
	defer r.Close()
	var out []record.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
	assert.Equal(t, int64(len(out)), r.Count())
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, mm := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "rt.osm.pbf")
		want := fixture()
		writeAll(t, path, WriteOptions{}, want)

		got := readAll(t, path, ReadOptions{Workers: 1, Mmap: mm})
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Kind, got[i].Kind)
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, want[i].Tags, got[i].Tags)
			assert.InDelta(t, want[i].Coord.Lat, got[i].Coord.Lat, 1e-7)
			assert.InDelta(t, want[i].Coord.Lon, got[i].Coord.Lon, 1e-7)
			assert.Equal(t, want[i].Refs, got[i].Refs)
			assert.Nil(t, got[i].Meta)
		}
		assert.Equal(t, want[5].Members, got[5].Members)
	}
}

func TestSkipRelations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sk.pbf")
	writeAll(t, path, WriteOptions{}, fixture())

	got := readAll(t, path, ReadOptions{SkipRelations: true})
	require.Len(t, got, 5)
	for _, r := range got {
		assert.NotEqual(t, record.KindRelation, r.Kind)
	}
}

func TestMetadata(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	n := record.NewPoint(3, 1, 2)
	n.Meta = &record.Metadata{Version: 3, Timestamp: ts, Changeset: 42, UserID: 7, User: "alice"}
	w := record.NewPath(4, []int64{3})
	w.Meta = &record.Metadata{Version: 2, Timestamp: ts, Changeset: 43, UserID: 8, User: "bob"}

	path := filepath.Join(t.TempDir(), "meta.pbf")
	writeAll(t, path, WriteOptions{WriteMetadata: true}, []record.Record{n, w})

	got := readAll(t, path, ReadOptions{ReadMetadata: true})
	require.Len(t, got, 2)
	for i, want := range []*record.Metadata{n.Meta, w.Meta} {
		require.NotNil(t, got[i].Meta)
		assert.Equal(t, want.Version, got[i].Meta.Version)
		assert.Equal(t, want.Changeset, got[i].Meta.Changeset)
		assert.Equal(t, want.UserID, got[i].Meta.UserID)
		assert.Equal(t, want.User, got[i].Meta.User)
		assert.Equal(t, ts.Unix(), got[i].Meta.Timestamp.Unix())
	}
}

func TestDeterministicOutput(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.pbf"), filepath.Join(dir, "b.pbf")
	writeAll(t, a, WriteOptions{}, fixture())
	writeAll(t, b, WriteOptions{}, fixture())

	ba, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ba, bb)
}

func TestSmallBlocks(t *testing.T) {
	var recs []record.Record
	for i := int64(1); i <= 25; i++ {
		recs = append(recs, record.NewPoint(i, float64(i)/10, float64(-i)/10))
	}
	path := filepath.Join(t.TempDir(), "blocks.pbf")
	writeAll(t, path, WriteOptions{BlockSize: 4}, recs)

	got := readAll(t, path, ReadOptions{})
	require.Len(t, got, 25)
	for i, r := range got {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestCommitReplacesDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pbf")
	require.NoError(t, os.WriteFile(path, []byte("stale content from an earlier run"), 0o644))

	writeAll(t, path, WriteOptions{}, fixture()[:1])
	got := readAll(t, path, ReadOptions{})
	require.Len(t, got, 1)
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pbf")
	w, err := Create(path, WriteOptions{})
	require.NoError(t, err)
	require.NoError(t, w.Write(fixture()[0]))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Error(t, w.Write(fixture()[0]))
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pbf")
	writeAll(t, path, WriteOptions{}, nil)
	assert.Empty(t, readAll(t, path, ReadOptions{}))
}

func TestWriteUnknownKind(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "x.pbf"), WriteOptions{})
	require.NoError(t, err)
	defer w.Abort()
	assert.Error(t, w.Write(record.Record{Kind: record.KindUnknown, ID: 1}))
}

func TestCreateMissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "nope", "x.pbf"), WriteOptions{})
	var dwe *DestinationWriteError
	require.True(t, errors.As(err, &dwe))
	assert.Equal(t, "create", dwe.Op)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.pbf"), ReadOptions{})
	var snf *SourceNotFoundError
	require.True(t, errors.As(err, &snf))

	_, err = Open(context.Background(), t.TempDir(), ReadOptions{})
	require.True(t, errors.As(err, &snf))
}

func TestMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pbf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a protocol buffer stream"), 0o644))

	r, err := Open(context.Background(), path, ReadOptions{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre), "got %v", err)
	assert.Equal(t, int64(0), mre.Index)
}

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" lat="0" lon="0"/>
 <node id="2" lat="0" lon="1"/>
 <way id="3">
  <nd ref="1"/>
  <nd ref="2"/>
  <tag k="highway" v="residential"/>
 </way>
</osm>`

func TestReadXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.osm")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	got := readAll(t, path, ReadOptions{})
	require.Len(t, got, 3)
	assert.Equal(t, record.KindPoint, got[0].Kind)
	assert.Equal(t, 1.0, got[1].Coord.Lon)
	assert.Equal(t, record.KindPath, got[2].Kind)
	assert.Equal(t, []int64{1, 2}, got[2].Refs)
	assert.True(t, got[2].Tags.Has("highway", "residential"))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPBF, DetectFormat("planet.osm.pbf"))
	assert.Equal(t, FormatXML, DetectFormat("map.OSM"))
	assert.Equal(t, FormatXML, DetectFormat("map.xml"))
	assert.Equal(t, FormatPBF, DetectFormat("noext"))
}
