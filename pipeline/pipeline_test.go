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

package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fajla/open-street-maps/codec"
	"github.com/Fajla/open-street-maps/config"
	"github.com/Fajla/open-street-maps/measure"
	"github.com/Fajla/open-street-maps/record"
	"github.com/Fajla/open-street-maps/refset"
	"github.com/Fajla/open-street-maps/tagfilter"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var residential = record.Tag{Key: "highway", Value: "residential"}

/*
Two residential paths: 100 runs one degree along the equator, 102 is a
single point. 101 is primary and shares point 3 with nothing residential.
*/
func writeSource(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.osm.pbf")
	w, err := codec.Create(path, codec.WriteOptions{})
	require.NoError(t, err)
	defer w.Abort()
	for _, r := range []record.Record{
		record.NewPoint(1, 0, 0),
		record.NewPoint(2, 0, 0.5),
		record.NewPoint(3, 0, 1),
		record.NewPoint(4, 10, 10),
		record.NewPoint(5, 20, 20),
		record.NewPoint(6, 30, 30, record.Tag{Key: "amenity", Value: "bench"}),
		record.NewPath(100, []int64{1, 2, 3}, residential),
		record.NewPath(101, []int64{4, 5}, record.Tag{Key: "highway", Value: "primary"}),
		record.NewPath(102, []int64{6}, residential),
		record.NewRelation(200, []record.Member{{Kind: record.KindPath, Ref: 100, Role: ""}}, residential),
	} {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Commit())
	return path
}

func cfgFor(t *testing.T, src, key, value string) config.Config {
	c := config.Default()
	c.Source, c.Key, c.Value = src, key, value
	c.TempDir = t.TempDir()
	c.Workers = 1
	c.Interval = time.Hour
	return c
}

func readIDs(t *testing.T, path string) (points, paths []int64) {
	t.Helper()
	r, err := codec.Open(context.Background(), path, codec.ReadOptions{})
	require.NoError(t, err)
	defer r.Close()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
		switch rec.Kind {
		case record.KindPoint:
			points = append(points, rec.ID)
		case record.KindPath:
			paths = append(paths, rec.ID)
		default:
			t.Fatalf("unexpected %v in filtered output", rec)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	c := cfgFor(t, writeSource(t, dir), "highway", "residential")
	c.Output = filepath.Join(dir, "filtered.osm.pbf")

	res, err := Run(context.Background(), c, zap.NewNop())
	require.NoError(t, err)

	assert.InEpsilon(t, 111194.0, res.TotalMeters, 0.01)
	assert.InDelta(t, measure.PathLength(orb.LineString{{0, 0}, {1, 0}}), res.TotalMeters, 0.01)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, uint64(4), res.Refs)
	assert.Equal(t, int64(2), res.Collect.Matched)
	assert.Equal(t, int64(4), res.Rewrite.EmittedPoints)
	assert.Equal(t, int64(2), res.Rewrite.EmittedPaths)
	assert.Equal(t, c.Output, res.Filtered)

	points, paths := readIDs(t, c.Output)
	assert.Equal(t, []int64{1, 2, 3, 6}, points)
	assert.Equal(t, []int64{100, 102}, paths)
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	var outs [2][]byte
	for i := range outs {
		c := cfgFor(t, src, "highway", "residential")
		c.Output = filepath.Join(dir, "filtered.osm.pbf")
		_, err := Run(context.Background(), c, zap.NewNop())
		require.NoError(t, err)
		outs[i], err = os.ReadFile(c.Output)
		require.NoError(t, err)
	}
	assert.Equal(t, outs[0], outs[1])
}

func TestRunOtherPredicate(t *testing.T) {
	dir := t.TempDir()
	c := cfgFor(t, writeSource(t, dir), "highway", "primary")
	c.Output = filepath.Join(dir, "primary.osm.pbf")

	res, err := Run(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	points, paths := readIDs(t, c.Output)
	assert.Equal(t, []int64{4, 5}, points)
	assert.Equal(t, []int64{101}, paths)
	assert.InDelta(t, measure.PathLength(orb.LineString{{10, 10}, {20, 20}}), res.TotalMeters, 1e-6)
}

func TestRunNoMatch(t *testing.T) {
	dir := t.TempDir()
	c := cfgFor(t, writeSource(t, dir), "highway", "motorway")
	c.Output = filepath.Join(dir, "none.osm.pbf")

	res, err := Run(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.TotalMeters)
	assert.Equal(t, 0, res.Lines)

	points, paths := readIDs(t, c.Output)
	assert.Empty(t, points)
	assert.Empty(t, paths)
}

func TestRunLevelDBIndex(t *testing.T) {
	dir := t.TempDir()
	for _, mb := range []int{0, 1} {
		c := cfgFor(t, writeSource(t, dir), "highway", "residential")
		c.Index = config.IndexLevelDB
		c.CacheMB = mb
		c.Mmap = true

		res, err := Run(context.Background(), c, zap.NewNop())
		require.NoError(t, err)
		assert.InEpsilon(t, 111194.0, res.TotalMeters, 0.01)
	}
}

func TestRunEphemeralIntermediate(t *testing.T) {
	dir := t.TempDir()
	c := cfgFor(t, writeSource(t, dir), "highway", "residential")

	res, err := Run(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, res.Filtered)
	entries, err := os.ReadDir(c.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	c.Keep = true
	res, err = Run(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, res.Filtered)
	_, err = os.Stat(res.Filtered)
	assert.NoError(t, err)
}

func TestIntermediateRemovedOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.osm.pbf")
	require.NoError(t, os.WriteFile(src, []byte("definitely not osm data"), 0o644))
	c := cfgFor(t, src, "highway", "residential")
	c.Keep = true
	r := &runner{cfg: c, pred: tagfilter.New(c.Key, c.Value), log: zap.NewNop()}
	refs := refset.New()
	refs.Freeze()

	out, err := r.intermediate(context.Background(), refs, &Result{})
	var mre *codec.MalformedRecordError
	assert.True(t, errors.As(err, &mre))
	assert.Empty(t, out)
	entries, err := os.ReadDir(c.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunMissingSource(t *testing.T) {
	c := cfgFor(t, filepath.Join(t.TempDir(), "absent.osm.pbf"), "highway", "residential")
	_, err := Run(context.Background(), c, zap.NewNop())
	var snf *codec.SourceNotFoundError
	assert.True(t, errors.As(err, &snf))
}

func TestRunMalformedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.osm.pbf")
	require.NoError(t, os.WriteFile(src, []byte("definitely not osm data"), 0o644))
	c := cfgFor(t, src, "highway", "residential")
	c.Output = filepath.Join(dir, "out.osm.pbf")

	_, err := Run(context.Background(), c, zap.NewNop())
	var mre *codec.MalformedRecordError
	assert.True(t, errors.As(err, &mre))
	_, err = os.Stat(c.Output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunBadDestination(t *testing.T) {
	dir := t.TempDir()
	c := cfgFor(t, writeSource(t, dir), "highway", "residential")
	c.Output = filepath.Join(dir, "missing-dir", "out.osm.pbf")

	_, err := Run(context.Background(), c, zap.NewNop())
	var dwe *codec.DestinationWriteError
	assert.True(t, errors.As(err, &dwe))
}

func TestRunInvalidConfig(t *testing.T) {
	c := cfgFor(t, "x.pbf", "", "residential")
	_, err := Run(context.Background(), c, zap.NewNop())
	var ve *config.ValidationError
	assert.True(t, errors.As(err, &ve))
}
