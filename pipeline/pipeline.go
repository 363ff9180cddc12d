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

/*
Package pipeline runs the whole job: collect the referenced points, rewrite
the filtered dataset, rebuild its lines and measure them. Each phase opens
its streams, drains them and closes them before the next phase starts.
*/
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/Fajla/open-street-maps/codec"
	"github.com/Fajla/open-street-maps/config"
	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/Fajla/open-street-maps/hucache"
	"github.com/Fajla/open-street-maps/measure"
	"github.com/Fajla/open-street-maps/refset"
	"github.com/Fajla/open-street-maps/steps"
	"github.com/Fajla/open-street-maps/store"
	"github.com/Fajla/open-street-maps/tagfilter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Result struct {
	TotalMeters float64
	Lines       int
	Refs        uint64

	Collect steps.Stats
	Rewrite steps.Stats

	// Filtered is the intermediate file, empty when it was removed.
	Filtered string

	Exported, Skipped int64

	Elapsed time.Duration
}

type runner struct {
	cfg  config.Config
	pred tagfilter.Predicate
	log  *zap.Logger
	tck  <-chan time.Time
}

func (r *runner) readOptions() codec.ReadOptions {
	return codec.ReadOptions{
		ReadMetadata:  r.cfg.Metadata,
		SkipRelations: true,
		Workers:       r.cfg.Workers,
		Mmap:          r.cfg.Mmap,
	}
}

// Run executes every phase in order. Any error aborts the run.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) (res Result, err error) {
	start := time.Now()
	if err = cfg.Validate(); err != nil {
		return
	}
	tck := time.NewTicker(cfg.Interval)
	defer tck.Stop()
	r := &runner{cfg: cfg, pred: tagfilter.New(cfg.Key, cfg.Value), log: log, tck: tck.C}

	log.Info("searching paths with tag", zap.String("source", cfg.Source), zap.Stringer("tag", r.pred))
	refs, err := r.collect(ctx, &res)
	if err != nil {
		return
	}

	out, err := r.intermediate(ctx, refs, &res)
	if err != nil {
		return
	}
	res.Filtered = out
	if cfg.Output == "" && !cfg.Keep {
		defer os.Remove(out)
		res.Filtered = ""
	}

	log.Info("loading filtered map data")
	lines, err := r.reconstruct(ctx, out)
	if err != nil {
		return
	}
	res.Lines = len(lines)

	log.Info("calculating total length", zap.Int("lines", len(lines)))
	res.TotalMeters = measure.Total(lines)

	if cfg.DBURL != "" {
		if err = r.export(ctx, lines, &res); err != nil {
			return
		}
	}
	res.Elapsed = time.Since(start)
	log.Info("finished", zap.Float64("total_m", res.TotalMeters), zap.Duration("elapsed", res.Elapsed))
	return
}

func (r *runner) collect(ctx context.Context, res *Result) (*refset.Set, error) {
	src, err := codec.Open(ctx, r.cfg.Source, r.readOptions())
	if err != nil {
		return nil, err
	}
	defer src.Close()
	refs, st, err := steps.Collect(src, r.pred, r.tck, r.log)
	res.Collect = st
	if err != nil {
		return nil, err
	}
	res.Refs = refs.Len()
	return refs, src.Close()
}

/*
intermediate runs pass 2 into the configured output or, without one, into a
fresh temporary file. The temporary file is removed again if pass 2 fails.
*/
func (r *runner) intermediate(ctx context.Context, refs *refset.Set, res *Result) (string, error) {
	if r.cfg.Output != "" {
		r.log.Info("filtering data from map file", zap.String("out", r.cfg.Output))
		return r.cfg.Output, r.rewrite(ctx, refs, r.cfg.Output, res)
	}
	f, err := os.CreateTemp(r.cfg.TempDir, "filtered-*.osm.pbf")
	if err != nil {
		return "", &codec.DestinationWriteError{Path: r.cfg.TempDir, Op: "create", Err: err}
	}
	out := f.Name()
	f.Close()
	r.log.Info("filtering data from map file", zap.String("out", out))
	if err := r.rewrite(ctx, refs, out, res); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

func (r *runner) rewrite(ctx context.Context, refs *refset.Set, out string, res *Result) error {
	src, err := codec.Open(ctx, r.cfg.Source, r.readOptions())
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := codec.Create(out, codec.WriteOptions{WriteMetadata: r.cfg.Metadata})
	if err != nil {
		return err
	}
	defer dst.Abort()

	st, err := steps.Rewrite(src, dst, refs, r.pred, r.tck, r.log)
	res.Rewrite = st
	if err != nil {
		return err
	}
	if err := src.Close(); err != nil {
		return err
	}
	return dst.Commit()
}

func (r *runner) pointIndex() (geombuild.PointIndex, func() error, error) {
	if r.cfg.Index != config.IndexLevelDB {
		return geombuild.MemIndex{}, func() error { return nil }, nil
	}
	var cache hucache.Cache
	if r.cfg.CacheMB > 0 {
		/* a quarter of the budget goes to the ARC tier, ~64 bytes per entry */
		n := (r.cfg.CacheMB << 20) / 4 / 64
		cache = hucache.Tiered(hucache.NewARC(n, n), hucache.NewFree(r.cfg.CacheMB<<20))
	}
	dir := r.cfg.IndexDir
	if dir == "" {
		dir = r.cfg.TempDir
	}
	s, err := store.OpenTemp(dir, cache)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func (r *runner) reconstruct(ctx context.Context, path string) ([]geombuild.Line, error) {
	idx, closeIdx, err := r.pointIndex()
	if err != nil {
		return nil, err
	}
	defer closeIdx()

	src, err := codec.Open(ctx, path, codec.ReadOptions{Workers: r.cfg.Workers, SkipRelations: true})
	if err != nil {
		return nil, err
	}
	defer src.Close()
	lines, err := geombuild.Load(src, idx)
	if err != nil {
		return nil, errors.Wrapf(err, "rebuild %s", path)
	}
	return lines, nil
}
