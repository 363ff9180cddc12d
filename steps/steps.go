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

// Package steps holds the two streaming passes over the source dataset.
package steps

import (
	"io"
	"time"

	"github.com/Fajla/open-street-maps/record"
	"github.com/Fajla/open-street-maps/refset"
	"github.com/Fajla/open-street-maps/tagfilter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Source interface {
	Next() (record.Record, error)
}

type Sink interface {
	Write(r record.Record) error
}

// Stats counts what a pass has seen and, for Rewrite, emitted.
type Stats struct {
	Points, Paths, Relations, Other int64

	Matched       int64
	EmittedPoints int64
	EmittedPaths  int64
}

func (s *Stats) see(k record.Kind) {
	switch k {
	case record.KindPoint:
		s.Points++
	case record.KindPath:
		s.Paths++
	case record.KindRelation:
		s.Relations++
	default:
		s.Other++
	}
}

func (s *Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("points", s.Points),
		zap.Int64("paths", s.Paths),
		zap.Int64("relations", s.Relations),
		zap.Int64("matched", s.Matched),
	}
}

/*
Collect is pass 1: it unions the point ids of every path matching pred.
The returned set is frozen.
*/
func Collect(src Source, pred tagfilter.Predicate, tck <-chan time.Time, log *zap.Logger) (*refset.Set, Stats, error) {
	var st Stats
	refs := refset.New()
	for {
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, st, errors.Wrap(err, "collect")
		}
		st.see(r.Kind)
		if pred.MatchPath(&r) {
			st.Matched++
			refs.Add(r.Refs...)
		}
		select {
		case <-tck:
			log.Info("collect", append(st.fields(), zap.Uint64("refs", refs.Len()))...)
		default:
		}
	}
	refs.Freeze()
	log.Info("collect done", append(st.fields(),
		zap.Uint64("refs", refs.Len()),
		zap.Uint64("refs_bytes", refs.SizeInBytes()))...)
	return refs, st, nil
}

/*
Rewrite is pass 2. Points are emitted iff their id is in refs, paths iff
they match pred, everything else is dropped. Source order is kept.
*/
func Rewrite(src Source, dst Sink, refs *refset.Set, pred tagfilter.Predicate, tck <-chan time.Time, log *zap.Logger) (Stats, error) {
	var st Stats
	if !refs.Frozen() {
		return st, errors.New("rewrite: reference set is still being collected")
	}
	for {
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, errors.Wrap(err, "rewrite")
		}
		st.see(r.Kind)

		emit := false
		switch r.Kind {
		case record.KindPoint:
			emit = refs.Contains(r.ID)
			if emit {
				st.EmittedPoints++
			}
		case record.KindPath:
			emit = pred.Match(r.Tags)
			if emit {
				st.Matched++
				st.EmittedPaths++
			}
		case record.KindRelation, record.KindUnknown:
		}
		if emit {
			if err := dst.Write(r); err != nil {
				return st, errors.Wrapf(err, "rewrite %v", r)
			}
		}

		select {
		case <-tck:
			log.Info("rewrite", append(st.fields(),
				zap.Int64("emitted_points", st.EmittedPoints),
				zap.Int64("emitted_paths", st.EmittedPaths))...)
		default:
		}
	}
	log.Info("rewrite done", append(st.fields(),
		zap.Int64("emitted_points", st.EmittedPoints),
		zap.Int64("emitted_paths", st.EmittedPaths))...)
	return st, nil
}
