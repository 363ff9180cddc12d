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

// Package geombuild turns the filtered dataset back into line geometries.
package geombuild

import (
	"fmt"
	"io"

	"github.com/Fajla/open-street-maps/record"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// DanglingReferenceError means a path points at an id that is not part of
// the filtered dataset. Filtering should make this impossible, so it is
// never skipped.
type DanglingReferenceError struct {
	PathID  int64
	PointID int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("path %d references unknown point %d", e.PathID, e.PointID)
}

// PointIndex maps point ids to coordinates.
type PointIndex interface {
	Put(id int64, c record.Coord) error
	Get(id int64) (c record.Coord, ok bool, err error)
}

// MemIndex is the default in-memory PointIndex.
type MemIndex map[int64]record.Coord

func (m MemIndex) Put(id int64, c record.Coord) error {
	m[id] = c
	return nil
}

func (m MemIndex) Get(id int64) (record.Coord, bool, error) {
	c, ok := m[id]
	return c, ok, nil
}

// Line is one reconstructed path.
type Line struct {
	ID     int64
	Tags   record.Tags
	Coords orb.LineString
}

type Source interface {
	Next() (record.Record, error)
}

/*
Load reads src to the end, storing every point in idx, then resolves each
path's references in order. Paths come back in source order.
*/
func Load(src Source, idx PointIndex) ([]Line, error) {
	var paths []record.Record
	for {
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "load")
		}
		switch r.Kind {
		case record.KindPoint:
			if err := idx.Put(r.ID, r.Coord); err != nil {
				return nil, errors.Wrapf(err, "index point %d", r.ID)
			}
		case record.KindPath:
			paths = append(paths, r)
		case record.KindRelation, record.KindUnknown:
		}
	}

	lines := make([]Line, 0, len(paths))
	for i := range paths {
		l, err := Resolve(&paths[i], idx)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Resolve maps one path's references through idx.
func Resolve(p *record.Record, idx PointIndex) (Line, error) {
	ls := make(orb.LineString, 0, len(p.Refs))
	for _, ref := range p.Refs {
		c, ok, err := idx.Get(ref)
		if err != nil {
			return Line{}, errors.Wrapf(err, "lookup point %d of path %d", ref, p.ID)
		}
		if !ok {
			return Line{}, &DanglingReferenceError{PathID: p.ID, PointID: ref}
		}
		ls = append(ls, c.Point())
	}
	return Line{ID: p.ID, Tags: p.Tags, Coords: ls}, nil
}
