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

// Package sqlins exports measured lines into a PostGIS table, one row per
// path with its length, tags and geometry.
package sqlins

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/Fajla/open-street-maps/projection"
	"github.com/Fajla/open-street-maps/record"
	"github.com/Fajla/open-street-maps/style"
	_ "github.com/lib/pq"
	"github.com/lib/pq/hstore"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

const commitEvery = 1 << 14

type Table struct {
	Tname      string
	Style      style.Style
	Proj       projection.Projection
	Csql, Isql string
}

func NewTable(prefix string, stl style.Style, proj projection.Projection) *Table {
	t := &Table{Tname: prefix + "_line", Style: stl.Columns(), Proj: proj}
	var create, insert, values bytes.Buffer

	fmt.Fprintf(&create, "CREATE TABLE %s (osm_id bigint, length_m double precision" /*)*/, t.Tname)
	fmt.Fprintf(&insert, "INSERT INTO %s (osm_id,length_m,tags,way" /*)*/, t.Tname)
	fmt.Fprintf(&values /*(*/, ") VALUES ($1,$2,$3,ST_GeomFromEWKB($4)")

	for i, line := range t.Style {
		fmt.Fprintf(&create, ",\"%s\" %s", line.Tag, line.DataType)
		fmt.Fprintf(&insert, ",\"%s\"", line.Tag)
		fmt.Fprintf(&values, ",$%d", i+5)
	}
	fmt.Fprintf(&create /*(*/, ",\ntags hstore, way geometry(LineString,%d))", proj.SRID())
	values.WriteTo(&insert)
	fmt.Fprintf(&insert /*(*/, ")")

	t.Csql = create.String()
	t.Isql = insert.String()
	return t
}

func tags2hstore(tags record.Tags) (r hstore.Hstore) {
	r.Map = make(map[string]sql.NullString, len(tags))
	for _, t := range tags {
		r.Map[t.Key] = sql.NullString{String: t.Value, Valid: true}
	}
	return
}

/* Column values typed after the style's data type; unparsable numbers become NULL. */
func columnValue(dataType, v string) interface{} {
	switch {
	case strings.HasPrefix(dataType, "int"):
		if i, err := strconv.ParseInt(v, 0, 64); err == nil {
			return i
		}
		return nil
	case strings.HasPrefix(dataType, "real"), strings.HasPrefix(dataType, "double"):
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return nil
	}
	return v
}

// Args builds the insert arguments. Style columns are moved out of the
// hstore, as osm2pgsql does.
func (t *Table) Args(l *geombuild.Line, length float64) ([]interface{}, error) {
	g := geombuild.ToGeom(l.Coords, t.Proj.Point)
	if err := geombuild.ValidateLineString(g); err != nil {
		return nil, errors.Wrapf(err, "path %d", l.ID)
	}
	g.SetSRID(t.Proj.SRID())
	waybin, err := ewkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrapf(err, "path %d", l.ID)
	}
	hs := tags2hstore(l.Tags)
	target := append(make([]interface{}, 0, len(t.Style)+4), l.ID, length, nil, waybin)
	for _, s := range t.Style {
		var targ interface{}
		if r := hs.Map[s.Tag]; r.Valid {
			targ = columnValue(s.DataType, r.String)
		}
		delete(hs.Map, s.Tag)
		target = append(target, targ)
	}
	target[2] = hs
	return target, nil
}

// Builder owns the connection and the running transaction.
type Builder struct {
	DB     *sql.DB
	Table  *Table
	tx     *sql.Tx
	stmt   *sql.Stmt
	writes int
	closed bool
	Rows   int64
}

func Open(dburl string, t *Table) (*Builder, error) {
	db, err := sql.Open("postgres", dburl)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to DB")
	}
	return &Builder{DB: db, Table: t}, nil
}

// TouchTable replaces the line table.
func (b *Builder) TouchTable(ctx context.Context) error {
	for _, q := range []string{
		"CREATE EXTENSION IF NOT EXISTS hstore",
		fmt.Sprintf("DROP TABLE IF EXISTS %s", b.Table.Tname),
		b.Table.Csql,
		fmt.Sprintf("CREATE INDEX %s_ididx ON %s(osm_id)", b.Table.Tname, b.Table.Tname),
	} {
		if _, err := b.DB.ExecContext(ctx, q); err != nil {
			return errors.Wrapf(err, "exec %q", q)
		}
	}
	return nil
}

func (b *Builder) begin(ctx context.Context) (err error) {
	if b.tx != nil {
		return
	}
	if b.tx, err = b.DB.BeginTx(ctx, nil); err != nil {
		return
	}
	b.stmt, err = b.tx.PrepareContext(ctx, b.Table.Isql)
	if err != nil {
		b.tx.Rollback()
		b.tx = nil
	}
	return
}

/*
Add inserts one line. Lines that cannot form a LineString (fewer than two
distinct points) are skipped and reported with skipped=true.
*/
func (b *Builder) Add(ctx context.Context, l *geombuild.Line, length float64) (skipped bool, err error) {
	args, err := b.Table.Args(l, length)
	if err != nil {
		if _, ok := errors.Cause(err).(geombuild.EValidation); ok {
			return true, nil
		}
		return false, err
	}
	if err = b.begin(ctx); err != nil {
		return false, err
	}
	if _, err = b.stmt.ExecContext(ctx, args...); err != nil {
		return false, errors.Wrapf(err, "insert path %d", l.ID)
	}
	b.Rows++
	b.writes++
	if b.writes >= commitEvery {
		err = b.Flush()
	}
	return false, err
}

func (b *Builder) Flush() (err error) {
	if b.tx == nil {
		return nil
	}
	b.stmt.Close()
	err = b.tx.Commit()
	if err != nil {
		b.tx.Rollback()
	}
	b.tx, b.stmt, b.writes = nil, nil, 0
	return
}

func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.Flush()
	if cerr := b.DB.Close(); err == nil {
		err = cerr
	}
	return err
}
