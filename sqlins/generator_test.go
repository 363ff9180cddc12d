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

package sqlins

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/Fajla/open-street-maps/projection"
	"github.com/Fajla/open-street-maps/record"
	"github.com/Fajla/open-street-maps/style"
	"github.com/lib/pq/hstore"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

const stl = `
way  highway  text  linear
way  lanes    int4  linear
way  width    real  linear
`

func table() *Table {
	return NewTable("osm", style.LoadStyle(strings.NewReader(stl)), projection.LatLon)
}

func TestNewTableSQL(t *testing.T) {
	tb := table()
	assert.Equal(t, "osm_line", tb.Tname)
	assert.Equal(t, `CREATE TABLE osm_line (osm_id bigint, length_m double precision,"highway" text,"lanes" int4,"width" real,
tags hstore, way geometry(LineString,4326))`, tb.Csql)
	assert.Equal(t, `INSERT INTO osm_line (osm_id,length_m,tags,way,"highway","lanes","width") VALUES ($1,$2,$3,ST_GeomFromEWKB($4),$5,$6,$7)`, tb.Isql)
}

func TestArgs(t *testing.T) {
	l := &geombuild.Line{
		ID:     42,
		Coords: orb.LineString{{0, 0}, {1, 0}},
		Tags: record.Tags{
			{Key: "highway", Value: "residential"},
			{Key: "lanes", Value: "2"},
			{Key: "width", Value: "wide"},
			{Key: "name", Value: "Elm"},
		},
	}
	args, err := table().Args(l, 111319.5)
	require.NoError(t, err)
	require.Len(t, args, 7)

	assert.Equal(t, int64(42), args[0])
	assert.Equal(t, 111319.5, args[1])
	assert.Equal(t, hstore.Hstore{Map: map[string]sql.NullString{
		"name": {String: "Elm", Valid: true},
	}}, args[2])
	assert.Equal(t, "residential", args[4])
	assert.Equal(t, int64(2), args[5])
	assert.Nil(t, args[6])

	g, err := ewkb.Unmarshal(args[3].([]byte))
	require.NoError(t, err)
	assert.Equal(t, 4326, g.SRID())
	assert.Equal(t, []float64{0, 0, 1, 0}, g.(*geom.LineString).FlatCoords())
}

func TestArgsRejectsShortLine(t *testing.T) {
	_, err := table().Args(&geombuild.Line{ID: 1, Coords: orb.LineString{{0, 0}}}, 0)
	assert.Error(t, err)
}

func TestColumnValue(t *testing.T) {
	assert.Equal(t, int64(16), columnValue("int4", "0x10"))
	assert.Nil(t, columnValue("int4", "many"))
	assert.Equal(t, 2.5, columnValue("real", "2.5"))
	assert.Equal(t, "x", columnValue("text", "x"))
}
