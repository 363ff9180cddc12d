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

// Package style reads osm2pgsql style files to choose which tag keys
// become their own columns in the exported line table.
package style

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var uline = regexp.MustCompile(`^[^\#]*`)
var data = regexp.MustCompile(`\S+`)
var jug = regexp.MustCompile(`[^,]+`)

// sqlIdent keeps column names safe to quote.
var sqlIdent = regexp.MustCompile(`^[A-Za-z_:][A-Za-z0-9_:\-]*$`)

// sqlType admits plain type names with an optional size and array suffix.
var sqlType = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\([0-9]+(,[0-9]+)?\))?(\[\])?$`)

// Columns the line table always has.
var fixed = map[string]bool{"osm_id": true, "length_m": true, "tags": true, "way": true}

type Line struct {
	OsmType, Tag, DataType, Flags string
}

func (l *Line) IsFor(s string) bool {
	for _, ot := range jug.FindAllString(l.OsmType, -1) {
		if ot == s {
			return true
		}
	}
	return false
}

func (l *Line) HasFlag(f string) bool {
	for _, fl := range jug.FindAllString(l.Flags, -1) {
		if fl == f {
			return true
		}
	}
	return false
}

type Style []Line

func LoadStyle(style io.Reader) (s Style) {
	sc := bufio.NewScanner(style)
	for sc.Scan() {
		slc := uline.Find(sc.Bytes())
		cols := data.FindAll(slc, 4)
		if len(cols) < 4 {
			continue
		}
		s = append(s, Line{
			string(cols[0]),
			string(cols[1]),
			string(cols[2]),
			string(cols[3]),
		})
	}
	return
}

/*
Columns returns the lines usable as columns for ways: linear, not deleted,
with a plain identifier and type, and not one of the computed osm2pgsql
columns or the table's own columns.
*/
func (s Style) Columns() (c Style) {
	seen := map[string]bool{}
	for _, l := range s {
		switch {
		case !l.IsFor("way"):
		case l.HasFlag("delete"), l.HasFlag("nocolumn"):
		case l.Tag == "way_area", l.Tag == "z_order", fixed[l.Tag]:
		case !sqlIdent.MatchString(l.Tag), strings.Contains(l.Tag, `"`):
		case !sqlType.MatchString(l.DataType):
		case seen[l.Tag]:
		default:
			seen[l.Tag] = true
			c = append(c, l)
		}
	}
	return
}
