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

package geombuild

import (
	"github.com/paulmach/orb"
	geom "github.com/twpayne/go-geom"
)

const near0 = 1.0 / (1 << 24)
const mnear0 = -near0

func isEq(a, b float64) bool {
	c := a - b
	return mnear0 < c && c < near0
}

type EValidation uint

const (
	EShortLineString EValidation = iota
	EDegenerateLineString
)

var errReasons = [...]string{
	"LineString must have at least two points",
	"LineString has all points at the same position",
}

func (e EValidation) Error() string {
	if EValidation(uint(len(errReasons))) <= e {
		return "???"
	}
	return errReasons[e]
}

// ToGeom converts to a go-geom XY linestring; p projects every point.
func ToGeom(ls orb.LineString, p func(orb.Point) orb.Point) *geom.LineString {
	f := make([]float64, 0, len(ls)*2)
	for _, pt := range ls {
		if p != nil {
			pt = p(pt)
		}
		f = append(f, pt[0], pt[1])
	}
	return geom.NewLineStringFlat(geom.XY, f)
}

// ValidateLineString rejects lines PostGIS would store but nobody can draw.
func ValidateLineString(l *geom.LineString) error {
	n := l.NumCoords()
	if n < 2 {
		return EShortLineString
	}
	first := l.Coord(0)
	for i := 1; i < n; i++ {
		c := l.Coord(i)
		if !isEq(c[0], first[0]) || !isEq(c[1], first[1]) {
			return nil
		}
	}
	return EDegenerateLineString
}
