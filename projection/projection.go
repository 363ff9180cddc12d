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

package projection

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	mercRadius  = 6378137.0
	fromDegree  = math.Pi / 180.0
	fromDegree2 = math.Pi / 360.0
	piFour      = math.Pi / 4

	mercMajor  = 6378137.0
	mercMinor  = 6356752.3142
	mercMinMaj = mercMinor / mercMajor
	mercEs     = 1.0 - (mercMinMaj * mercMinMaj)

	/* Mercator blows up at the poles. */
	maxLat = 89.5
)

func identity(p orb.Point) orb.Point { return p }

func clampLat(lat float64) float64 { return math.Min(maxLat, math.Max(-maxLat, lat)) }

func pseudoMercator(p orb.Point) orb.Point {
	return orb.Point{
		mercRadius * fromDegree * p[0],
		mercRadius * math.Log(math.Tan(piFour+clampLat(p[1])*fromDegree2)),
	}
}

func wgs84Mercator(p orb.Point) orb.Point {
	eccent := math.Sqrt(mercEs)
	phi := clampLat(p[1]) * fromDegree
	con := eccent * math.Sin(phi)
	con = math.Pow((1-con)/(1+con), 0.5*eccent)
	ts := math.Tan(0.5*(math.Pi*0.5-phi)) / con
	return orb.Point{mercMajor * fromDegree * p[0], -mercMajor * math.Log(ts)}
}

// Projection converts lon/lat points for storage in PostGIS.
type Projection uint

const (
	LatLon Projection = iota
	PseudoMercator
	WGS84Mercator
	maxProjection

	WebMercator = PseudoMercator
)

// http://www.volkerschatz.com/net/osm/osm2pgsql-usage.html
var srids = [maxProjection]int{
	4326,
	3857,
	3395,
}

var names = [maxProjection]string{"latlon", "mercator", "wgs84-mercator"}

var convs = [maxProjection]func(orb.Point) orb.Point{
	identity,
	pseudoMercator,
	wgs84Mercator,
}

func (p Projection) SRID() int { return srids[p] }

func (p Projection) Point(r orb.Point) orb.Point { return convs[p](r) }

func (p Projection) String() string { return names[p] }

// Parse accepts the names printed by String.
func Parse(s string) (Projection, error) {
	for i, n := range names {
		if n == s {
			return Projection(i), nil
		}
	}
	return 0, fmt.Errorf("unknown projection %q", s)
}
