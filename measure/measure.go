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

// Package measure sums great-circle lengths on a spherical earth of the
// mean radius (IUGG R1), as SpatialLite's Sphere2D lengths do.
package measure

import (
	"github.com/Fajla/open-street-maps/geombuild"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371008.8

/* geo.DistanceHaversine works on orb.EarthRadius; haversine is linear in the radius */
const rescale = EarthRadius / orb.EarthRadius

// PathLength is the haversine length of ls in meters. Fewer than two
// points give 0.
func PathLength(ls orb.LineString) float64 {
	var d float64
	for i := 1; i < len(ls); i++ {
		d += geo.DistanceHaversine(ls[i-1], ls[i])
	}
	return d * rescale
}

// Total sums PathLength over all lines.
func Total(lines []geombuild.Line) float64 {
	var d float64
	for i := range lines {
		d += PathLength(lines[i].Coords)
	}
	return d
}

// Kilometers is for presentation only.
func Kilometers(m float64) float64 { return m / 1000 }
