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

package record

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestTagsHas(t *testing.T) {
	tags := Tags{{"highway", "primary"}, {"name", "Main"}, {"highway", "residential"}}

	assert.True(t, tags.Has("highway", "residential"))
	assert.True(t, tags.Has("highway", "primary"))
	assert.False(t, tags.Has("highway", "service"))
	assert.False(t, tags.Has("Highway", "primary"))
	assert.False(t, Tags(nil).Has("highway", "primary"))
}

func TestTagsMapLastWins(t *testing.T) {
	tags := Tags{{"a", "1"}, {"a", "2"}, {"b", "3"}}
	assert.Equal(t, map[string]string{"a": "2", "b": "3"}, tags.Map())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "point", KindPoint.String())
	assert.Equal(t, "path", KindPath.String())
	assert.Equal(t, "relation", KindRelation.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestConstructors(t *testing.T) {
	p := NewPoint(7, 52.5, 13.4, Tag{"amenity", "cafe"})
	assert.Equal(t, KindPoint, p.Kind)
	assert.Equal(t, orb.Point{13.4, 52.5}, p.Coord.Point())
	assert.Equal(t, "point/7", p.String())

	w := NewPath(9, []int64{1, 2, 3})
	assert.Equal(t, KindPath, w.Kind)
	assert.Equal(t, []int64{1, 2, 3}, w.Refs)
	assert.Empty(t, w.Tags)
}
