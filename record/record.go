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

// Package record holds the typed entities streamed through the filter:
// points, paths and relations, all sharing one tag model.
package record

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Kind discriminates the payload carried by a Record.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPoint
	KindPath
	KindRelation
)

var kindNames = [...]string{"unknown", "point", "path", "relation"}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Tag is a single key/value pair. Duplicate keys on one record are kept.
type Tag struct {
	Key, Value string
}

type Tags []Tag

// Has reports whether any tag equals key=value.
func (t Tags) Has(key, value string) bool {
	for _, tag := range t {
		if tag.Key == key && tag.Value == value {
			return true
		}
	}
	return false
}

// Map collapses the tags into a map, the last duplicate key wins.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// Coord is a position in degrees.
type Coord struct {
	Lat, Lon float64
}

// Point converts to orb's lon/lat ordering.
func (c Coord) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Metadata is the auxiliary author/timestamp block. It is only filled when
// the codec was asked to read metadata.
type Metadata struct {
	Version   int32
	Timestamp time.Time
	Changeset int64
	UserID    int32
	User      string
}

// Member is a relation member reference.
type Member struct {
	Kind Kind
	Ref  int64
	Role string
}

// Record is one entity of the dataset. Coord is set for points, Refs for
// paths and Members for relations; the other payloads stay empty.
type Record struct {
	Kind    Kind
	ID      int64
	Tags    Tags
	Meta    *Metadata
	Coord   Coord
	Refs    []int64
	Members []Member
}

func NewPoint(id int64, lat, lon float64, tags ...Tag) Record {
	return Record{Kind: KindPoint, ID: id, Coord: Coord{lat, lon}, Tags: tags}
}

func NewPath(id int64, refs []int64, tags ...Tag) Record {
	return Record{Kind: KindPath, ID: id, Refs: refs, Tags: tags}
}

func NewRelation(id int64, members []Member, tags ...Tag) Record {
	return Record{Kind: KindRelation, ID: id, Members: members, Tags: tags}
}

func (r Record) String() string { return fmt.Sprintf("%v/%d", r.Kind, r.ID) }
