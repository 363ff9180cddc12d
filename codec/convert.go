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

package codec

import (
	"time"

	"github.com/Fajla/open-street-maps/record"
	"github.com/paulmach/osm"
)

func convTags(t osm.Tags) record.Tags {
	if len(t) == 0 {
		return nil
	}
	r := make(record.Tags, len(t))
	for i, tag := range t {
		r[i] = record.Tag{Key: tag.Key, Value: tag.Value}
	}
	return r
}

func convMeta(version int, ts time.Time, cs osm.ChangesetID, uid osm.UserID, user string) *record.Metadata {
	return &record.Metadata{
		Version:   int32(version),
		Timestamp: ts,
		Changeset: int64(cs),
		UserID:    int32(uid),
		User:      user,
	}
}

func convKind(t osm.Type) record.Kind {
	switch t {
	case osm.TypeNode:
		return record.KindPoint
	case osm.TypeWay:
		return record.KindPath
	case osm.TypeRelation:
		return record.KindRelation
	}
	return record.KindUnknown
}

/* Turns a decoded osm object into a record. Objects that are neither
nodes, ways nor relations come out as KindUnknown. */
func fromObject(o osm.Object, meta bool) record.Record {
	switch v := o.(type) {
	case *osm.Node:
		r := record.NewPoint(int64(v.ID), v.Lat, v.Lon, convTags(v.Tags)...)
		if meta {
			r.Meta = convMeta(v.Version, v.Timestamp, v.ChangesetID, v.UserID, v.User)
		}
		return r
	case *osm.Way:
		refs := make([]int64, len(v.Nodes))
		for i, wn := range v.Nodes {
			refs[i] = int64(wn.ID)
		}
		r := record.NewPath(int64(v.ID), refs, convTags(v.Tags)...)
		if meta {
			r.Meta = convMeta(v.Version, v.Timestamp, v.ChangesetID, v.UserID, v.User)
		}
		return r
	case *osm.Relation:
		mem := make([]record.Member, len(v.Members))
		for i, m := range v.Members {
			mem[i] = record.Member{Kind: convKind(m.Type), Ref: m.Ref, Role: m.Role}
		}
		r := record.NewRelation(int64(v.ID), mem, convTags(v.Tags)...)
		if meta {
			r.Meta = convMeta(v.Version, v.Timestamp, v.ChangesetID, v.UserID, v.User)
		}
		return r
	}
	return record.Record{Kind: record.KindUnknown, ID: o.ObjectID().Ref()}
}

func osmTags(t record.Tags) osm.Tags {
	if len(t) == 0 {
		return nil
	}
	r := make(osm.Tags, len(t))
	for i, tag := range t {
		r[i] = osm.Tag{Key: tag.Key, Value: tag.Value}
	}
	return r
}

var osmTypes = [...]osm.Type{
	record.KindPoint:    osm.TypeNode,
	record.KindPath:     osm.TypeWay,
	record.KindRelation: osm.TypeRelation,
}

/* ToObject is the inverse of fromObject, used to print records as OSM XML.
Unknown kinds yield nil. */
func ToObject(r record.Record) osm.Object {
	var m record.Metadata
	if r.Meta != nil {
		m = *r.Meta
	}
	switch r.Kind {
	case record.KindPoint:
		return &osm.Node{
			ID: osm.NodeID(r.ID), Lat: r.Coord.Lat, Lon: r.Coord.Lon,
			Tags: osmTags(r.Tags), Visible: true,
			Version: int(m.Version), Timestamp: m.Timestamp, ChangesetID: osm.ChangesetID(m.Changeset),
			UserID: osm.UserID(m.UserID), User: m.User,
		}
	case record.KindPath:
		nodes := make(osm.WayNodes, len(r.Refs))
		for i, ref := range r.Refs {
			nodes[i] = osm.WayNode{ID: osm.NodeID(ref)}
		}
		return &osm.Way{
			ID: osm.WayID(r.ID), Nodes: nodes, Tags: osmTags(r.Tags), Visible: true,
			Version: int(m.Version), Timestamp: m.Timestamp, ChangesetID: osm.ChangesetID(m.Changeset),
			UserID: osm.UserID(m.UserID), User: m.User,
		}
	case record.KindRelation:
		mem := make(osm.Members, len(r.Members))
		for i, mb := range r.Members {
			t := osm.TypeNode
			if int(mb.Kind) < len(osmTypes) && osmTypes[mb.Kind] != "" {
				t = osmTypes[mb.Kind]
			}
			mem[i] = osm.Member{Type: t, Ref: mb.Ref, Role: mb.Role}
		}
		return &osm.Relation{
			ID: osm.RelationID(r.ID), Members: mem, Tags: osmTags(r.Tags), Visible: true,
			Version: int(m.Version), Timestamp: m.Timestamp, ChangesetID: osm.ChangesetID(m.Changeset),
			UserID: osm.UserID(m.UserID), User: m.User,
		}
	}
	return nil
}
