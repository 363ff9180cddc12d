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

// Command osmselect prints records of a dataset (typically the filtered
// intermediate) as OSM XML.
package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/Fajla/open-street-maps/codec"
	"github.com/Fajla/open-street-maps/record"
	"github.com/Fajla/open-street-maps/tagfilter"
	"github.com/spf13/cobra"
)

type selection struct {
	all, nodes, ways, rels bool
	tag                    string
	limit, offset          uint64
	indent, metadata       bool
}

var pre = xml.StartElement{Name: xml.Name{Local: "osm"}, Attr: []xml.Attr{
	{Name: xml.Name{Local: "version"}, Value: "0.6"},
	{Name: xml.Name{Local: "generator"}, Value: "osmselect 0.2"},
}}
var post = xml.EndElement{Name: xml.Name{Local: "osm"}}

func (s *selection) wants(r *record.Record, pred *tagfilter.Predicate) bool {
	if pred != nil && !pred.Match(r.Tags) {
		return false
	}
	if s.all {
		return true
	}
	switch r.Kind {
	case record.KindPoint:
		return s.nodes
	case record.KindPath:
		return s.ways
	case record.KindRelation:
		return s.rels
	}
	return false
}

func (s *selection) run(ctx context.Context, path string, out io.Writer) error {
	var pred *tagfilter.Predicate
	if s.tag != "" {
		p, err := tagfilter.Parse(s.tag)
		if err != nil {
			return err
		}
		pred = &p
	}
	src, err := codec.Open(ctx, path, codec.ReadOptions{ReadMetadata: s.metadata, SkipRelations: !s.all && !s.rels})
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprint(out, xml.Header)
	enc := xml.NewEncoder(out)
	if s.indent {
		enc.Indent("", " ")
	}
	enc.EncodeToken(pre)

	nolimit := s.limit == 0
	offset, limit := s.offset, s.limit
	for {
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !s.wants(&r, pred) {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if !nolimit {
			if limit == 0 {
				break
			}
			limit--
		}
		if err := enc.Encode(codec.ToObject(r)); err != nil {
			return err
		}
	}
	enc.EncodeToken(post)
	if err := enc.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}

func newCommand() *cobra.Command {
	s := new(selection)
	cmd := &cobra.Command{
		Use:          "osmselect <file>",
		Short:        "Print nodes, ways or relations of an OSM file as XML",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.BoolVar(&s.all, "all", false, "select *")
	f.BoolVar(&s.nodes, "nodes", false, "select OSM Nodes")
	f.BoolVar(&s.ways, "ways", false, "select OSM Ways")
	f.BoolVar(&s.rels, "rels", false, "select OSM Relations")
	f.StringVar(&s.tag, "tag", "", "only elements carrying key=value")
	f.BoolVar(&s.indent, "indent", false, "pretty-print XML")
	f.BoolVar(&s.metadata, "metadata", false, "include version, timestamp and user")
	f.Uint64Var(&s.limit, "limit", 0, "Max. number of elements, 0==infinity")
	f.Uint64Var(&s.offset, "offset", 0, "Number of elements to skip")
	return cmd
}

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
