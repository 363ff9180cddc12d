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

package tagfilter

import (
	"strings"

	"github.com/Fajla/open-street-maps/record"
	"github.com/pkg/errors"
)

// Predicate is an exact key=value test.
type Predicate struct {
	Key, Value string
}

func New(key, value string) Predicate { return Predicate{key, value} }

// Parse reads "key=value". Only the first '=' splits, so values may contain '='.
func Parse(s string) (Predicate, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return Predicate{}, errors.Errorf("tagfilter: %q is not key=value", s)
	}
	return Predicate{k, v}, nil
}

func (p Predicate) Match(tags record.Tags) bool { return tags.Has(p.Key, p.Value) }

// MatchPath is Match restricted to path records.
func (p Predicate) MatchPath(r *record.Record) bool {
	return r.Kind == record.KindPath && p.Match(r.Tags)
}

func (p Predicate) String() string { return p.Key + "=" + p.Value }
