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

package hucache

import (
	"bytes"
	"container/list"
	"fmt"

	"github.com/coocood/freecache"
)

var ENotFound = fmt.Errorf("Error: Not Found")

/* The methods our caches need. Shaped after freecache's int-key API so a
*freecache.Cache fits without a wrapper. */
type Cache interface {
	GetInt(key int64) (value []byte, err error)
	SetInt(key int64, value []byte, expireSeconds int) (err error)
	DelInt(key int64) (affected bool)
}

/*
[ recent-ghosts <-[ recent <-!-> frequent ]-> frequent-ghost ]
*/
type area uint

const (
	recentGhost area = iota
	recent
	frequent
	frequentGhost
	/* Not an area. */
	numAreas
)

type entry struct {
	key  int64
	area area
	val  []byte
}

/*
[ .... recent-ghost ...,GR,... recent ...,M,... frequent ...,GF,... frequent-ghost .... ]

Ghost entries keep their key but drop the value. A hit on a ghost moves
capacity from the other side to the ghost's side.
*/
type arc struct {
	lst       *list.List
	gr, m, gf *list.Element
	index     map[int64]*list.Element
	count     [numAreas]int64
	target    [numAreas]int64
}

// NewARC creates a cache that roughly resembles an Adaptive Replacement
// Cache with room for `cache` live entries per side and `ghost` remembered
// keys per side.
func NewARC(cache, ghost int) Cache {
	c := new(arc)
	c.lst = list.New()
	c.gr = c.lst.PushBack(nil)
	c.m = c.lst.PushBack(nil)
	c.gf = c.lst.PushBack(nil)
	c.index = make(map[int64]*list.Element)
	c.target[recent] = int64(cache)
	c.target[frequent] = int64(cache)
	c.target[recentGhost] = int64(ghost)
	c.target[frequentGhost] = int64(ghost)
	return c
}

func (c *arc) evict() {
	for c.count[recent] > c.target[recent] {
		e := c.gr.Next()
		c.lst.MoveBefore(e, c.gr)
		c.ghost(e.Value.(*entry), recentGhost)
	}
	for c.count[frequent] > c.target[frequent] {
		e := c.gf.Prev()
		c.lst.MoveAfter(e, c.gf)
		c.ghost(e.Value.(*entry), frequentGhost)
	}
	for c.count[recentGhost] > c.target[recentGhost] {
		c.drop(c.lst.Front())
	}
	for c.count[frequentGhost] > c.target[frequentGhost] {
		c.drop(c.lst.Back())
	}
}

func (c *arc) ghost(e *entry, a area) {
	c.count[e.area]--
	c.count[a]++
	e.area = a
	e.val = nil
}

func (c *arc) drop(el *list.Element) {
	e := el.Value.(*entry)
	c.count[e.area]--
	c.lst.Remove(el)
	delete(c.index, e.key)
}

func (c *arc) place(el *list.Element, e *entry, a area) {
	switch a {
	case recent:
		c.lst.MoveBefore(el, c.m)
	case frequent:
		c.lst.MoveAfter(el, c.m)
	}
	c.count[e.area]--
	c.count[a]++
	e.area = a
	c.evict()
}

func (c *arc) GetInt(key int64) ([]byte, error) {
	el, ok := c.index[key]
	if !ok {
		return nil, ENotFound
	}
	e := el.Value.(*entry)
	switch e.area {
	case recent:
		c.place(el, e, frequent)
		return e.val, nil
	case frequent:
		c.lst.MoveAfter(el, c.m) /* Move-To-Front */
		return e.val, nil
	}
	return nil, ENotFound
}

func (c *arc) SetInt(key int64, value []byte, expireSeconds int) error {
	v := append([]byte(nil), value...)
	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry)
		e.val = v
		switch e.area {
		case recentGhost:
			if c.target[frequent] > 0 {
				c.target[frequent]--
				c.target[recent]++
			}
			c.place(el, e, recent)
		case frequentGhost:
			if c.target[recent] > 0 {
				c.target[recent]--
				c.target[frequent]++
			}
			c.place(el, e, frequent)
		}
		return nil
	}
	e := &entry{key: key, area: recent, val: v}
	c.index[key] = c.lst.InsertBefore(e, c.m)
	c.count[recent]++
	c.evict()
	return nil
}

func (c *arc) DelInt(key int64) bool {
	el, ok := c.index[key]
	if !ok {
		return false
	}
	c.drop(el)
	return true
}

func (c *arc) String() string {
	buf := new(bytes.Buffer)
	buf.WriteString("[")
	for e := c.lst.Front(); e != nil; e = e.Next() {
		switch e {
		case c.gr:
			buf.WriteString("GR,")
		case c.m:
			buf.WriteString("M,")
		case c.gf:
			buf.WriteString("GF,")
		default:
			ee := e.Value.(*entry)
			fmt.Fprintf(buf, "%d (%d),", ee.key, ee.area)
		}
	}
	buf.WriteString("]")
	fmt.Fprintf(buf, "(%v %v)", c.count, c.target)
	return buf.String()
}

type tiered struct {
	hot, warm Cache
}

/*
Tiered puts a small, entry counted cache (usually NewARC) in front of a
larger, byte bounded one (usually NewFree). Writes go to both, a warm hit
is copied back into the hot tier.
*/
func Tiered(hot, warm Cache) Cache { return &tiered{hot, warm} }

func (t *tiered) GetInt(key int64) (value []byte, err error) {
	value, err = t.hot.GetInt(key)
	if err == nil {
		return
	}
	value, err = t.warm.GetInt(key)
	if err == nil {
		t.hot.SetInt(key, value, 0)
	}
	return
}

func (t *tiered) SetInt(key int64, value []byte, expireSeconds int) error {
	if err := t.warm.SetInt(key, value, expireSeconds); err != nil {
		return err
	}
	return t.hot.SetInt(key, value, expireSeconds)
}

func (t *tiered) DelInt(key int64) bool {
	a := t.hot.DelInt(key)
	b := t.warm.DelInt(key)
	return a || b
}

// NewFree is a freecache of size bytes (freecache enforces a 512KiB floor).
func NewFree(size int) Cache { return freecache.NewCache(size) }
