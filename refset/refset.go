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

// Package refset is the set of point ids referenced by matching paths.
//
// Ids are stored in a 64-bit roaring bitmap. OSM node ids are dense runs of
// positive integers, which roaring compresses far below a map[int64]struct{}.
// Negative ids map onto the upper half of the uint64 space, so every int64
// keeps its identity.
package refset

import "github.com/RoaringBitmap/roaring/v2/roaring64"

type Set struct {
	bm     *roaring64.Bitmap
	frozen bool
}

func New() *Set { return &Set{bm: roaring64.New()} }

// Add unions ids into the set. It panics once the set has been frozen.
func (s *Set) Add(ids ...int64) {
	if s.frozen {
		panic("refset: Add after Freeze")
	}
	for _, id := range ids {
		s.bm.Add(uint64(id))
	}
}

func (s *Set) Contains(id int64) bool { return s.bm.Contains(uint64(id)) }

func (s *Set) Len() uint64 { return s.bm.GetCardinality() }

// Freeze ends the collection phase and compacts the bitmap.
func (s *Set) Freeze() {
	if s.frozen {
		return
	}
	s.bm.RunOptimize()
	s.frozen = true
}

func (s *Set) Frozen() bool { return s.frozen }

// SizeInBytes is the serialized size of the bitmap, logged after pass 1.
func (s *Set) SizeInBytes() uint64 { return s.bm.GetSerializedSizeInBytes() }
