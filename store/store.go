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

/*
Package store is a goleveldb backed point index for filtered datasets that
do not fit a Go map comfortably. Keys are big-endian ids, values are the
two coordinates as float64 bits.
*/
package store

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/Fajla/open-street-maps/hucache"
	"github.com/Fajla/open-street-maps/record"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const batchBytes = 128 << 10

type Storage struct {
	DB    *leveldb.DB
	path  string
	temp  bool
	batch leveldb.Batch
	count int
	cache hucache.Cache
	kbuf  [8]byte
	vbuf  [16]byte
}

// OpenStore opens (or recovers) the database at path. cache may be nil.
func OpenStore(path string, cache hucache.Cache) (*Storage, error) {
	o := &opt.Options{NoSync: true}
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		db, err = leveldb.RecoverFile(path, o)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open point store %s", path)
	}
	return &Storage{DB: db, path: path, cache: cache}, nil
}

// OpenTemp creates a store in a fresh directory under dir that is removed
// again by Close.
func OpenTemp(dir string, cache hucache.Cache) (*Storage, error) {
	p, err := os.MkdirTemp(dir, "points-*")
	if err != nil {
		return nil, errors.Wrap(err, "point store dir")
	}
	s, err := OpenStore(p, cache)
	if err != nil {
		os.RemoveAll(p)
		return nil, err
	}
	s.temp = true
	return s, nil
}

func encodeCoord(b []byte, c record.Coord) {
	binary.BigEndian.PutUint64(b[0:], math.Float64bits(c.Lat))
	binary.BigEndian.PutUint64(b[8:], math.Float64bits(c.Lon))
}

func decodeCoord(b []byte) (record.Coord, error) {
	if len(b) != 16 {
		return record.Coord{}, errors.Errorf("point store: value of %d bytes", len(b))
	}
	return record.Coord{
		Lat: math.Float64frombits(binary.BigEndian.Uint64(b[0:])),
		Lon: math.Float64frombits(binary.BigEndian.Uint64(b[8:])),
	}, nil
}

func (s *Storage) key(id int64) []byte {
	binary.BigEndian.PutUint64(s.kbuf[:], uint64(id))
	return s.kbuf[:]
}

// Put queues the coordinate; batches are written every 128KiB.
func (s *Storage) Put(id int64, c record.Coord) (err error) {
	encodeCoord(s.vbuf[:], c)
	s.batch.Put(s.key(id), s.vbuf[:])
	s.count += 8 + 16
	if s.count > batchBytes {
		err = s.Flush()
	}
	return
}

func (s *Storage) Flush() (err error) {
	if s.count > 0 {
		s.count = 0
		err = s.DB.Write(&s.batch, nil)
		s.batch.Reset()
	}
	return
}

// Get flushes pending writes first, so a Put is always visible.
func (s *Storage) Get(id int64) (record.Coord, bool, error) {
	if s.cache != nil {
		if v, err := s.cache.GetInt(id); err == nil {
			c, err := decodeCoord(v)
			return c, err == nil, err
		}
	}
	if err := s.Flush(); err != nil {
		return record.Coord{}, false, err
	}
	v, err := s.DB.Get(s.key(id), nil)
	if err == leveldb.ErrNotFound {
		return record.Coord{}, false, nil
	}
	if err != nil {
		return record.Coord{}, false, err
	}
	c, err := decodeCoord(v)
	if err != nil {
		return c, false, err
	}
	if s.cache != nil {
		s.cache.SetInt(id, v, 0)
	}
	return c, true, nil
}

func (s *Storage) Close() error {
	err := s.DB.Close()
	if s.temp {
		if rerr := os.RemoveAll(s.path); err == nil {
			err = rerr
		}
	}
	return err
}
