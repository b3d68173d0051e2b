/*
Copyright 2024 The kvs Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kvs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// safeGen is the globally published "lowest generation still referenced
// by the index" cell from spec.md §4.5. It is read by every reader without
// synchronization beyond the atomic load, and advanced by the compactor
// after a successful sweep.
type safeGen struct {
	v atomic.Uint64
}

func (s *safeGen) load() generation     { return generation(s.v.Load()) }
func (s *safeGen) publish(g generation) { s.v.Store(uint64(g)) }

// readerSet is the per-thread state described in spec.md §4.5: a cache of
// open read handles, one per generation this caller has observed. Go has
// no thread-local storage, so instead of binding one readerSet per OS
// thread, the store keeps a sync.Pool of them (grounded on the teacher's
// pkg/pools bytes.Buffer pool): whichever goroutine is currently servicing
// a Get borrows a readerSet, uses it, and returns it, so descriptor reuse
// still happens across calls without any global per-read lock.
type readerSet struct {
	dir     string
	handles map[generation]*logReader
}

func newReaderSet(dir string) *readerSet {
	return &readerSet{dir: dir, handles: make(map[generation]*logReader)}
}

// evictBelow lazily closes and forgets any handle whose generation is
// older than safe. No global coordination is required: a read already in
// flight against an old handle finishes normally, since removing the file
// on disk does not invalidate an already-open POSIX file descriptor.
func (rs *readerSet) evictBelow(safe generation) {
	for g, h := range rs.handles {
		if g < safe {
			h.close()
			delete(rs.handles, g)
		}
	}
}

func (rs *readerSet) handleFor(g generation) (*logReader, error) {
	if h, ok := rs.handles[g]; ok {
		return h, nil
	}
	h, err := openLogReader(rs.dir, g)
	if err != nil {
		return nil, err
	}
	rs.handles[g] = h
	return h, nil
}

func (rs *readerSet) closeAll() {
	for g, h := range rs.handles {
		h.close()
		delete(rs.handles, g)
	}
}

// readerPool lends out readerSets and reclaims them, publishing safeGen
// evictions on borrow.
type readerPool struct {
	dir  string
	safe *safeGen
	pool sync.Pool

	// reads collapses concurrent reads that land on the exact same
	// (generation, offset, length) byte range into a single disk read,
	// which is common under read-heavy contention on a hot key: every
	// goroutine piles up on the same index entry until the first one
	// resolves it, instead of each opening/seeking its own handle.
	reads singleflight.Group
}

func newReaderPool(dir string, safe *safeGen) *readerPool {
	rp := &readerPool{dir: dir, safe: safe}
	rp.pool.New = func() interface{} { return newReaderSet(dir) }
	return rp
}

func (rp *readerPool) borrow() *readerSet {
	rs := rp.pool.Get().(*readerSet)
	rs.evictBelow(rp.safe.load())
	return rs
}

func (rp *readerPool) release(rs *readerSet) {
	rp.pool.Put(rs)
}

// read performs the full get-path from spec.md §4.5: ensure a handle for
// e.gen, seek to e.pos, read e.length bytes, decode, and assert it is a
// Set record for key. Any mismatch is corruption.
func (rp *readerPool) read(key string, e indexEntry) (string, error) {
	sfKey := fmt.Sprintf("%d:%d:%d", e.gen, e.pos, e.length)
	v, err, _ := rp.reads.Do(sfKey, func() (interface{}, error) {
		rs := rp.borrow()
		defer rp.release(rs)

		h, err := rs.handleFor(e.gen)
		if err != nil {
			return "", err
		}
		buf, err := h.readAt(e.pos, e.length)
		if err != nil {
			return "", err
		}
		rec, err := decodeRecordBytes(buf)
		if err != nil {
			return "", err
		}
		if rec.Kind != kindSet || rec.Key != key {
			return "", &Error{Kind: KindUnexpectedRecord}
		}
		return rec.Value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
